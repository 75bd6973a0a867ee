package tui

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/redactyl/baseliner/internal/audit"
)

// renderContext returns the numbered source lines around line, with the
// record's line marked. Missing files render as a note rather than an error.
func renderContext(path string, line, radius int, highlight bool) string {
	lines, start, err := audit.ReadContext(path, line, radius)
	if err != nil {
		return dimStyle.Render(fmt.Sprintf("(file not available: %v)", err))
	}
	if len(lines) == 0 {
		return dimStyle.Render("(line is past the end of the file)")
	}

	shown := lines
	if highlight {
		code := strings.TrimSuffix(highlightCode(strings.Join(lines, "\n"), path), "\n")
		if hl := strings.Split(code, "\n"); len(hl) == len(lines) {
			shown = hl
		}
	}

	var b strings.Builder
	for i, l := range shown {
		n := start + i
		marker := "  "
		gutter := lineNoStyle.Render(fmt.Sprintf("%5d", n))
		if n == line {
			marker = markerStyle.Render("> ")
			gutter = markerStyle.Render(fmt.Sprintf("%5d", n))
		}
		b.WriteString(marker + gutter + "  " + l + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func highlightCode(code string, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		if ext := filepath.Ext(filename); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return code // no highlighting for unknown file types
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
