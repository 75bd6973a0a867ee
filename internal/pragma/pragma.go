// Package pragma recognizes inline allow-list comments that suppress
// detection on a line.
package pragma

import (
	"bufio"
	"bytes"
	"regexp"
)

// comment tokens recognized before the marker: shell/python/yaml, C-family,
// block comments, SQL/lua, HTML/XML, ini, VB, TeX/erlang, jinja, batch.
const commentTokens = `(?:#|//|/\*|--|<!--|;|'|%|\{#|\{\{!--|\bREM\b)`

var (
	reAllowLine = regexp.MustCompile(`(?i)` + commentTokens + `[ \t]*pragma:[ \t]?(?:allow|white)list[ \t-]secret`)
	reAllowNext = regexp.MustCompile(`(?i)` + commentTokens + `[ \t]*pragma:[ \t]?(?:allow|white)list[ \t-]nextline[ \t-]secret`)
)

// Allowlisted reports whether line carries an allow-list marker for itself.
func Allowlisted(line string) bool {
	return reAllowLine.MatchString(line)
}

// AllowlistsNext reports whether line carries a marker for the line after it.
func AllowlistsNext(line string) bool {
	return reAllowNext.MatchString(line)
}

// Lines returns the 1-based line numbers in data that are suppressed, either
// by their own marker or by a nextline marker on the preceding line.
func Lines(data []byte) map[int]bool {
	out := map[int]bool{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		t := sc.Text()
		if Allowlisted(t) {
			out[line] = true
		}
		if AllowlistsNext(t) {
			out[line+1] = true
		}
	}
	return out
}
