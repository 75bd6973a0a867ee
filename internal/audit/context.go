package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redactyl/baseliner/internal/baseline"
)

// ReadContext returns up to radius lines either side of line in the file at
// path, and the number of the first returned line.
func ReadContext(path string, line, radius int) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	start := max(line-radius, 1)
	end := line + radius
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		if n > end {
			break
		}
		if n >= start {
			lines = append(lines, sc.Text())
		}
	}
	return lines, start, sc.Err()
}

// FileContext returns a ContextFunc reading records' files under root and
// numbering each line, with the record's own line marked.
func FileContext(root string, radius int) ContextFunc {
	return func(r *baseline.Record) []string {
		lines, start, err := ReadContext(filepath.Join(root, filepath.FromSlash(r.Filename)), r.LineNumber, radius)
		if err != nil {
			return nil
		}
		out := make([]string, len(lines))
		for i, l := range lines {
			marker := " "
			if start+i == r.LineNumber {
				marker = ">"
			}
			out[i] = fmt.Sprintf("%s%5d  %s", marker, start+i, l)
		}
		return out
	}
}
