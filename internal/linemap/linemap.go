// Package linemap parses structured text formats while keeping track of the
// source line every string value came from.
package linemap

import (
	"bytes"
	"errors"
	"regexp"
	"strings"

	"github.com/redactyl/baseliner/internal/pragma"
)

// ErrFormatMismatch is returned when the input does not conform to the format
// a parser expects. Callers treat it as a signal to try another format.
var ErrFormatMismatch = errors.New("format mismatch")

// Value is one string value extracted from a structured document.
type Value struct {
	// Path locates the value inside the document: section.key for ini,
	// dotted mapping keys for yaml.
	Path  string
	Key   string
	Value string
	// Line is the 1-based source line of the value.
	Line int
	// Raw is the source text of Line.
	Raw string
	// Binary marks a yaml !!binary scalar; Bytes holds the decoded payload.
	Binary      bool
	Bytes       []byte
	Allowlisted bool
}

type options struct {
	header  bool
	exclude *regexp.Regexp
}

// Option configures a parser.
type Option func(*options)

// WithSyntheticHeader makes the ini parser treat the input as if it started
// with a [global] section header, for header-less key/value files.
func WithSyntheticHeader() Option {
	return func(o *options) { o.header = true }
}

// WithExcludeLines skips every line matching re. A nil re is ignored.
func WithExcludeLines(re *regexp.Regexp) Option {
	return func(o *options) { o.exclude = re }
}

// sourceLines splits data into lines without their terminators.
func sourceLines(data []byte) []string {
	s := string(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n")))
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// annotate fills Raw and Allowlisted from the source lines.
func annotate(values []Value, lines []string, allowed map[int]bool) {
	for i := range values {
		n := values[i].Line
		if n >= 1 && n <= len(lines) {
			values[i].Raw = lines[n-1]
		}
		values[i].Allowlisted = allowed[n] || pragma.Allowlisted(values[i].Raw)
	}
}
