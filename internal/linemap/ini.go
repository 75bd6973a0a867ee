package linemap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/redactyl/baseliner/internal/pragma"
)

var (
	reSection = regexp.MustCompile(`^\[(.+)\]$`)
	reComment = regexp.MustCompile(`^\s*[;#]`)
	reOption  = regexp.MustCompile(`^(.*?)\s*([=:])\s*(.*)$`)
)

// syntheticSection names the section assumed by WithSyntheticHeader.
const syntheticSection = "global"

// iniEntry is one logical key: the first value segment plus one segment per
// continuation line.
type iniEntry struct {
	section  string
	key      string
	segments []string
}

// ParseINI extracts every value segment of an ini-style document together
// with the physical line it sits on. Continuation lines (indented deeper than
// their key) produce one Value each.
//
// The document must contain at least one section and every non-comment line
// outside a continuation must be a section header or a key with a = or :
// separator; anything else fails with ErrFormatMismatch.
func ParseINI(data []byte, opts ...Option) ([]Value, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	lines := sourceLines(data)
	entries, err := readINI(lines, o)
	if err != nil {
		return nil, err
	}
	values := locateINI(entries, lines, o.exclude)
	annotate(values, lines, pragma.Lines(data))
	return values, nil
}

func skippable(line string, exclude *regexp.Regexp) bool {
	if strings.TrimSpace(line) == "" || reComment.MatchString(line) {
		return true
	}
	return exclude != nil && exclude.MatchString(line)
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// readINI builds the logical key/value structure. It only knows segment
// text, not positions; locateINI recovers those.
func readINI(lines []string, o options) ([]*iniEntry, error) {
	var (
		entries  []*iniEntry
		cur      *iniEntry
		section  string
		sections int
		indent   int
	)
	if o.header {
		section = syntheticSection
		sections = 1
	}
	for i, line := range lines {
		if skippable(line, o.exclude) {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if cur != nil && indentOf(line) > indent {
			cur.segments = append(cur.segments, trimmed)
			continue
		}
		if m := reSection.FindStringSubmatch(trimmed); m != nil {
			section = m[1]
			sections++
			cur = nil
			continue
		}
		if sections == 0 {
			return nil, fmt.Errorf("%w: ini: line %d: key before any section header", ErrFormatMismatch, i+1)
		}
		m := reOption.FindStringSubmatch(trimmed)
		if m == nil || m[1] == "" {
			return nil, fmt.Errorf("%w: ini: line %d: expected key and separator", ErrFormatMismatch, i+1)
		}
		cur = &iniEntry{section: section, key: m[1], segments: []string{m[3]}}
		indent = indentOf(line)
		entries = append(entries, cur)
	}
	if sections == 0 {
		return nil, fmt.Errorf("%w: ini: no sections", ErrFormatMismatch)
	}
	return entries, nil
}

// locateINI re-walks the physical lines for each entry in document order.
// The anchor is the first line reading key<sep>first-segment; each following
// segment takes the next line that is not blank, a comment or excluded.
// An entry whose anchor cannot be found is dropped without moving the cursor.
func locateINI(entries []*iniEntry, lines []string, exclude *regexp.Regexp) []Value {
	var out []Value
	cursor := 0
	for _, e := range entries {
		anchor := regexp.MustCompile(`^\s*(?i:` + regexp.QuoteMeta(e.key) + `)[ \t:=]+` + regexp.QuoteMeta(e.segments[0]))
		next, last := 0, -1
		for i := cursor; i < len(lines) && next < len(e.segments); i++ {
			if skippable(lines[i], exclude) {
				continue
			}
			if next == 0 && !anchor.MatchString(lines[i]) {
				continue
			}
			if seg := e.segments[next]; seg != "" {
				out = append(out, Value{
					Path:  e.section + "." + e.key,
					Key:   e.key,
					Value: seg,
					Line:  i + 1,
				})
			}
			next++
			last = i
		}
		if last >= 0 {
			cursor = last + 1
		}
	}
	return out
}
