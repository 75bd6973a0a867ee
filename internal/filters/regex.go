package filters

import (
	"fmt"
	"regexp"
)

const (
	RegexLineID   = "regex.should_exclude_line"
	RegexFileID   = "regex.should_exclude_file"
	RegexSecretID = "regex.should_exclude_secret"
)

// Regex excludes candidates whose line, filename or secret (depending on the
// identifier) matches any of the configured patterns.
type Regex struct {
	id       string
	patterns []*regexp.Regexp
}

func (r *Regex) ID() string { return r.id }

// Initialize accepts "pattern" as a string or a list of strings.
func (r *Regex) Initialize(params map[string]any) error {
	var raw []string
	switch v := params["pattern"].(type) {
	case string:
		raw = []string{v}
	case []string:
		raw = v
	case []any:
		for _, x := range v {
			s, ok := x.(string)
			if !ok {
				return fmt.Errorf("%w: pattern entries must be strings", ErrInvalidParams)
			}
			raw = append(raw, s)
		}
	default:
		return fmt.Errorf("%w: %s needs a pattern", ErrInvalidParams, r.id)
	}
	r.patterns = r.patterns[:0]
	for _, p := range raw {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return nil
}

func (r *Regex) Params() map[string]any {
	out := make([]string, len(r.patterns))
	for i, re := range r.patterns {
		out[i] = re.String()
	}
	return map[string]any{"pattern": out}
}

func (r *Regex) ShouldExclude(c Candidate) (bool, error) {
	var target string
	switch r.id {
	case RegexLineID:
		target = c.Line
	case RegexFileID:
		target = c.Filename
	default:
		target = c.Secret
	}
	for _, re := range r.patterns {
		if re.MatchString(target) {
			return true, nil
		}
	}
	return false, nil
}
