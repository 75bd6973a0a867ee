// Package ignore reads .baselinerignore files: one doublestar glob per line,
// '#' comments, a trailing '/' for directories and a leading '!' to
// re-include a path excluded by an earlier line.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is the ignore file looked up at the scan root.
const FileName = ".baselinerignore"

type rule struct {
	pattern string
	dir     bool
	negate  bool
	rooted  bool
}

// Matcher holds the parsed rules. The zero value matches nothing.
type Matcher struct {
	rules []rule
}

// Load parses the ignore file at p. A missing file yields an empty Matcher
// and no error.
func Load(p string) (Matcher, error) {
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Matcher{}, nil
		}
		return Matcher{}, err
	}
	defer func() { _ = f.Close() }()

	var m Matcher
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var r rule
		if strings.HasPrefix(line, "!") {
			r.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			r.dir = true
			line = strings.TrimSuffix(line, "/")
		}
		if strings.HasPrefix(line, "/") {
			r.rooted = true
			line = strings.TrimPrefix(line, "/")
		}
		if !doublestar.ValidatePattern(line) {
			return Matcher{}, fmt.Errorf("%s: %w: %q", p, doublestar.ErrBadPattern, line)
		}
		r.pattern = line
		m.rules = append(m.rules, r)
	}
	return m, sc.Err()
}

// Match reports whether rel (slash or OS separated, relative to the root)
// is ignored. The last matching rule wins.
func (m Matcher) Match(rel string) bool {
	rel = strings.TrimPrefix(strings.ReplaceAll(rel, "\\", "/"), "./")
	ignored := false
	for _, r := range m.rules {
		if r.matches(rel) {
			ignored = !r.negate
		}
	}
	return ignored
}

func (r rule) matches(rel string) bool {
	if r.dir {
		// the rule names a directory: match any ancestor of rel
		for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if r.matchOne(dir) {
				return true
			}
		}
		return false
	}
	if r.matchOne(rel) {
		return true
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if r.matchOne(dir) {
			return true
		}
	}
	return false
}

func (r rule) matchOne(p string) bool {
	if ok, _ := doublestar.Match(r.pattern, p); ok {
		return true
	}
	if r.rooted || strings.Contains(r.pattern, "/") {
		return false
	}
	ok, _ := doublestar.Match(r.pattern, path.Base(p))
	return ok
}
