package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/redactyl/baseliner/internal/git"
	"github.com/redactyl/baseliner/internal/ignore"
)

// Walk invokes handle for each eligible file under cfg.Root with its path
// relative to the root (slash separated) and its content. Explicit Paths
// take precedence over TrackedOnly, which takes precedence over a directory
// walk. An error from handle stops the walk.
func Walk(ctx context.Context, cfg Config, ign ignore.Matcher, handle func(rel string, data []byte) error) error {
	visit := func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !Selected(cfg, ign, rel) {
			return nil
		}
		data, ok := readTarget(filepath.Join(cfg.Root, filepath.FromSlash(rel)), cfg.MaxBytes)
		if !ok {
			return nil
		}
		return handle(rel, data)
	}

	switch {
	case len(cfg.Paths) > 0:
		for _, p := range cfg.Paths {
			if err := visit(filepath.ToSlash(filepath.Clean(p))); err != nil {
				return err
			}
		}
		return nil
	case cfg.TrackedOnly:
		files, err := git.TrackedFiles(cfg.Root)
		if err != nil {
			return err
		}
		for _, rel := range files {
			if cfg.DefaultExcludes && underDefaultExcludedDir(rel) {
				continue
			}
			if err := visit(rel); err != nil {
				return err
			}
		}
		return nil
	}

	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != cfg.Root && (d.Name() == ".git" || cfg.DefaultExcludes && isDefaultDirExcluded(d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(cfg.Root, p)
		if err != nil {
			return nil
		}
		return visit(filepath.ToSlash(rel))
	})
}

// Selected applies the path-only rules: globs, the ignore file, default
// excludes and the tool's own files. It does not touch the file system.
func Selected(cfg Config, ign ignore.Matcher, rel string) bool {
	base := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		base = rel[i+1:]
	}
	if internalFiles[base] || (cfg.BaselineFile != "" && rel == filepath.ToSlash(cfg.BaselineFile)) {
		return false
	}
	if !allowedByGlobs(rel, cfg) {
		return false
	}
	if ign.Match(rel) {
		return false
	}
	if cfg.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(rel)) {
		return false
	}
	return true
}

func underDefaultExcludedDir(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, p := range parts[:len(parts)-1] {
		if isDefaultDirExcluded(p) {
			return true
		}
	}
	return false
}

// readTarget reads p when it is a regular text file no larger than max.
func readTarget(p string, max int64) ([]byte, bool) {
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	if max > 0 && info.Size() > max {
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil || len(b) == 0 {
		return nil, false
	}
	if looksBinary(b) {
		return nil, false
	}
	return b, true
}

const sniffLen = 3072

// looksBinary reports content that detectors should not see: a NUL byte
// near the start, or a non-text MIME type whose prefix is not valid UTF-8.
func looksBinary(b []byte) bool {
	head := b
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	for _, c := range head[:min(len(head), 800)] {
		if c == 0 {
			return true
		}
	}
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return false
		}
	}
	// the prefix may end mid-rune
	for i := 0; i < utf8.UTFMax && len(head) > 0; i++ {
		if utf8.Valid(head) {
			return false
		}
		head = head[:len(head)-1]
	}
	return true
}
