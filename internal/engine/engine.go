package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"github.com/redactyl/baseliner/internal/baseline"
	"github.com/redactyl/baseliner/internal/cache"
	"github.com/redactyl/baseliner/internal/ignore"
	"github.com/redactyl/baseliner/internal/scanner"
	"github.com/redactyl/baseliner/internal/types"
	"golang.org/x/sync/errgroup"
)

// Config controls scanning scope and performance.
type Config struct {
	Root            string
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	Threads         int
	DefaultExcludes bool
	TrackedOnly     bool
	// Paths restricts the scan to these root-relative files.
	Paths []string
	// BaselineFile, relative to Root, is never scanned.
	BaselineFile string

	// Fingerprint identifies the scanner configuration for the incremental
	// cache. An empty fingerprint or NoCache disables reuse.
	Fingerprint string
	NoCache     bool

	// Progress is called once per scanned file, from worker goroutines.
	Progress func()
	Logger   *slog.Logger
}

// Result is the outcome of a scan, before it is merged into a baseline.
type Result struct {
	// Findings per scanned file; files without findings are absent.
	Findings map[string][]types.Finding
	// Scanned lists every file whose baseline records this run replaces,
	// including files that were deleted since the previous baseline.
	Scanned []string
	// Cached lists unchanged files whose previous records stand.
	Cached []string
	// Deleted lists previously recorded files that no longer exist.
	Deleted []string
	// FileErrors holds files that could not be judged. Their previous
	// records are kept untouched.
	FileErrors map[string]error

	FilesScanned int
	Duration     time.Duration

	cache cache.DB
}

type outcome struct {
	rel      string
	sum      string
	findings []types.Finding
	err      error
}

// Scan scans the files selected by cfg with scnr. prev is the baseline the
// results will be merged into; it enables the incremental cache and the
// detection of deleted files, and may be nil.
//
// Files are scanned concurrently, at most cfg.Threads at a time. Each worker
// writes only its own outcome; results are collected by a single writer
// after every worker has finished.
func Scan(ctx context.Context, cfg Config, scnr scanner.Scanner, prev *baseline.Baseline) (*Result, error) {
	started := time.Now()
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1 << 20
	}
	ign, err := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	if err != nil {
		return nil, err
	}

	useCache := !cfg.NoCache && cfg.Fingerprint != "" && prev != nil
	db := cache.DB{Entries: map[string]string{}}
	if useCache {
		if loaded, err := cache.Load(cfg.Root); err == nil {
			db = loaded
		}
	}
	res := &Result{
		Findings:   map[string][]types.Finding{},
		FileErrors: map[string]error{},
		cache:      cache.DB{Fingerprint: cfg.Fingerprint, Entries: map[string]string{}},
	}
	if db.Fingerprint == cfg.Fingerprint {
		for k, v := range db.Entries {
			res.cache.Entries[k] = v
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Threads)
	seen := map[string]bool{}
	var outcomes []*outcome
	walkErr := Walk(gctx, cfg, ign, func(rel string, data []byte) error {
		seen[rel] = true
		sum := cache.Sum(data)
		if useCache && db.Hit(cfg.Fingerprint, rel, sum) {
			res.Cached = append(res.Cached, rel)
			return nil
		}
		o := &outcome{rel: rel, sum: sum}
		outcomes = append(outcomes, o)
		g.Go(func() error {
			o.findings, o.err = scnr.Scan(rel, data)
			if cfg.Progress != nil {
				cfg.Progress()
			}
			return nil
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}

	for _, o := range outcomes {
		res.FilesScanned++
		if o.err != nil {
			log.Warn("file scan failed", "path", o.rel, "err", o.err)
			res.FileErrors[o.rel] = o.err
			delete(res.cache.Entries, o.rel)
			continue
		}
		res.Scanned = append(res.Scanned, o.rel)
		res.cache.Entries[o.rel] = o.sum
		if len(o.findings) > 0 {
			res.Findings[o.rel] = o.findings
		}
		log.Debug("file scanned", "path", o.rel, "findings", len(o.findings))
	}

	if prev != nil {
		for _, name := range prev.Filenames() {
			if seen[name] || !inScope(cfg, ign, name) {
				continue
			}
			if _, err := os.Lstat(filepath.Join(cfg.Root, filepath.FromSlash(name))); errors.Is(err, fs.ErrNotExist) {
				res.Deleted = append(res.Deleted, name)
				res.Scanned = append(res.Scanned, name)
				delete(res.cache.Entries, name)
			}
		}
	}

	sort.Strings(res.Scanned)
	sort.Strings(res.Cached)
	res.Duration = time.Since(started)
	log.Info("scan finished",
		"scanned", res.FilesScanned,
		"cached", len(res.Cached),
		"deleted", len(res.Deleted),
		"errors", len(res.FileErrors),
		"duration", res.Duration)
	return res, nil
}

func inScope(cfg Config, ign ignore.Matcher, rel string) bool {
	if len(cfg.Paths) > 0 {
		for _, p := range cfg.Paths {
			if filepath.ToSlash(filepath.Clean(p)) == rel {
				return true
			}
		}
		return false
	}
	if cfg.DefaultExcludes && underDefaultExcludedDir(rel) {
		return false
	}
	return Selected(cfg, ign, rel)
}

// SaveCache records the content hashes of this run under root. Call it only
// once the merged baseline has been written, so that a cache hit always
// implies the baseline reflects the cached content.
func (r *Result) SaveCache(root string) error {
	return cache.Save(root, r.cache)
}

// Records converts one file's findings into unclassified baseline records.
// The same secret reported twice on one line by the same detector is
// recorded once.
func Records(findings []types.Finding) []baseline.Record {
	type key struct {
		typ, hash string
		line      int
	}
	seen := map[key]bool{}
	out := make([]baseline.Record, 0, len(findings))
	for _, f := range findings {
		r := baseline.FromFinding(f)
		k := key{r.Type, r.HashedSecret, r.LineNumber}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// Baseline merges the result into prev under policy and returns the new
// baseline, which records plugins and filters as the configuration used.
func (r *Result) Baseline(prev *baseline.Baseline, plugins []baseline.PluginConfig, filters []baseline.FilterConfig, policy baseline.MissingPolicy) (*baseline.Baseline, error) {
	next := baseline.New(plugins, filters)
	for name, findings := range r.Findings {
		next.Results[name] = Records(findings)
	}
	merged, err := baseline.Merge(prev, next, r.Scanned, policy)
	if err != nil {
		return nil, fmt.Errorf("merge baseline: %w", err)
	}
	return merged, nil
}

// allowedByGlobs returns true if the given path is allowed by the include/exclude
// glob configuration. Include globs are comma-separated and, if provided, act as
// a positive filter. Exclude globs are subtracted last.
func allowedByGlobs(relPath string, cfg Config) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
