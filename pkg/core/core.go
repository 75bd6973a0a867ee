package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/redactyl/baseliner/internal/baseline"
	"github.com/redactyl/baseliner/internal/cache"
	"github.com/redactyl/baseliner/internal/detectors"
	"github.com/redactyl/baseliner/internal/engine"
	"github.com/redactyl/baseliner/internal/filters"
	"github.com/redactyl/baseliner/internal/report"
	"github.com/redactyl/baseliner/internal/scanner"
	"github.com/redactyl/baseliner/internal/types"
)

// Re-export selected internal types as a stable public API surface.
type (
	Config        = engine.Config
	Finding       = types.Finding
	Baseline      = baseline.Baseline
	Record        = baseline.Record
	Change        = baseline.Change
	MissingPolicy = baseline.MissingPolicy
	PluginConfig  = baseline.PluginConfig
	FilterConfig  = baseline.FilterConfig
)

const (
	MissingDrop   = baseline.MissingDrop
	MissingRetain = baseline.MissingRetain
)

// UpdateOptions describes one baseline refresh.
type UpdateOptions struct {
	// Scan selects the files. Scan.BaselineFile is derived from
	// BaselinePath when it lies under Scan.Root.
	Scan Config
	// BaselinePath is the baseline to merge into and later write. A missing
	// file starts a new baseline.
	BaselinePath string

	// Plugins and Filters override the configuration recorded in the
	// existing baseline. nil keeps the recorded configuration, or the
	// defaults for a new baseline.
	Plugins      []PluginConfig
	Filters      []FilterConfig
	ExcludeLines *regexp.Regexp
	Policy       MissingPolicy

	Detectors *detectors.Registry
	Registry  *filters.Registry
}

// UpdateResult is a merged but unwritten baseline.
type UpdateResult struct {
	Baseline *Baseline
	// Previous is nil when no baseline existed.
	Previous *Baseline
	// New holds records that were not in Previous.
	New []Record
	// Drift lists configuration differences between Previous and Baseline.
	Drift []Change
	Scan  *engine.Result

	path string
	root string
}

// Update scans the tree and merges the results into the existing baseline.
// Nothing is written; call Commit to persist.
func Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error) {
	if opts.BaselinePath == "" {
		return nil, errors.New("baseline path is required")
	}
	if _, err := baseline.ParseMissingPolicy(string(opts.Policy)); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(opts.Scan.Root)
	if err != nil {
		return nil, err
	}
	opts.Scan.Root = root
	log := opts.Scan.Logger
	if log == nil {
		log = slog.Default()
	}

	prev, err := baseline.Load(opts.BaselinePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		prev = nil
		log.Info("starting a new baseline", "path", opts.BaselinePath)
	case err != nil:
		return nil, err
	}

	plugins, fcs := opts.Plugins, opts.Filters
	if prev != nil {
		if plugins == nil {
			plugins = prev.PluginsUsed
		}
		if fcs == nil {
			fcs = prev.FiltersUsed
		}
	}
	session, err := filters.NewSession(0)
	if err != nil {
		return nil, err
	}
	p, err := scanner.New(scanner.Config{
		Plugins:      plugins,
		Filters:      fcs,
		ExcludeLines: opts.ExcludeLines,
		Detectors:    opts.Detectors,
		Registry:     opts.Registry,
		Session:      session,
	})
	if err != nil {
		return nil, fmt.Errorf("configure scanner: %w", err)
	}

	used := struct {
		Plugins []PluginConfig `json:"plugins"`
		Filters []FilterConfig `json:"filters"`
	}{p.PluginsUsed(), p.FiltersUsed()}
	opts.Scan.Fingerprint = cache.Fingerprint(used)
	if rel, ok := relativeTo(root, opts.BaselinePath); ok {
		opts.Scan.BaselineFile = rel
	}

	res, err := engine.Scan(ctx, opts.Scan, p, prev)
	if err != nil {
		return nil, err
	}
	next, err := res.Baseline(prev, used.Plugins, used.Filters, opts.Policy)
	if err != nil {
		return nil, err
	}
	u := &UpdateResult{
		Baseline: next,
		Previous: prev,
		New:      report.NewRecords(prev, next),
		Scan:     res,
		path:     opts.BaselinePath,
		root:     root,
	}
	if prev != nil {
		u.Drift = baseline.Drift(prev, next)
		for _, c := range u.Drift {
			log.Warn("configuration differs from baseline", "change", c.String())
		}
	}
	return u, nil
}

// Commit writes the baseline and then the incremental scan cache.
func (u *UpdateResult) Commit() error {
	if err := baseline.Save(u.path, u.Baseline); err != nil {
		return fmt.Errorf("write baseline: %w", err)
	}
	if err := u.Scan.SaveCache(u.root); err != nil {
		return fmt.Errorf("write scan cache: %w", err)
	}
	return nil
}

// Scan runs every registered detector and the default filters over the
// tree and returns the raw findings, without touching any baseline.
func Scan(ctx context.Context, cfg Config) ([]Finding, error) {
	p, err := scanner.New(scanner.Config{})
	if err != nil {
		return nil, err
	}
	res, err := engine.Scan(ctx, cfg, p, nil)
	if err != nil {
		return nil, err
	}
	var out []Finding
	for _, name := range res.Scanned {
		out = append(out, res.Findings[name]...)
	}
	return out, nil
}

// DetectorIDs returns the registered detector type tags.
func DetectorIDs() []string { return detectors.Default().Tags() }

// FilterIDs returns the registered filter identifiers.
func FilterIDs() []string { return filters.Default().IDs() }

func relativeTo(root, p string) (string, bool) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
