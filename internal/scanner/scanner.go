// Package scanner turns one file into filtered candidate findings: every
// configured detector runs over the content and each candidate passes the
// filter chain before it is reported.
package scanner

import (
	"fmt"
	"regexp"

	"github.com/redactyl/baseliner/internal/baseline"
	"github.com/redactyl/baseliner/internal/detectors"
	"github.com/redactyl/baseliner/internal/filters"
	"github.com/redactyl/baseliner/internal/types"
)

// Scanner defines the interface the engine drives once per file.
type Scanner interface {
	// Scan returns the findings for data read from path. An error means the
	// file could not be judged and none of its findings may be used.
	Scan(path string, data []byte) ([]types.Finding, error)
}

// Config selects detectors and filters for a run. Empty Plugins means every
// registered detector with default parameters; nil Filters means the default
// heuristics.
type Config struct {
	Plugins      []baseline.PluginConfig
	Filters      []baseline.FilterConfig
	ExcludeLines *regexp.Regexp

	Detectors *detectors.Registry
	Registry  *filters.Registry
	Session   *filters.Session
}

// Pipeline is the built Scanner. It is immutable and safe for concurrent
// use across files.
type Pipeline struct {
	detectors []detectors.Detector
	byType    map[string]detectors.Detector
	chain     *filters.Chain
}

// New builds every detector and filter named in cfg. Unknown identifiers and
// invalid parameters fail here, before any file is read.
func New(cfg Config) (*Pipeline, error) {
	dreg := cfg.Detectors
	if dreg == nil {
		dreg = detectors.Default()
	}
	freg := cfg.Registry
	if freg == nil {
		freg = filters.Default()
	}
	plugins := cfg.Plugins
	if len(plugins) == 0 {
		for _, tag := range dreg.Tags() {
			plugins = append(plugins, baseline.PluginConfig{Name: tag, Params: detectors.DefaultParams(tag)})
		}
	}

	p := &Pipeline{byType: map[string]detectors.Detector{}}
	opts := detectors.Options{ExcludeLines: cfg.ExcludeLines}
	for _, pc := range plugins {
		if _, dup := p.byType[pc.Name]; dup {
			return nil, fmt.Errorf("%w: %q configured twice", detectors.ErrInvalidConfig, pc.Name)
		}
		d, err := dreg.New(pc.Name, pc.Params, opts)
		if err != nil {
			return nil, err
		}
		p.detectors = append(p.detectors, d)
		p.byType[d.Type()] = d
	}

	var fcs []filters.Config
	if cfg.Filters == nil {
		fcs = filters.DefaultConfigs()
	} else {
		for _, fc := range cfg.Filters {
			fcs = append(fcs, filters.Config{ID: fc.Path, Params: fc.Params})
		}
	}
	chain, err := freg.Build(fcs, cfg.Session)
	if err != nil {
		return nil, err
	}
	p.chain = chain
	return p, nil
}

// Scan runs every detector over data and drops candidates the chain vetoes.
// A filter error fails the whole file.
func (p *Pipeline) Scan(path string, data []byte) ([]types.Finding, error) {
	var out []types.Finding
	for _, d := range p.detectors {
		veto := func(f types.Finding) (bool, error) {
			excluded, _, err := p.chain.Exclude(filters.Candidate{
				Secret:   f.Secret,
				Line:     f.Context,
				Filename: path,
				Detector: d,
			})
			if err != nil {
				return false, fmt.Errorf("%s:%d: %w", path, f.Line, err)
			}
			return excluded, nil
		}
		var (
			fs  []types.Finding
			err error
		)
		if va, ok := d.(detectors.VetoAware); ok {
			fs, err = va.AnalyzeWithVeto(path, data, veto)
		} else {
			fs, err = detectors.ApplyVeto(d.Analyze(path, data), veto)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, fs...)
	}
	return out, nil
}

// PluginsUsed is the detector configuration to record in a baseline.
func (p *Pipeline) PluginsUsed() []baseline.PluginConfig {
	out := make([]baseline.PluginConfig, 0, len(p.detectors))
	for _, d := range p.detectors {
		out = append(out, baseline.PluginConfig{Name: d.Type(), Params: d.Params()})
	}
	return out
}

// FiltersUsed is the filter configuration to record in a baseline,
// including values computed at initialization such as word list hashes.
func (p *Pipeline) FiltersUsed() []baseline.FilterConfig {
	fs := p.chain.Filters()
	out := make([]baseline.FilterConfig, 0, len(fs))
	for _, f := range fs {
		params := filters.ParamsOf(f)
		if len(params) == 0 {
			params = nil
		}
		out = append(out, baseline.FilterConfig{Path: f.ID(), Params: params})
	}
	return out
}
