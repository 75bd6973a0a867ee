// Package filters implements the chain of predicates that veto candidate
// findings before they become baseline records.
package filters

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redactyl/baseliner/internal/detectors"
)

var (
	// ErrUnknownFilter is returned for an identifier that is not registered.
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrInvalidParams is returned when a filter cannot accept its parameters.
	ErrInvalidParams = errors.New("invalid filter parameters")
)

// heuristicPrefix marks filters that detectors may opt out of through
// detectors.HeuristicExempt.
const heuristicPrefix = "heuristic."

// Candidate is an unconfirmed finding handed to each filter.
type Candidate struct {
	Secret   string
	Line     string // source line, empty when unknown
	Filename string
	Detector detectors.Detector
}

// Filter decides whether a candidate is a false positive. An error means the
// filter could not decide; callers must not treat it as either answer.
type Filter interface {
	ID() string
	ShouldExclude(c Candidate) (bool, error)
}

// Initializer is implemented by filters that need one-time setup from their
// configured parameters before the scan starts.
type Initializer interface {
	Initialize(params map[string]any) error
}

// Parameterized filters report the parameters recorded in the baseline,
// including anything computed during initialization such as data file hashes.
type Parameterized interface {
	Params() map[string]any
}

// ParamsOf returns what f records in the baseline.
func ParamsOf(f Filter) map[string]any {
	if p, ok := f.(Parameterized); ok {
		return p.Params()
	}
	return map[string]any{}
}

// Chain runs filters in order; the first one that excludes a candidate wins.
type Chain struct {
	filters []Filter
}

func NewChain(fs ...Filter) *Chain {
	return &Chain{filters: fs}
}

func (c *Chain) Filters() []Filter {
	if c == nil {
		return nil
	}
	return c.filters
}

// Exclude reports whether any filter vetoes cand and which one did.
func (c *Chain) Exclude(cand Candidate) (bool, string, error) {
	if c == nil {
		return false, "", nil
	}
	exempt := cand.Detector != nil && detectors.IsHeuristicExempt(cand.Detector)
	for _, f := range c.filters {
		if exempt && strings.HasPrefix(f.ID(), heuristicPrefix) {
			continue
		}
		ok, err := f.ShouldExclude(cand)
		if err != nil {
			return false, f.ID(), fmt.Errorf("filter %s: %w", f.ID(), err)
		}
		if ok {
			return true, f.ID(), nil
		}
	}
	return false, "", nil
}

// Config names a filter and its parameters as stored in a baseline.
type Config struct {
	ID     string
	Params map[string]any
}

// Factory returns a fresh, uninitialized filter bound to a scan session.
type Factory func(s *Session) Filter

// Registry maps stable filter identifiers to constructors.
type Registry struct {
	entries map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Factory)}
}

// Default returns a registry with every built-in filter.
func Default() *Registry {
	r := NewRegistry()
	for _, h := range heuristics() {
		r.Register(h.id, func(*Session) Filter { return h })
	}
	r.Register(WordlistID, func(s *Session) Filter { return &Wordlist{session: s} })
	for _, id := range []string{RegexLineID, RegexFileID, RegexSecretID} {
		r.Register(id, func(*Session) Filter { return &Regex{id: id} })
	}
	return r
}

func (r *Registry) Register(id string, f Factory) {
	r.entries[id] = f
}

func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New constructs and initializes the filter registered under id.
func (r *Registry) New(id string, params map[string]any, s *Session) (Filter, error) {
	fac, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, id)
	}
	f := fac(s)
	if in, ok := f.(Initializer); ok {
		if err := in.Initialize(params); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", id, err)
		}
	}
	return f, nil
}

// Build constructs a chain from configs in order. Any unknown identifier or
// initialization failure aborts the whole build.
func (r *Registry) Build(cfgs []Config, s *Session) (*Chain, error) {
	fs := make([]Filter, 0, len(cfgs))
	for _, c := range cfgs {
		f, err := r.New(c.ID, c.Params, s)
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	return NewChain(fs...), nil
}

// DefaultConfigs lists the filters applied when nothing is configured.
func DefaultConfigs() []Config {
	var out []Config
	for _, h := range heuristics() {
		out = append(out, Config{ID: h.id})
	}
	return out
}
