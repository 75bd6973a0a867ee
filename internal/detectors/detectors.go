package detectors

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/redactyl/baseliner/internal/pragma"
	"github.com/redactyl/baseliner/internal/types"
)

var (
	// ErrInvalidConfig is returned when a detector is constructed from
	// parameters it cannot accept.
	ErrInvalidConfig = errors.New("invalid detector configuration")
	// ErrUnknownType is returned by the registry for an unregistered type tag.
	ErrUnknownType = errors.New("unknown detector type")
)

// Mode selects how a line handed to AnalyzeLine is tokenized.
type Mode int

const (
	// ModeQuoted extracts quote-delimited substrings from a raw source line.
	ModeQuoted Mode = iota
	// ModeUnquoted treats the input as an isolated value and extracts every
	// run of charset symbols from it.
	ModeUnquoted
	// ModeExact requires the whole input to consist of charset symbols.
	ModeExact
)

func (m Mode) String() string {
	switch m {
	case ModeQuoted:
		return "quoted"
	case ModeUnquoted:
		return "unquoted"
	case ModeExact:
		return "exact"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Detector is one pluggable scanning strategy. Implementations are immutable
// after construction and safe for concurrent use across files.
type Detector interface {
	// Type is the stable tag recorded in baselines.
	Type() string
	// AnalyzeLine reports candidate findings on a single line or value.
	AnalyzeLine(line string, lineNumber int, filename string, mode Mode) []types.Finding
	// Analyze reports candidate findings for a whole file.
	Analyze(filename string, data []byte) []types.Finding
	// Params returns the parameters the detector was built with, in the
	// shape they are recorded in a baseline.
	Params() map[string]any
}

// Veto reports whether a candidate finding must be dropped. An error means
// the candidate could not be judged.
type Veto func(types.Finding) (bool, error)

// VetoAware is implemented by detectors that choose between several readings
// of a file. The veto runs inside each reading so that one whose candidates
// are all vetoed does not win over the next.
type VetoAware interface {
	AnalyzeWithVeto(filename string, data []byte, veto Veto) ([]types.Finding, error)
}

// ApplyVeto keeps the findings veto lets through. A nil veto keeps all.
func ApplyVeto(fs []types.Finding, veto Veto) ([]types.Finding, error) {
	if veto == nil {
		return fs, nil
	}
	var out []types.Finding
	for _, f := range fs {
		drop, err := veto(f)
		if err != nil {
			return nil, err
		}
		if !drop {
			out = append(out, f)
		}
	}
	return out, nil
}

// HeuristicExempt is implemented by detectors whose matches are fixed phrases
// rather than arbitrary strings, so generic heuristic filters must not veto
// them.
type HeuristicExempt interface {
	HeuristicExempt() bool
}

// IsHeuristicExempt reports whether d opts out of heuristic filters.
func IsHeuristicExempt(d Detector) bool {
	h, ok := d.(HeuristicExempt)
	return ok && h.HeuristicExempt()
}

// Options carries scan-wide settings shared by every detector built for a run.
type Options struct {
	// ExcludeLines drops any line it matches before detectors see it.
	ExcludeLines *regexp.Regexp
}

// Factory builds a detector from its recorded parameters.
type Factory func(params map[string]any, opts Options) (Detector, error)

// Registry maps stable type tags to detector constructors.
type Registry struct {
	entries map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Factory)}
}

// Default returns a registry populated with every built-in detector.
func Default() *Registry {
	r := NewRegistry()
	r.Register(HexEntropyType, entropyFactory(HexCharset))
	r.Register(Base64EntropyType, entropyFactory(Base64Charset))
	for _, s := range builtinSignatures() {
		r.Register(s.tag, func(_ map[string]any, opts Options) (Detector, error) {
			return s.withExclude(opts.ExcludeLines), nil
		})
	}
	return r
}

// Register adds or replaces the constructor for tag.
func (r *Registry) Register(tag string, f Factory) {
	r.entries[tag] = f
}

// New constructs the detector registered under tag.
func (r *Registry) New(tag string, params map[string]any, opts Options) (Detector, error) {
	f, ok := r.entries[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	d, err := f(params, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	return d, nil
}

// Tags lists registered type tags in sorted order.
func (r *Registry) Tags() []string {
	out := make([]string, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultParams returns the parameters each built-in is recorded with when a
// scan runs without explicit plugin configuration.
func DefaultParams(tag string) map[string]any {
	switch tag {
	case HexEntropyType:
		return map[string]any{"limit": HexCharset.DefaultLimit}
	case Base64EntropyType:
		return map[string]any{"limit": Base64Charset.DefaultLimit}
	}
	return map[string]any{}
}

// scanLines feeds every line of data that is not suppressed by an allow-list
// marker or the exclusion pattern to fn.
func scanLines(data []byte, exclude *regexp.Regexp, fn func(line string, n int)) {
	allowed := pragma.Lines(data)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		t := sc.Text()
		if allowed[n] || excluded(exclude, t) {
			continue
		}
		fn(strings.TrimRight(t, "\r"), n)
	}
}

func excluded(re *regexp.Regexp, line string) bool {
	return re != nil && re.MatchString(line)
}

func floatParam(params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidConfig, key, v)
}
