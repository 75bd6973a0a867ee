package detectors

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/redactyl/baseliner/internal/linemap"
	"github.com/redactyl/baseliner/internal/pragma"
	"github.com/redactyl/baseliner/internal/types"
)

const (
	HexEntropyType    = "HexHighEntropyString"
	Base64EntropyType = "Base64HighEntropyString"
)

// Charset parameterizes an entropy detector: which symbols form a candidate,
// how the raw score is adjusted and how binary payloads are rendered as text.
type Charset struct {
	Type         string
	Symbols      string
	DefaultLimit float64
	// Adjust rewrites the raw Shannon score before it is compared with the
	// limit. Nil leaves the score unchanged.
	Adjust func(s string, h float64) float64
	Codec  Codec
}

var (
	HexCharset = Charset{
		Type:         HexEntropyType,
		Symbols:      "0123456789abcdefABCDEF",
		DefaultLimit: 3.0,
		Adjust:       numericPenalty,
		Codec:        HexCodec{},
	}
	Base64Charset = Charset{
		Type:         Base64EntropyType,
		Symbols:      "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/-_=",
		DefaultLimit: 4.5,
		Codec:        Base64Codec{},
	}
)

// Entropy returns the adjusted score of s under the charset.
func (c Charset) Entropy(s string) float64 {
	h := Shannon(s, c.Symbols)
	if c.Adjust != nil {
		h = c.Adjust(s, h)
	}
	return h
}

// Shannon computes -sum(p*log2(p)) over the distinct symbols that occur in s.
// Characters of s outside symbols contribute nothing.
func Shannon(s, symbols string) float64 {
	if s == "" {
		return 0
	}
	n := float64(len(s))
	seen := make(map[rune]bool, len(symbols))
	h := 0.0
	for _, r := range symbols {
		if seen[r] {
			continue
		}
		seen[r] = true
		k := strings.Count(s, string(r))
		if k == 0 {
			continue
		}
		p := float64(k) / n
		h -= p * math.Log2(p)
	}
	return h
}

// numericPenalty lowers the score of digit-only strings so long numeric
// identifiers are not mistaken for hex secrets.
func numericPenalty(s string, h float64) float64 {
	if len(s) <= 1 {
		return h
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return h
		}
	}
	return h - 1.2/math.Log2(float64(len(s)))
}

// EntropyDetector flags charset-constrained strings whose entropy exceeds a
// limit.
type EntropyDetector struct {
	charset Charset
	limit   float64
	exclude *regexp.Regexp

	quoted   *regexp.Regexp
	unquoted *regexp.Regexp
	exact    *regexp.Regexp
}

// NewEntropyDetector validates the limit and compiles the extraction patterns
// for every Mode up front.
func NewEntropyDetector(cs Charset, limit float64) (*EntropyDetector, error) {
	if math.IsNaN(limit) || limit < 0 || limit > 8 {
		return nil, fmt.Errorf("%w: entropy limit %v outside [0, 8]", ErrInvalidConfig, limit)
	}
	if cs.Symbols == "" {
		return nil, fmt.Errorf("%w: empty charset", ErrInvalidConfig)
	}
	class := "[" + classEscape(cs.Symbols) + "]+"
	return &EntropyDetector{
		charset:  cs,
		limit:    limit,
		quoted:   regexp.MustCompile(`"(` + class + `)"|'(` + class + `)'`),
		unquoted: regexp.MustCompile(`(` + class + `)`),
		exact:    regexp.MustCompile(`^(` + class + `)$`),
	}, nil
}

func entropyFactory(cs Charset) Factory {
	return func(params map[string]any, opts Options) (Detector, error) {
		limit, err := floatParam(params, "limit", cs.DefaultLimit)
		if err != nil {
			return nil, err
		}
		d, err := NewEntropyDetector(cs, limit)
		if err != nil {
			return nil, err
		}
		d.exclude = opts.ExcludeLines
		return d, nil
	}
}

func classEscape(symbols string) string {
	var b strings.Builder
	for _, r := range symbols {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *EntropyDetector) Type() string { return d.charset.Type }
func (d *EntropyDetector) Params() map[string]any {
	return map[string]any{"limit": d.limit}
}

func (d *EntropyDetector) pattern(mode Mode) *regexp.Regexp {
	switch mode {
	case ModeUnquoted:
		return d.unquoted
	case ModeExact:
		return d.exact
	}
	return d.quoted
}

// AnalyzeLine extracts candidates according to mode and keeps those above the
// limit.
func (d *EntropyDetector) AnalyzeLine(line string, lineNumber int, filename string, mode Mode) []types.Finding {
	if pragma.Allowlisted(line) {
		return nil
	}
	var out []types.Finding
	for _, m := range d.pattern(mode).FindAllStringSubmatch(line, -1) {
		s := firstGroup(m)
		if s == "" {
			continue
		}
		if d.charset.Entropy(s) > d.limit {
			out = append(out, types.Finding{
				Path: filename, Line: lineNumber, Detector: d.Type(), Secret: s, Context: line,
			})
		}
	}
	return out
}

// Analyze tries, in order: ini, yaml, plain lines and ini with a synthetic
// section header. The first attempt that parses and produces a finding wins.
func (d *EntropyDetector) Analyze(filename string, data []byte) []types.Finding {
	fs, _ := d.AnalyzeWithVeto(filename, data, nil)
	return fs
}

// AnalyzeWithVeto is Analyze with veto applied to each attempt before it is
// judged, so an attempt whose candidates are all vetoed falls through.
func (d *EntropyDetector) AnalyzeWithVeto(filename string, data []byte, veto Veto) ([]types.Finding, error) {
	attempts := []func() ([]types.Finding, error){
		func() ([]types.Finding, error) { return d.analyzeINI(filename, data, false) },
		func() ([]types.Finding, error) { return d.analyzeYAML(filename, data) },
		func() ([]types.Finding, error) { return d.analyzePlain(filename, data), nil },
		func() ([]types.Finding, error) { return d.analyzeINI(filename, data, true) },
	}
	for _, try := range attempts {
		fs, err := try()
		if err != nil {
			// format mismatch; move on to the next representation
			continue
		}
		fs, err = ApplyVeto(fs, veto)
		if err != nil {
			return nil, err
		}
		if len(fs) > 0 {
			return fs, nil
		}
	}
	return nil, nil
}

func (d *EntropyDetector) analyzeINI(filename string, data []byte, header bool) ([]types.Finding, error) {
	opts := []linemap.Option{linemap.WithExcludeLines(d.exclude)}
	if header {
		opts = append(opts, linemap.WithSyntheticHeader())
	}
	values, err := linemap.ParseINI(data, opts...)
	if err != nil {
		return nil, err
	}
	var out []types.Finding
	for _, v := range values {
		if v.Allowlisted {
			continue
		}
		out = append(out, withContext(d.AnalyzeLine(v.Value, v.Line, filename, ModeUnquoted), v.Raw)...)
	}
	return out, nil
}

func (d *EntropyDetector) analyzeYAML(filename string, data []byte) ([]types.Finding, error) {
	values, err := linemap.ParseYAML(data)
	if err != nil {
		return nil, err
	}
	var out []types.Finding
	for _, v := range values {
		if v.Allowlisted || excluded(d.exclude, v.Raw) {
			continue
		}
		s := v.Value
		if v.Binary {
			if d.charset.Codec == nil {
				continue
			}
			s = d.charset.Codec.Encode(v.Bytes)
		}
		out = append(out, withContext(d.AnalyzeLine(s, v.Line, filename, ModeExact), v.Raw)...)
	}
	return out, nil
}

func (d *EntropyDetector) analyzePlain(filename string, data []byte) []types.Finding {
	var out []types.Finding
	scanLines(data, d.exclude, func(line string, n int) {
		out = append(out, d.AnalyzeLine(line, n, filename, ModeQuoted)...)
	})
	return out
}

// withContext points findings produced from an isolated value back at the
// source line it came from.
func withContext(fs []types.Finding, raw string) []types.Finding {
	if raw == "" {
		return fs
	}
	for i := range fs {
		fs[i].Context = raw
	}
	return fs
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
