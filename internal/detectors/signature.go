package detectors

import (
	"regexp"

	"github.com/redactyl/baseliner/internal/pragma"
	"github.com/redactyl/baseliner/internal/types"
)

// SignatureDetector reports matches of a fixed set of compiled patterns. When
// a pattern has a capture group the first group is the secret, otherwise the
// whole match is.
type SignatureDetector struct {
	tag      string
	patterns []*regexp.Regexp
	// verify rejects pattern matches that do not have the expected structure.
	verify  func(string) bool
	exempt  bool
	exclude *regexp.Regexp
}

// NewSignatureDetector builds a detector for tag from patterns.
func NewSignatureDetector(tag string, patterns ...*regexp.Regexp) *SignatureDetector {
	return &SignatureDetector{tag: tag, patterns: patterns}
}

func (d *SignatureDetector) withExclude(re *regexp.Regexp) Detector {
	c := *d
	c.exclude = re
	return &c
}

func (d *SignatureDetector) Type() string           { return d.tag }
func (d *SignatureDetector) Params() map[string]any { return map[string]any{} }
func (d *SignatureDetector) HeuristicExempt() bool  { return d.exempt }

func (d *SignatureDetector) AnalyzeLine(line string, lineNumber int, filename string, _ Mode) []types.Finding {
	if pragma.Allowlisted(line) || excluded(d.exclude, line) {
		return nil
	}
	var out []types.Finding
	for _, re := range d.patterns {
		for _, m := range re.FindAllStringSubmatch(line, -1) {
			s := m[0]
			if len(m) > 1 {
				s = m[1]
			}
			if s == "" {
				continue
			}
			if d.verify != nil && !d.verify(s) {
				continue
			}
			out = append(out, types.Finding{
				Path: filename, Line: lineNumber, Detector: d.tag, Secret: s, Context: line,
			})
		}
	}
	return out
}

func (d *SignatureDetector) Analyze(filename string, data []byte) []types.Finding {
	var out []types.Finding
	scanLines(data, d.exclude, func(line string, n int) {
		out = append(out, d.AnalyzeLine(line, n, filename, ModeQuoted)...)
	})
	return out
}

func builtinSignatures() []*SignatureDetector {
	return []*SignatureDetector{
		AWSKeys(),
		BasicAuth(),
		PrivateKeyBlock(),
		SlackToken(),
		StripeSecret(),
		GitHubToken(),
		JWTToken(),
		Keyword(),
		SendGridAPIKey(),
		NPMToken(),
		Twilio(),
	}
}
