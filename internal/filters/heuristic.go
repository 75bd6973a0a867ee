package filters

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	SequentialID     = "heuristic.is_sequential_string"
	UUIDID           = "heuristic.is_potential_uuid"
	LikelyIDID       = "heuristic.is_likely_id_string"
	TemplatedID      = "heuristic.is_templated_secret"
	DollarPrefixedID = "heuristic.is_prefixed_with_dollar_sign"
	IndirectRefID    = "heuristic.is_indirect_reference"
	NotAlnumID       = "heuristic.is_not_alphanumeric_string"
	LockFileID       = "heuristic.is_lock_file"
)

// heuristic is a stateless predicate filter.
type heuristic struct {
	id string
	fn func(c Candidate) bool
}

func (h heuristic) ID() string { return h.id }

func (h heuristic) ShouldExclude(c Candidate) (bool, error) { return h.fn(c), nil }

func heuristics() []heuristic {
	return []heuristic{
		{SequentialID, func(c Candidate) bool { return IsSequential(c.Secret) }},
		{UUIDID, func(c Candidate) bool { return IsPotentialUUID(c.Secret) }},
		{LikelyIDID, func(c Candidate) bool { return IsLikelyID(c.Secret, c.Line) }},
		{TemplatedID, func(c Candidate) bool { return IsTemplated(c.Secret) }},
		{DollarPrefixedID, func(c Candidate) bool { return strings.HasPrefix(c.Secret, "$") }},
		{IndirectRefID, func(c Candidate) bool { return reIndirect.MatchString(c.Secret) }},
		{NotAlnumID, func(c Candidate) bool { return !reAlnum.MatchString(c.Secret) }},
		{LockFileID, func(c Candidate) bool { return lockFiles[filepath.Base(c.Filename)] }},
	}
}

const (
	upper  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits = "0123456789"
	hexUp  = "0123456789ABCDEFABCDEF"
)

// compared after upper-casing the candidate
var sequences = []string{
	upper + upper + digits + "+/",
	digits + upper + upper + "+/",
	hexUp + hexUp,
	upper + "=/",
}

// IsSequential reports whether s is a run taken from one of the fixed
// alphabet, digit, hex or base64 sequences, ignoring case.
func IsSequential(s string) bool {
	u := strings.ToUpper(s)
	for _, seq := range sequences {
		if strings.Contains(seq, u) {
			return true
		}
	}
	return false
}

var reUUID = regexp.MustCompile(`(?i)[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`)

// IsPotentialUUID reports whether s contains a well-formed UUID.
func IsPotentialUUID(s string) bool {
	for _, m := range reUUID.FindAllString(s, -1) {
		if _, err := uuid.Parse(m); err == nil {
			return true
		}
	}
	return false
}

var reIDField = regexp.MustCompile(`(?i)(^(id|myid|userid)|_id)s?[^a-z0-9]`)

// IsLikelyID reports whether the part of line before secret names an id
// field, e.g. user_id = "..." or id: "...".
func IsLikelyID(secret, line string) bool {
	i := strings.Index(line, secret)
	if i < 0 {
		return false
	}
	return reIDField.MatchString(line[:i])
}

// IsTemplated reports values like {token}, <password> or ${SECRET}.
func IsTemplated(s string) bool {
	if len(s) < 2 {
		return false
	}
	switch {
	case s[0] == '{' && s[len(s)-1] == '}':
		return true
	case s[0] == '<' && s[len(s)-1] == '>':
		return true
	case strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}"):
		return true
	}
	return false
}

var (
	// secret = get_secret(...) or secrets["db"]
	reIndirect = regexp.MustCompile(`^[\w.-]+[\[(].*[\])]$`)
	reAlnum    = regexp.MustCompile(`[A-Za-z0-9]`)
)

var lockFiles = map[string]bool{
	"Cargo.lock":        true,
	"Gemfile.lock":      true,
	"Pipfile.lock":      true,
	"composer.lock":     true,
	"go.sum":            true,
	"package-lock.json": true,
	"pnpm-lock.yaml":    true,
	"poetry.lock":       true,
	"yarn.lock":         true,
}
