package report

import (
	"fmt"

	"github.com/redactyl/baseliner/internal/baseline"
)

// NewRecords returns the records of next that have no counterpart in prev.
// Identities are matched as a multiset, so a second occurrence of a known
// secret in the same file is new.
func NewRecords(prev, next *baseline.Baseline) []baseline.Record {
	known := map[baseline.Identity]int{}
	if prev != nil {
		for _, r := range prev.Flatten() {
			known[r.Identity()]++
		}
	}
	var out []baseline.Record
	for _, r := range next.Flatten() {
		if r.IsMissing {
			continue
		}
		id := r.Identity()
		if known[id] > 0 {
			known[id]--
			continue
		}
		out = append(out, *r)
	}
	return out
}

// FailOn selects which records make a CI run fail.
type FailOn string

const (
	FailOnNone         FailOn = "none"
	FailOnSecret       FailOn = "secret"
	FailOnUnclassified FailOn = "unclassified"
)

// ParseFailOn validates s. An empty string selects FailOnUnclassified.
func ParseFailOn(s string) (FailOn, error) {
	switch f := FailOn(s); f {
	case "":
		return FailOnUnclassified, nil
	case FailOnNone, FailOnSecret, FailOnUnclassified:
		return f, nil
	}
	return "", fmt.Errorf("invalid fail-on %q: want none, secret or unclassified", s)
}

// ShouldFail reports whether b holds records at or above the threshold.
// Records labelled secret always count; with FailOnUnclassified records
// awaiting review count too. Missing records never do.
func ShouldFail(b *baseline.Baseline, failOn FailOn) bool {
	if failOn == FailOnNone {
		return false
	}
	for _, r := range b.Flatten() {
		if r.IsMissing {
			continue
		}
		switch r.Classification {
		case baseline.Secret:
			return true
		case baseline.Unclassified:
			if failOn == FailOnUnclassified {
				return true
			}
		}
	}
	return false
}
