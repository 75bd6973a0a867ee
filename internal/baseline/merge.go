package baseline

import (
	"errors"
	"fmt"
)

// MissingPolicy decides what happens to records of a rescanned file that
// the new scan no longer reports.
type MissingPolicy string

const (
	// MissingDrop removes records that were not found again.
	MissingDrop MissingPolicy = "drop"
	// MissingRetain keeps them with IsMissing set.
	MissingRetain MissingPolicy = "retain"
)

// ErrMissingPolicy is returned for an empty or unknown policy. There is no
// implicit default.
var ErrMissingPolicy = errors.New("missing-record policy must be one of: drop, retain")

// ParseMissingPolicy validates s.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(s); p {
	case MissingDrop, MissingRetain:
		return p, nil
	}
	return "", fmt.Errorf("%w (got %q)", ErrMissingPolicy, s)
}

// Merge folds the results of a fresh scan into the previous baseline and
// returns next with merged results.
//
// Only files listed in scanned are touched; every other file keeps its
// previous records verbatim. For a scanned file, a fresh record inherits the
// classification of a previous record with the same identity, preferring
// one on the same line. Previous records left unmatched are dropped or kept
// with IsMissing depending on policy.
func Merge(prev, next *Baseline, scanned []string, policy MissingPolicy) (*Baseline, error) {
	if _, err := ParseMissingPolicy(string(policy)); err != nil {
		return nil, err
	}
	if next.Results == nil {
		next.Results = map[string][]Record{}
	}
	if prev == nil {
		for name := range next.Results {
			sortRecords(next.Results[name])
		}
		return next, nil
	}
	inScope := make(map[string]bool, len(scanned))
	for _, f := range scanned {
		inScope[f] = true
	}
	for name, rs := range prev.Results {
		if !inScope[name] {
			next.Results[name] = append([]Record(nil), rs...)
		}
	}
	for name := range inScope {
		merged := mergeFile(prev.Results[name], next.Results[name], policy)
		if len(merged) == 0 {
			delete(next.Results, name)
			continue
		}
		next.Results[name] = merged
	}
	return next, nil
}

func mergeFile(old, fresh []Record, policy MissingPolicy) []Record {
	used := make([]bool, len(old))
	out := make([]Record, 0, len(fresh))
	for _, r := range fresh {
		r.IsMissing = false
		if i := matchRecord(old, used, r); i >= 0 {
			used[i] = true
			if old[i].Classification.Labeled() {
				r.Classification = old[i].Classification
			}
		}
		if r.Classification == "" {
			r.Classification = Unclassified
		}
		out = append(out, r)
	}
	if policy == MissingRetain {
		for i, r := range old {
			if !used[i] {
				r.IsMissing = true
				out = append(out, r)
			}
		}
	}
	sortRecords(out)
	return out
}

// matchRecord finds an unused record in old with r's identity, preferring
// the same line.
func matchRecord(old []Record, used []bool, r Record) int {
	id := r.Identity()
	best := -1
	for i, o := range old {
		if used[i] || o.Identity() != id {
			continue
		}
		if o.LineNumber == r.LineNumber {
			return i
		}
		if best < 0 {
			best = i
		}
	}
	return best
}
