package audit

import (
	"sort"

	"github.com/redactyl/baseliner/internal/baseline"
)

// Counts tallies records by classification. Missing records are counted in
// their classification and again in Missing.
type Counts struct {
	Secret        int `json:"secret"`
	FalsePositive int `json:"false_positive"`
	Unclassified  int `json:"unclassified"`
	Missing       int `json:"missing,omitempty"`
}

func (c Counts) Total() int { return c.Secret + c.FalsePositive + c.Unclassified }

func (c *Counts) add(r *baseline.Record) {
	switch r.Classification {
	case baseline.Secret:
		c.Secret++
	case baseline.FalsePositive:
		c.FalsePositive++
	default:
		c.Unclassified++
	}
	if r.IsMissing {
		c.Missing++
	}
}

// Summary is the read-only aggregation shown by stats mode.
type Summary struct {
	ByType  map[string]Counts `json:"by_type"`
	Overall Counts            `json:"overall"`
}

// Types returns the detector types in sorted order.
func (s Summary) Types() []string {
	out := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Stats aggregates b without modifying it.
func Stats(b *baseline.Baseline) Summary {
	s := Summary{ByType: map[string]Counts{}}
	for _, r := range b.Flatten() {
		c := s.ByType[r.Type]
		c.add(r)
		s.ByType[r.Type] = c
		s.Overall.add(r)
	}
	return s
}
