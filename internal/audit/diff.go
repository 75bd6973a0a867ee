package audit

import (
	"context"
	"errors"
	"sort"

	"github.com/redactyl/baseliner/internal/baseline"
)

// Partition names one part of a baseline comparison.
type Partition string

const (
	OnlyInA Partition = "only_in_a"
	OnlyInB Partition = "only_in_b"
	Changed Partition = "changed"
)

// Pair is a record present in both baselines with a different
// classification.
type Pair struct {
	A, B *baseline.Record
}

// Diff is the structural difference between two baselines. Classification
// is ignored when matching; it only decides membership of Changed.
type Diff struct {
	OnlyInA []*baseline.Record
	OnlyInB []*baseline.Record
	Changed []Pair
}

func (d Diff) Empty() bool {
	return len(d.OnlyInA) == 0 && len(d.OnlyInB) == 0 && len(d.Changed) == 0
}

// Compare matches the records of a and b by (filename, type, hash). A
// secret repeated on several lines is matched occurrence by occurrence in
// line order; surplus occurrences fall into the only-in partitions.
func Compare(a, b *baseline.Baseline) Diff {
	left := groupByIdentity(a)
	right := groupByIdentity(b)

	var d Diff
	for id, ls := range left {
		rs := right[id]
		n := min(len(ls), len(rs))
		for i := 0; i < n; i++ {
			if ls[i].Classification != rs[i].Classification {
				d.Changed = append(d.Changed, Pair{A: ls[i], B: rs[i]})
			}
		}
		d.OnlyInA = append(d.OnlyInA, ls[n:]...)
	}
	for id, rs := range right {
		n := min(len(left[id]), len(rs))
		d.OnlyInB = append(d.OnlyInB, rs[n:]...)
	}
	sortByPosition(d.OnlyInA)
	sortByPosition(d.OnlyInB)
	sort.SliceStable(d.Changed, func(i, j int) bool { return less(d.Changed[i].A, d.Changed[j].A) })
	return d
}

func groupByIdentity(b *baseline.Baseline) map[baseline.Identity][]*baseline.Record {
	out := map[baseline.Identity][]*baseline.Record{}
	if b == nil {
		return out
	}
	for _, r := range b.Flatten() {
		out[r.Identity()] = append(out[r.Identity()], r)
	}
	return out
}

func less(a, b *baseline.Record) bool {
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	if a.LineNumber != b.LineNumber {
		return a.LineNumber < b.LineNumber
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.HashedSecret < b.HashedSecret
}

func sortByPosition(rs []*baseline.Record) {
	sort.SliceStable(rs, func(i, j int) bool { return less(rs[i], rs[j]) })
}

// Entry is one item of a diff review.
type Entry struct {
	Partition Partition
	A         *baseline.Record // nil for OnlyInB
	B         *baseline.Record // nil for OnlyInA
}

// Record returns whichever side is present, preferring A.
func (e Entry) Record() *baseline.Record {
	if e.A != nil {
		return e.A
	}
	return e.B
}

// Entries lists the partitions in order: only-in-A, only-in-B, changed.
func (d Diff) Entries() []Entry {
	out := make([]Entry, 0, len(d.OnlyInA)+len(d.OnlyInB)+len(d.Changed))
	for _, r := range d.OnlyInA {
		out = append(out, Entry{Partition: OnlyInA, A: r})
	}
	for _, r := range d.OnlyInB {
		out = append(out, Entry{Partition: OnlyInB, B: r})
	}
	for _, p := range d.Changed {
		out = append(out, Entry{Partition: Changed, A: p.A, B: p.B})
	}
	return out
}

// DiffView is what a prompter shows for the current diff entry.
type DiffView struct {
	Entry       Entry
	Index       int
	Total       int
	CanStepBack bool
}

// DiffPrompter asks a reviewer how to move through a diff.
type DiffPrompter interface {
	PromptDiff(ctx context.Context, v DiffView) (Action, error)
}

// DiffSession reviews a Diff with the same navigation rules as Session.
// Label actions are rejected with ErrReadOnly.
type DiffSession struct {
	it  *Iterator[Entry]
	cur *Entry
}

func NewDiffSession(d Diff) *DiffSession {
	return &DiffSession{it: NewIterator(d.Entries())}
}

// Start moves to the first entry, or returns ErrDone for an empty diff.
func (s *DiffSession) Start() (Entry, error) {
	if s.it.Index() >= 0 && s.cur != nil {
		return *s.cur, nil
	}
	return s.advance()
}

// Current returns the entry under the cursor and whether there is one.
func (s *DiffSession) Current() (Entry, bool) {
	if s.cur == nil {
		return Entry{}, false
	}
	return *s.cur, true
}

func (s *DiffSession) CanStepBack() bool { return s.it.CanStepBack() }

func (s *DiffSession) View() DiffView {
	v := DiffView{Index: s.it.Index(), Total: s.it.Len(), CanStepBack: s.CanStepBack()}
	if s.cur != nil {
		v.Entry = *s.cur
	}
	return v
}

// Apply moves the cursor. Results follow Session.Apply.
func (s *DiffSession) Apply(a Action) (Entry, error) {
	if s.cur == nil {
		return Entry{}, ErrDone
	}
	switch a {
	case Skip:
	case Back:
		s.it.StepBack()
	case Quit:
		s.cur = nil
		return Entry{}, ErrDone
	default:
		return *s.cur, ErrReadOnly
	}
	return s.advance()
}

func (s *DiffSession) advance() (Entry, error) {
	e, err := s.it.Next()
	switch {
	case errors.Is(err, ErrExhausted):
		e, _ = s.it.Next()
		s.cur = &e
		return e, ErrExhausted
	case err != nil:
		s.cur = nil
		return Entry{}, err
	}
	s.cur = &e
	return e, nil
}

// Run drives the review with p until it finishes or the reviewer quits.
// Label answers are ignored.
func (s *DiffSession) Run(ctx context.Context, p DiffPrompter) error {
	if _, err := s.Start(); err != nil {
		if errors.Is(err, ErrDone) {
			return nil
		}
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, err := p.PromptDiff(ctx, s.View())
		if err != nil {
			return err
		}
		_, err = s.Apply(a)
		switch {
		case err == nil, errors.Is(err, ErrExhausted), errors.Is(err, ErrReadOnly):
		case errors.Is(err, ErrDone):
			return nil
		default:
			return err
		}
	}
}
