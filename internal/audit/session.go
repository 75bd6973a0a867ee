package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/redactyl/baseliner/internal/baseline"
)

// Mode selects what an audit run does with its input.
type Mode string

const (
	ModeLabel Mode = "label"
	ModeDiff  Mode = "diff"
	ModeStats Mode = "stats"
)

// Action is one reviewer decision on the item under the cursor.
type Action int

const (
	Skip Action = iota
	LabelSecret
	LabelFalsePositive
	Back
	Quit
)

func (a Action) String() string {
	switch a {
	case Skip:
		return "skip"
	case LabelSecret:
		return "secret"
	case LabelFalsePositive:
		return "false_positive"
	case Back:
		return "back"
	case Quit:
		return "quit"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ErrReadOnly is returned when a labelling action reaches a session that
// only navigates.
var ErrReadOnly = errors.New("audit: session is read-only")

// Saver persists the baseline after every label.
type Saver interface {
	Save(b *baseline.Baseline) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(*baseline.Baseline) error

func (f SaverFunc) Save(b *baseline.Baseline) error { return f(b) }

// SaveTo returns a Saver writing to path.
func SaveTo(path string) Saver {
	return SaverFunc(func(b *baseline.Baseline) error { return baseline.Save(path, b) })
}

// View is what a prompter shows for the current record.
type View struct {
	Record      *baseline.Record
	Index       int
	Total       int
	CanStepBack bool
}

// Prompter asks a reviewer for the next action. Implementations block until
// the reviewer answers.
type Prompter interface {
	Prompt(ctx context.Context, v View) (Action, error)
}

// SessionOption configures a label session.
type SessionOption func(*Session)

// WithAll reviews every present record instead of only unclassified ones.
func WithAll() SessionOption {
	return func(s *Session) { s.all = true }
}

// Session is the label-mode state machine. It is single-threaded: the
// reviewer drives every step and nothing advances on its own.
type Session struct {
	b       *baseline.Baseline
	saver   Saver
	all     bool
	it      *Iterator[*baseline.Record]
	cur     *baseline.Record
	labeled int
	quit    bool
}

// NewSession prepares a review over b. The set of records is fixed when the
// session is created; labelling does not remove a record from it.
func NewSession(b *baseline.Baseline, saver Saver, opts ...SessionOption) *Session {
	s := &Session{b: b, saver: saver}
	for _, o := range opts {
		o(s)
	}
	var items []*baseline.Record
	if s.all {
		for _, r := range b.Flatten() {
			if !r.IsMissing {
				items = append(items, r)
			}
		}
	} else {
		items = b.Pending()
	}
	s.it = NewIterator(items)
	return s
}

// Start moves to the first record. It returns ErrDone when there is nothing
// to review.
func (s *Session) Start() (*baseline.Record, error) {
	if s.it.Index() >= 0 {
		return s.cur, nil
	}
	return s.advance()
}

func (s *Session) Current() *baseline.Record { return s.cur }

func (s *Session) CanStepBack() bool { return s.it.CanStepBack() }

// Labeled is the number of label actions applied so far.
func (s *Session) Labeled() int { return s.labeled }

// Quitted reports whether the session ended through Quit.
func (s *Session) Quitted() bool { return s.quit }

// View describes the current record for a prompter.
func (s *Session) View() View {
	return View{Record: s.cur, Index: s.it.Index(), Total: s.it.Len(), CanStepBack: s.CanStepBack()}
}

// Apply performs a on the current record and moves the cursor. It returns
// the new current record, ErrDone when the review is over (finished or
// quit) or ErrExhausted when a back-step was requested at the first record,
// in which case the cursor stays on that record.
func (s *Session) Apply(a Action) (*baseline.Record, error) {
	if s.cur == nil {
		return nil, ErrDone
	}
	switch a {
	case LabelSecret, LabelFalsePositive:
		c := baseline.Secret
		if a == LabelFalsePositive {
			c = baseline.FalsePositive
		}
		prev := s.cur.Classification
		s.cur.Classification = c
		if err := s.save(); err != nil {
			s.cur.Classification = prev
			return s.cur, err
		}
		s.labeled++
	case Skip:
	case Back:
		s.it.StepBack()
	case Quit:
		s.quit = true
		s.cur = nil
		if err := s.save(); err != nil {
			return nil, err
		}
		return nil, ErrDone
	default:
		return s.cur, fmt.Errorf("audit: unknown action %v", a)
	}
	return s.advance()
}

func (s *Session) advance() (*baseline.Record, error) {
	r, err := s.it.Next()
	switch {
	case errors.Is(err, ErrExhausted):
		// back at the first record: stay on it
		s.cur, _ = s.it.Next()
		return s.cur, ErrExhausted
	case err != nil:
		s.cur = nil
		return nil, err
	}
	s.cur = r
	return r, nil
}

func (s *Session) save() error {
	if s.saver == nil {
		return nil
	}
	if err := s.saver.Save(s.b); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	return nil
}

// Run drives the session with p until the review finishes, the reviewer
// quits or ctx is cancelled.
func (s *Session) Run(ctx context.Context, p Prompter) error {
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
		a, err := p.Prompt(ctx, s.View())
		if err != nil {
			return err
		}
		_, err = s.Apply(a)
		switch {
		case err == nil, errors.Is(err, ErrExhausted):
		case errors.Is(err, ErrDone):
			return nil
		default:
			return err
		}
	}
}
