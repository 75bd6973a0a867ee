package audit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/redactyl/baseliner/internal/baseline"
)

// ContextFunc returns source lines around a record for display. It may
// return nil when the file is gone.
type ContextFunc func(r *baseline.Record) []string

// LinePrompter is the non-interactive-terminal prompter: one question per
// record on w, one answer per line from r. End of input quits.
type LinePrompter struct {
	in      *bufio.Reader
	out     io.Writer
	context ContextFunc
}

func NewLinePrompter(r io.Reader, w io.Writer, lines ContextFunc) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(r), out: w, context: lines}
}

func (p *LinePrompter) Prompt(ctx context.Context, v View) (Action, error) {
	r := v.Record
	fmt.Fprintf(p.out, "\n[%d/%d] %s:%d  %s  (%s)\n", v.Index+1, v.Total, r.Filename, r.LineNumber, r.Type, r.Classification)
	p.printContext(r)
	choices := "(y)es, (n)o, (s)kip"
	if v.CanStepBack {
		choices += ", (b)ack"
	}
	choices += ", (q)uit"
	return p.ask(ctx, "Is this a secret? "+choices+": ", v.CanStepBack, true)
}

func (p *LinePrompter) PromptDiff(ctx context.Context, v DiffView) (Action, error) {
	e := v.Entry
	r := e.Record()
	fmt.Fprintf(p.out, "\n[%d/%d] %s  %s:%d  %s\n", v.Index+1, v.Total, e.Partition, r.Filename, r.LineNumber, r.Type)
	switch e.Partition {
	case Changed:
		fmt.Fprintf(p.out, "  %s -> %s\n", e.A.Classification, e.B.Classification)
	default:
		fmt.Fprintf(p.out, "  %s\n", r.Classification)
	}
	p.printContext(r)
	choices := "(s)kip"
	if v.CanStepBack {
		choices += ", (b)ack"
	}
	choices += ", (q)uit"
	return p.ask(ctx, "Next? "+choices+": ", v.CanStepBack, false)
}

func (p *LinePrompter) printContext(r *baseline.Record) {
	if p.context == nil {
		return
	}
	lines := p.context(r)
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(p.out, strings.Repeat("-", 40))
	for _, l := range lines {
		fmt.Fprintln(p.out, l)
	}
	fmt.Fprintln(p.out, strings.Repeat("-", 40))
}

func (p *LinePrompter) ask(ctx context.Context, question string, canBack, labels bool) (Action, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Quit, err
		}
		fmt.Fprint(p.out, question)
		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Quit, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "" && errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return Quit, nil
		}
		a, ok := parseAnswer(answer)
		switch {
		case !ok:
		case a == Back && !canBack:
		case !labels && (a == LabelSecret || a == LabelFalsePositive):
		default:
			return a, nil
		}
		if errors.Is(err, io.EOF) {
			return Quit, nil
		}
		fmt.Fprintln(p.out, "Invalid answer.")
	}
}

func parseAnswer(s string) (Action, bool) {
	switch s {
	case "y", "yes":
		return LabelSecret, true
	case "n", "no":
		return LabelFalsePositive, true
	case "s", "skip":
		return Skip, true
	case "b", "back":
		return Back, true
	case "q", "quit":
		return Quit, true
	}
	return Skip, false
}
