package audit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redactyl/baseliner/internal/baseline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterator_BackSteps(t *testing.T) {
	it := NewIterator([]int{0, 1, 2, 3, 4, 5})
	backAfter := map[int]bool{1: true, 4: true}
	seen := map[int]bool{}
	var got []int
	for {
		v, err := it.Next()
		if errors.Is(err, ErrDone) {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
		if backAfter[v] && !seen[v] {
			it.StepBack()
		}
		seen[v] = true
	}
	assert.Equal(t, []int{0, 1, 0, 1, 2, 3, 4, 3, 4, 5}, got)
	assert.Equal(t, 6, it.Index())

	_, err := it.Next()
	assert.ErrorIs(t, err, ErrDone, "done is sticky")
}

func TestIterator_Exhausted(t *testing.T) {
	it := NewIterator([]string{"a", "b"})
	assert.False(t, it.CanStepBack())

	it.StepBack()
	_, err := it.Next()
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, -1, it.Index())

	v, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.False(t, it.CanStepBack())

	for i := 0; i < 3; i++ {
		it.StepBack()
		_, err = it.Next()
		assert.ErrorIs(t, err, ErrExhausted)
		assert.Equal(t, -1, it.Index())
		v, err = it.Next()
		require.NoError(t, err)
		assert.Equal(t, "a", v)
	}

	v, _ = it.Next()
	assert.Equal(t, "b", v)
	assert.True(t, it.CanStepBack())
}

func rec(file, typ, secret string, line int, c baseline.Classification) baseline.Record {
	return baseline.Record{Type: typ, Filename: file, HashedSecret: baseline.HashSecret(secret), LineNumber: line, Classification: c}
}

func pendingBaseline() *baseline.Baseline {
	b := baseline.New(nil, nil)
	b.Results["a.py"] = []baseline.Record{
		rec("a.py", "KeywordDetector", "one", 1, baseline.Unclassified),
		rec("a.py", "KeywordDetector", "two", 2, baseline.Unclassified),
		rec("a.py", "KeywordDetector", "done", 3, baseline.Secret),
	}
	b.Results["b.py"] = []baseline.Record{rec("b.py", "AWSKeyDetector", "three", 7, baseline.Unclassified)}
	return b
}

type countingSaver struct{ n int }

func (c *countingSaver) Save(*baseline.Baseline) error { c.n++; return nil }

func TestSession_Apply(t *testing.T) {
	b := pendingBaseline()
	saver := &countingSaver{}
	s := NewSession(b, saver)

	r0, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, 1, r0.LineNumber)

	cur, err := s.Apply(Back)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Same(t, r0, cur)

	r1, err := s.Apply(LabelSecret)
	require.NoError(t, err)
	assert.Equal(t, 2, r1.LineNumber)
	assert.Equal(t, baseline.Secret, b.Results["a.py"][0].Classification)
	assert.Equal(t, 1, saver.n)
	assert.True(t, s.CanStepBack())

	cur, err = s.Apply(Back)
	require.NoError(t, err)
	assert.Same(t, r0, cur)

	_, err = s.Apply(LabelFalsePositive)
	require.NoError(t, err)
	assert.Equal(t, baseline.FalsePositive, b.Results["a.py"][0].Classification)

	r2, err := s.Apply(Skip)
	require.NoError(t, err)
	assert.Equal(t, "b.py", r2.Filename)
	assert.Equal(t, baseline.Unclassified, b.Results["a.py"][1].Classification)

	_, err = s.Apply(Quit)
	assert.ErrorIs(t, err, ErrDone)
	assert.True(t, s.Quitted())
	assert.Equal(t, 3, saver.n)
	assert.Equal(t, 2, s.Labeled())
}

func TestSession_UnsortedBaselineKeepsLabelsInPlace(t *testing.T) {
	b := baseline.New(nil, nil)
	b.Results["a.py"] = []baseline.Record{
		rec("a.py", "KeywordDetector", "late", 9, baseline.Unclassified),
		rec("a.py", "KeywordDetector", "early", 2, baseline.Unclassified),
	}
	path := filepath.Join(t.TempDir(), ".secrets.baseline")
	s := NewSession(b, SaveTo(path))

	first, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, 2, first.LineNumber)

	second, err := s.Apply(LabelSecret)
	require.NoError(t, err)
	assert.Equal(t, 9, second.LineNumber)
	assert.Equal(t, baseline.Unclassified, second.Classification)

	_, err = s.Apply(LabelFalsePositive)
	assert.ErrorIs(t, err, ErrDone)

	byLine := func(b *baseline.Baseline) map[int]baseline.Classification {
		out := map[int]baseline.Classification{}
		for _, r := range b.Results["a.py"] {
			out[r.LineNumber] = r.Classification
		}
		return out
	}
	want := map[int]baseline.Classification{2: baseline.Secret, 9: baseline.FalsePositive}
	assert.Equal(t, want, byLine(b))

	saved, err := baseline.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, byLine(saved))
}

func TestSession_SaveFailureKeepsLabel(t *testing.T) {
	b := pendingBaseline()
	s := NewSession(b, SaverFunc(func(*baseline.Baseline) error { return errors.New("disk full") }))
	r0, err := s.Start()
	require.NoError(t, err)
	cur, err := s.Apply(LabelSecret)
	require.Error(t, err)
	assert.Same(t, r0, cur)
	assert.Equal(t, baseline.Unclassified, r0.Classification)
}

func TestSession_Empty(t *testing.T) {
	s := NewSession(baseline.New(nil, nil), nil)
	_, err := s.Start()
	assert.ErrorIs(t, err, ErrDone)
	var script scripted
	assert.NoError(t, s.Run(context.Background(), &script))
}

func TestSession_WithAll(t *testing.T) {
	s := NewSession(pendingBaseline(), nil, WithAll())
	assert.Equal(t, 4, s.View().Total)
}

type scripted []Action

func (s *scripted) Prompt(context.Context, View) (Action, error) {
	if len(*s) == 0 {
		return Quit, nil
	}
	a := (*s)[0]
	*s = (*s)[1:]
	return a, nil
}

func TestSession_RunToEnd(t *testing.T) {
	b := pendingBaseline()
	script := scripted{LabelSecret, LabelSecret, LabelFalsePositive}
	s := NewSession(b, nil)
	require.NoError(t, s.Run(context.Background(), &script))
	assert.False(t, s.Quitted())
	assert.Empty(t, b.Pending())
	assert.Equal(t, baseline.FalsePositive, b.Results["b.py"][0].Classification)
}

func TestSession_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	script := scripted{Skip}
	err := NewSession(pendingBaseline(), nil).Run(ctx, &script)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinePrompter(t *testing.T) {
	b := pendingBaseline()
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("y\nb\nn\nq\n"), &out, func(r *baseline.Record) []string {
		return []string{"secret = '...'"}
	})
	s := NewSession(b, nil)
	require.NoError(t, s.Run(context.Background(), p))

	assert.Equal(t, baseline.FalsePositive, b.Results["a.py"][0].Classification)
	assert.Equal(t, baseline.Unclassified, b.Results["a.py"][1].Classification)
	assert.True(t, s.Quitted())
	assert.Contains(t, out.String(), "[1/3] a.py:1  KeywordDetector")
	assert.Contains(t, out.String(), "secret = '...'")
}

func TestLinePrompter_InvalidAndEOF(t *testing.T) {
	b := pendingBaseline()
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("b\nzzz\ny\n"), &out, nil)
	s := NewSession(b, nil)
	require.NoError(t, s.Run(context.Background(), p))

	assert.Equal(t, 2, strings.Count(out.String(), "Invalid answer."))
	assert.Equal(t, baseline.Secret, b.Results["a.py"][0].Classification)
	assert.True(t, s.Quitted())
	assert.NotContains(t, strings.SplitN(out.String(), "\n[2/3]", 2)[0], "(b)ack")
}

func TestCompare(t *testing.T) {
	a := baseline.New(nil, nil)
	a.Results["a.py"] = []baseline.Record{
		rec("a.py", "KeywordDetector", "dup", 2, baseline.Unclassified),
		rec("a.py", "KeywordDetector", "x", 3, baseline.Secret),
		rec("a.py", "KeywordDetector", "y", 5, baseline.FalsePositive),
		rec("a.py", "KeywordDetector", "dup", 8, baseline.Unclassified),
	}
	b := baseline.New(nil, nil)
	b.Results["a.py"] = []baseline.Record{
		rec("a.py", "KeywordDetector", "dup", 2, baseline.Unclassified),
		rec("a.py", "KeywordDetector", "y", 6, baseline.Secret),
	}
	b.Results["c.py"] = []baseline.Record{rec("c.py", "JwtTokenDetector", "z", 1, baseline.Unclassified)}

	d := Compare(a, b)
	require.Len(t, d.OnlyInA, 2)
	assert.Equal(t, 3, d.OnlyInA[0].LineNumber)
	assert.Equal(t, baseline.Secret, d.OnlyInA[0].Classification)
	assert.Equal(t, 8, d.OnlyInA[1].LineNumber)
	require.Len(t, d.OnlyInB, 1)
	assert.Equal(t, "c.py", d.OnlyInB[0].Filename)
	require.Len(t, d.Changed, 1)
	assert.Equal(t, baseline.FalsePositive, d.Changed[0].A.Classification)
	assert.Equal(t, baseline.Secret, d.Changed[0].B.Classification)

	assert.True(t, Compare(a, a).Empty())

	var parts []Partition
	for _, e := range d.Entries() {
		parts = append(parts, e.Partition)
	}
	assert.Equal(t, []Partition{OnlyInA, OnlyInA, OnlyInB, Changed}, parts)
}

type diffScript []Action

func (s *diffScript) PromptDiff(context.Context, DiffView) (Action, error) {
	if len(*s) == 0 {
		return Quit, nil
	}
	a := (*s)[0]
	*s = (*s)[1:]
	return a, nil
}

func TestDiffSession(t *testing.T) {
	a := baseline.New(nil, nil)
	a.Results["a.py"] = []baseline.Record{rec("a.py", "KeywordDetector", "x", 3, baseline.Secret)}
	b := baseline.New(nil, nil)
	b.Results["b.py"] = []baseline.Record{rec("b.py", "KeywordDetector", "y", 1, baseline.Unclassified)}

	s := NewDiffSession(Compare(a, b))
	e, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, OnlyInA, e.Partition)
	assert.Nil(t, e.B)

	_, err = s.Apply(LabelSecret)
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Equal(t, baseline.Secret, a.Results["a.py"][0].Classification)

	e, err = s.Apply(Skip)
	require.NoError(t, err)
	assert.Equal(t, OnlyInB, e.Partition)
	assert.Equal(t, "b.py", e.Record().Filename)

	e, err = s.Apply(Back)
	require.NoError(t, err)
	assert.Equal(t, OnlyInA, e.Partition)

	_, err = s.Apply(Back)
	assert.ErrorIs(t, err, ErrExhausted)

	script := diffScript{Skip, Skip}
	require.NoError(t, NewDiffSession(Compare(a, b)).Run(context.Background(), &script))
	assert.Empty(t, script)
}

func TestStats(t *testing.T) {
	b := pendingBaseline()
	b.Results["b.py"] = append(b.Results["b.py"], baseline.Record{
		Type: "AWSKeyDetector", Filename: "b.py", HashedSecret: baseline.HashSecret("gone"),
		LineNumber: 9, Classification: baseline.FalsePositive, IsMissing: true,
	})
	before := b.Count()
	s := Stats(b)
	assert.Equal(t, Counts{Secret: 1, Unclassified: 2}, s.ByType["KeywordDetector"])
	assert.Equal(t, Counts{FalsePositive: 1, Unclassified: 1, Missing: 1}, s.ByType["AWSKeyDetector"])
	assert.Equal(t, Counts{Secret: 1, FalsePositive: 1, Unclassified: 3, Missing: 1}, s.Overall)
	assert.Equal(t, 5, s.Overall.Total())
	assert.Equal(t, []string{"AWSKeyDetector", "KeywordDetector"}, s.Types())
	assert.Equal(t, before, b.Count())
}

func TestHistory(t *testing.T) {
	root := t.TempDir()
	h := NewHistory(root)
	assert.Equal(t, filepath.Join(root, ".baseliner_history.jsonl"), h.Path())

	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	h = NewHistory(root)
	assert.Equal(t, filepath.Join(root, ".git", "baseliner_history.jsonl"), h.Path())

	b := pendingBaseline()
	first, err := h.Append(NewScanRecord(root, ".secrets.baseline", b, b.Results["b.py"], 2, 0, time.Second))
	require.NoError(t, err)
	_, err = uuid.Parse(first.ScanID)
	require.NoError(t, err)
	_, err = h.Append(NewScanRecord(root, ".secrets.baseline", b, nil, 3, 1, time.Second))
	require.NoError(t, err)

	got, err := h.Load()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].FilesScanned)
	assert.Equal(t, first.ScanID, got[1].ScanID)
	assert.Equal(t, 4, got[1].Records)
	assert.Equal(t, []FindingSummary{{Path: "b.py", Detector: "AWSKeyDetector", Line: 7}}, got[1].TopFindings)

	raw, err := os.ReadFile(h.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), baseline.HashSecret("three"))
}

func TestFileContext(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.env"), []byte("one\ntwo\nthree\nfour\nfive\n"), 0o644))

	lines := FileContext(root, 1)(&baseline.Record{Filename: "a.env", LineNumber: 1})
	assert.Equal(t, []string{">    1  one", "     2  two"}, lines)

	lines = FileContext(root, 1)(&baseline.Record{Filename: "a.env", LineNumber: 4})
	assert.Equal(t, []string{"     3  three", ">    4  four", "     5  five"}, lines)

	assert.Nil(t, FileContext(root, 2)(&baseline.Record{Filename: "gone.env", LineNumber: 1}))
}
