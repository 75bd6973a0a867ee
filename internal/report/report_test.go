package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redactyl/baseliner/internal/audit"
	"github.com/redactyl/baseliner/internal/baseline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(typ, file, hash string, line int, c baseline.Classification) baseline.Record {
	return baseline.Record{Type: typ, Filename: file, HashedSecret: hash, LineNumber: line, Classification: c}
}

func TestNewRecords(t *testing.T) {
	prev := baseline.New(nil, nil)
	prev.Results["a"] = []baseline.Record{rec("K", "a", "h1", 1, baseline.FalsePositive)}
	next := baseline.New(nil, nil)
	next.Results["a"] = []baseline.Record{
		rec("K", "a", "h1", 5, baseline.FalsePositive),
		rec("K", "a", "h1", 9, baseline.Unclassified),
	}
	next.Results["b"] = []baseline.Record{rec("K", "b", "h2", 1, baseline.Unclassified)}

	got := NewRecords(prev, next)
	require.Len(t, got, 2)
	assert.Equal(t, 9, got[0].LineNumber)
	assert.Equal(t, "b", got[1].Filename)

	assert.Len(t, NewRecords(nil, next), 3)
}

func TestShouldFail(t *testing.T) {
	fp := baseline.New(nil, nil)
	fp.Results["a"] = []baseline.Record{rec("K", "a", "h", 1, baseline.FalsePositive)}
	pending := baseline.New(nil, nil)
	pending.Results["a"] = []baseline.Record{rec("K", "a", "h", 1, baseline.Unclassified)}
	secret := baseline.New(nil, nil)
	secret.Results["a"] = []baseline.Record{rec("K", "a", "h", 1, baseline.Secret)}
	missing := baseline.New(nil, nil)
	r := rec("K", "a", "h", 1, baseline.Secret)
	r.IsMissing = true
	missing.Results["a"] = []baseline.Record{r}

	cases := []struct {
		name string
		b    *baseline.Baseline
		on   FailOn
		want bool
	}{
		{"false positives pass", fp, FailOnUnclassified, false},
		{"pending fails by default", pending, FailOnUnclassified, true},
		{"pending passes on secret", pending, FailOnSecret, false},
		{"secret fails", secret, FailOnSecret, true},
		{"none never fails", secret, FailOnNone, false},
		{"missing ignored", missing, FailOnUnclassified, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldFail(tc.b, tc.on))
		})
	}
}

func TestParseFailOn(t *testing.T) {
	f, err := ParseFailOn("")
	require.NoError(t, err)
	assert.Equal(t, FailOnUnclassified, f)
	f, err = ParseFailOn("secret")
	require.NoError(t, err)
	assert.Equal(t, FailOnSecret, f)
	_, err = ParseFailOn("high")
	assert.Error(t, err)
}

func TestPrintStats(t *testing.T) {
	b := baseline.New(nil, nil)
	b.Results["a"] = []baseline.Record{
		rec("AWSKeyDetector", "a", "h1", 1, baseline.Secret),
		rec("KeywordDetector", "a", "h2", 2, baseline.FalsePositive),
	}
	var buf bytes.Buffer
	require.NoError(t, PrintStats(&buf, audit.Stats(b)))
	out := buf.String()
	assert.Contains(t, out, "AWSKeyDetector")
	assert.Contains(t, out, "KeywordDetector")
	assert.Contains(t, out, "TOTAL")

	buf.Reset()
	require.NoError(t, WriteStatsJSON(&buf, audit.Stats(b)))
	assert.Contains(t, buf.String(), `"false_positive": 1`)
}

func TestMetricsTextfile(t *testing.T) {
	b := baseline.New(nil, nil)
	b.Results["a"] = []baseline.Record{rec("AWSKeyDetector", "a", "h1", 1, baseline.Secret)}

	m := NewMetrics()
	m.ObserveScan(12, 3, 1, 2, 1500*time.Millisecond)
	m.ObserveBaseline(audit.Stats(b))

	p := filepath.Join(t.TempDir(), "baseliner.prom")
	require.NoError(t, m.WriteTextfile(p))
	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, "baseliner_files_scanned_total 12")
	assert.Contains(t, out, "baseliner_files_cached_total 3")
	assert.Contains(t, out, "baseliner_scan_duration_seconds 1.5")
	assert.Contains(t, out, `baseliner_baseline_records{classification="secret",type="AWSKeyDetector"} 1`)

	mfs, err := m.Gatherer().Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 7)
}
