package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/redactyl/baseliner/internal/baseline"
)

func TestWriteSARIF_ActionableRecordsOnly(t *testing.T) {
	b := baseline.New(nil, nil)
	b.Results["a.env"] = []baseline.Record{
		{Type: "KeywordDetector", Filename: "a.env", HashedSecret: "aa", LineNumber: 1, Classification: baseline.Secret},
		{Type: "KeywordDetector", Filename: "a.env", HashedSecret: "bb", LineNumber: 2, Classification: baseline.FalsePositive},
		{Type: "AWSKeyDetector", Filename: "a.env", HashedSecret: "cc", LineNumber: 3, Classification: baseline.Unclassified},
		{Type: "AWSKeyDetector", Filename: "a.env", HashedSecret: "dd", LineNumber: 4, Classification: baseline.Secret, IsMissing: true},
	}
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, b, "1.2.3"); err != nil {
		t.Fatalf("WriteSARIF: %v", err)
	}
	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Properties map[string]any `json:"properties"`
			Tool       struct {
				Driver struct {
					Version string `json:"version"`
					Rules   []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID              string            `json:"ruleId"`
				RuleIndex           int               `json:"ruleIndex"`
				Level               string            `json:"level"`
				PartialFingerprints map[string]string `json:"partialFingerprints"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v; body=%s", err, buf.String())
	}
	if doc.Version != "2.1.0" || len(doc.Runs) != 1 {
		t.Fatalf("unexpected document: %s", buf.String())
	}
	run := doc.Runs[0]
	if run.Tool.Driver.Version != "1.2.3" {
		t.Fatalf("driver version = %q", run.Tool.Driver.Version)
	}
	if len(run.Tool.Driver.Rules) != 2 || run.Tool.Driver.Rules[0].ID != "AWSKeyDetector" {
		t.Fatalf("unexpected rules: %+v", run.Tool.Driver.Rules)
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	first, second := run.Results[0], run.Results[1]
	if first.Level != "error" || first.RuleIndex != 1 || first.PartialFingerprints["hashedSecret/v1"] != "aa" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if second.Level != "warning" || second.RuleID != "AWSKeyDetector" || second.RuleIndex != 0 {
		t.Fatalf("unexpected second result: %+v", second)
	}
	if _, ok := run.Properties["counts"].(map[string]any); !ok {
		t.Fatalf("expected counts in properties, got: %#v", run.Properties)
	}
}

func TestWriteSARIF_EmptyBaseline(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(&buf, baseline.New(nil, nil), "dev"); err != nil {
		t.Fatalf("WriteSARIF: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	runs := doc["runs"].([]any)
	results := runs[0].(map[string]any)["results"].([]any)
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %v", results)
	}
}
