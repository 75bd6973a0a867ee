package report

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/redactyl/baseliner/internal/audit"
	"github.com/redactyl/baseliner/internal/baseline"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func classificationToLevel(c baseline.Classification) string {
	if c == baseline.Secret {
		return "error"
	}
	return "warning"
}

// WriteSARIF writes the actionable records of b as SARIF 2.1.0: confirmed
// secrets as errors and unreviewed records as warnings. False positives and
// missing records are left out. The hashed secret is the fingerprint so
// that code scanning tracks a record across line moves.
func WriteSARIF(w io.Writer, b *baseline.Baseline, version string) error {
	var records []*baseline.Record
	ruleSet := map[string]bool{}
	for _, r := range b.Flatten() {
		if r.IsMissing || r.Classification == baseline.FalsePositive {
			continue
		}
		records = append(records, r)
		ruleSet[r.Type] = true
	}
	ids := make([]string, 0, len(ruleSet))
	for id := range ruleSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	index := make(map[string]int, len(ids))
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "baseliner", Version: version, Rules: []sarifRule{}}},
		Results: []sarifResult{},
	}
	for i, id := range ids {
		index[id] = i
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
			ID:               id,
			ShortDescription: sarifMessage{Text: id + " match"},
		})
	}
	for _, r := range records {
		run.Results = append(run.Results, sarifResult{
			RuleID:    r.Type,
			RuleIndex: index[r.Type],
			Level:     classificationToLevel(r.Classification),
			Message:   sarifMessage{Text: r.Type + " detected (" + string(r.Classification) + ")"},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: r.Filename},
					Region:           sarifRegion{StartLine: r.LineNumber},
				},
			}},
			PartialFingerprints: map[string]string{"hashedSecret/v1": r.HashedSecret},
		})
	}
	run.Properties = map[string]any{"counts": audit.Stats(b).Overall}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
