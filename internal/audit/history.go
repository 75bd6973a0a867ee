package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redactyl/baseliner/internal/baseline"
)

// ScanRecord is one line of the scan history. It holds counts and
// locations only; hashed or plain secrets are never written.
type ScanRecord struct {
	Timestamp    time.Time        `json:"timestamp"`
	ScanID       string           `json:"scan_id"`
	Root         string           `json:"root"`
	BaselineFile string           `json:"baseline_file,omitempty"`
	FilesScanned int              `json:"files_scanned"`
	FileErrors   int              `json:"file_errors,omitempty"`
	Records      int              `json:"records"`
	NewRecords   int              `json:"new_records"`
	Counts       Counts           `json:"counts"`
	Duration     string           `json:"duration"`
	TopFindings  []FindingSummary `json:"top_findings,omitempty"`
}

type FindingSummary struct {
	Path     string `json:"path"`
	Detector string `json:"detector"`
	Line     int    `json:"line"`
}

// History is an append-only JSONL log of scans, kept inside .git when the
// root is a repository so that it is never committed by accident.
type History struct {
	path string
}

func NewHistory(root string) *History {
	gitDir := filepath.Join(root, ".git")
	p := filepath.Join(root, ".baseliner_history.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		p = filepath.Join(gitDir, "baseliner_history.jsonl")
	}
	return &History{path: p}
}

func (h *History) Path() string { return h.path }

// Load returns the recorded scans, newest first. Lines that fail to decode
// are skipped.
func (h *History) Load() ([]ScanRecord, error) {
	f, err := os.Open(h.path)
	if err != nil {
		return nil, fmt.Errorf("open scan history: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []ScanRecord
	dec := json.NewDecoder(f)
	for dec.More() {
		var r ScanRecord
		if err := dec.Decode(&r); err != nil {
			break
		}
		out = append(out, r)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Append writes r, assigning a scan ID when it has none.
func (h *History) Append(r ScanRecord) (ScanRecord, error) {
	if r.ScanID == "" {
		r.ScanID = uuid.NewString()
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return r, fmt.Errorf("open scan history: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := json.NewEncoder(f).Encode(r); err != nil {
		return r, fmt.Errorf("write scan history: %w", err)
	}
	return r, nil
}

// NewScanRecord summarises a finished scan. fresh holds the records that
// were not in the previous baseline.
func NewScanRecord(root, baselineFile string, b *baseline.Baseline, fresh []baseline.Record, filesScanned, fileErrors int, took time.Duration) ScanRecord {
	top := make([]FindingSummary, 0, 10)
	for _, r := range fresh {
		if len(top) == 10 {
			break
		}
		top = append(top, FindingSummary{Path: r.Filename, Detector: r.Type, Line: r.LineNumber})
	}
	return ScanRecord{
		Timestamp:    time.Now().UTC(),
		Root:         root,
		BaselineFile: baselineFile,
		FilesScanned: filesScanned,
		FileErrors:   fileErrors,
		Records:      b.Count(),
		NewRecords:   len(fresh),
		Counts:       Stats(b).Overall,
		Duration:     took.String(),
		TopFindings:  top,
	}
}
