package baseline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Decode reads a baseline of any supported version, upgrades it to the
// current version and validates it. Legacy shapes the upgrade does not
// recognise fail with ErrMigration; documents that upgrade cleanly but do
// not validate fail with ErrSchema.
func Decode(r io.Reader) (*Baseline, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: document is null", ErrSchema)
	}
	raw, err := Upgrade(raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var b Baseline
	if err := json.Unmarshal(buf, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if b.Results == nil {
		b.Results = map[string][]Record{}
	}
	for name := range b.Results {
		sortRecords(b.Results[name])
	}
	return &b, nil
}

// Load reads and decodes the baseline at path.
func Load(path string) (*Baseline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	b, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Encode writes b as indented JSON. Records are sorted per file so that
// repeated saves of the same baseline are byte-identical. b itself is left
// untouched: callers may hold pointers into its record slices.
func Encode(w io.Writer, b *Baseline) error {
	out := *b
	out.Results = make(map[string][]Record, len(b.Results))
	for name, rs := range b.Results {
		sorted := append([]Record(nil), rs...)
		sortRecords(sorted)
		out.Results[name] = sorted
	}
	if out.PluginsUsed == nil {
		out.PluginsUsed = []PluginConfig{}
	}
	if out.FiltersUsed == nil {
		out.FiltersUsed = []FilterConfig{}
	}
	buf, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}
	buf = append(buf, '\n')
	_, err = w.Write(buf)
	return err
}

// Save writes b to path, replacing any existing file only once the new
// content is fully written.
func Save(path string, b *Baseline) error {
	var buf bytes.Buffer
	if err := Encode(&buf, b); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".baseline-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
