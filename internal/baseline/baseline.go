// Package baseline defines the persisted record of known secrets: hashed
// identities, their human classification and the detector and filter
// configuration that produced them.
package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// CurrentVersion is the schema version written by Save.
const CurrentVersion = "1.1.0"

var (
	// ErrMigration is returned when a legacy baseline has a shape the upgrade
	// path does not expect. The upgrade stops rather than guessing.
	ErrMigration = errors.New("baseline migration failed")
	// ErrSchema is returned when a baseline does not validate.
	ErrSchema = errors.New("baseline does not match schema")
)

// Classification is the human verdict on a record.
type Classification string

const (
	Secret        Classification = "secret"
	FalsePositive Classification = "false_positive"
	Unclassified  Classification = "unclassified"
)

// Labeled reports whether a human has classified the record.
func (c Classification) Labeled() bool {
	return c == Secret || c == FalsePositive
}

// Record is one occurrence of a secret. Plaintext is never stored.
type Record struct {
	Type           string         `json:"type"`
	Filename       string         `json:"filename"`
	HashedSecret   string         `json:"hashed_secret"`
	LineNumber     int            `json:"line_number"`
	Classification Classification `json:"classification"`
	IsMissing      bool           `json:"is_missing,omitempty"`
}

// Identity is the membership key of a record. The line number is not part of
// it: a secret that moves within a file keeps its classification.
type Identity struct {
	Type         string
	Filename     string
	HashedSecret string
}

func (r Record) Identity() Identity {
	return Identity{Type: r.Type, Filename: r.Filename, HashedSecret: r.HashedSecret}
}

// PluginConfig is a detector type tag and its parameters. In JSON the
// parameters are flattened next to "name".
type PluginConfig struct {
	Name   string
	Params map[string]any
}

func (p PluginConfig) MarshalJSON() ([]byte, error) {
	return marshalFlat("name", p.Name, p.Params)
}

func (p *PluginConfig) UnmarshalJSON(b []byte) error {
	name, params, err := unmarshalFlat("name", b)
	p.Name, p.Params = name, params
	return err
}

// FilterConfig is a filter identifier and its parameters, flattened next to
// "path" in JSON.
type FilterConfig struct {
	Path   string
	Params map[string]any
}

func (f FilterConfig) MarshalJSON() ([]byte, error) {
	return marshalFlat("path", f.Path, f.Params)
}

func (f *FilterConfig) UnmarshalJSON(b []byte) error {
	path, params, err := unmarshalFlat("path", b)
	f.Path, f.Params = path, params
	return err
}

func marshalFlat(key, id string, params map[string]any) ([]byte, error) {
	m := make(map[string]any, len(params)+1)
	for k, v := range params {
		m[k] = v
	}
	m[key] = id
	return json.Marshal(m)
}

func unmarshalFlat(key string, b []byte) (string, map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return "", nil, err
	}
	id, ok := m[key].(string)
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %q", ErrSchema, key)
	}
	delete(m, key)
	return id, m, nil
}

// Baseline is the versioned document persisted between runs.
type Baseline struct {
	Version     string              `json:"version"`
	GeneratedAt time.Time           `json:"generated_at"`
	PluginsUsed []PluginConfig      `json:"plugins_used"`
	FiltersUsed []FilterConfig      `json:"filters_used"`
	Results     map[string][]Record `json:"results"`
}

// New returns an empty baseline at the current schema version.
func New(plugins []PluginConfig, filters []FilterConfig) *Baseline {
	return &Baseline{
		Version:     CurrentVersion,
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		PluginsUsed: plugins,
		FiltersUsed: filters,
		Results:     map[string][]Record{},
	}
}

// Filenames returns the result keys in sorted order.
func (b *Baseline) Filenames() []string {
	out := make([]string, 0, len(b.Results))
	for k := range b.Results {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Flatten returns pointers to every record ordered by filename, line, type
// and hash. The pointers stay valid until Results is modified.
func (b *Baseline) Flatten() []*Record {
	var out []*Record
	for _, name := range b.Filenames() {
		rs := b.Results[name]
		for i := range rs {
			out = append(out, &rs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return lessRecord(*out[i], *out[j]) })
	return out
}

// Pending returns the records still awaiting a human verdict.
func (b *Baseline) Pending() []*Record {
	var out []*Record
	for _, r := range b.Flatten() {
		if !r.IsMissing && !r.Classification.Labeled() {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the total number of records.
func (b *Baseline) Count() int {
	n := 0
	for _, rs := range b.Results {
		n += len(rs)
	}
	return n
}

func lessRecord(a, b Record) bool {
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

func sortRecords(rs []Record) {
	sort.SliceStable(rs, func(i, j int) bool { return lessRecord(rs[i], rs[j]) })
}
