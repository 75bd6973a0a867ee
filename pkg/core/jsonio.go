package core

import (
	"encoding/json"
	"io"
)

// MarshalRecords pretty-prints records as JSON for humans or pipelines.
// A nil slice is written as an empty list.
func MarshalRecords(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// UnmarshalRecords decodes records JSON, useful for ingestion tests.
func UnmarshalRecords(r io.Reader) ([]Record, error) {
	var rs []Record
	if err := json.NewDecoder(r).Decode(&rs); err != nil {
		return nil, err
	}
	return rs, nil
}
