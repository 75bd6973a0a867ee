package types

// Finding is a candidate secret emitted by a detector for a path and line.
// Secret holds the plaintext match and only lives for the duration of a scan;
// it is never serialized.
type Finding struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Detector string `json:"detector"`
	Secret   string `json:"-"`
	Context  string `json:"context,omitempty"` // source line the match was taken from
}
