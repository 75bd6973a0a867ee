// Package detectors implements the pluggable secret detectors: signature
// detectors built from fixed pattern tables and entropy detectors
// parameterized by a Charset. Detectors are constructed by type tag through a
// Registry and are safe to share across concurrent file scans.
package detectors
