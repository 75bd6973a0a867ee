// Package audit implements the review side of a baseline: a bidirectional
// iterator, the label session that writes classifications back, baseline
// comparison and read-only statistics.
package audit
