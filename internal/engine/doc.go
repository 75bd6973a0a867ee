// Package engine contains the scanning loop: it selects target files under a
// root, runs a scanner over each of them in parallel and returns per-file
// findings ready to be merged into a baseline. This package is internal;
// external consumers should use the facade in pkg/core.
package engine
