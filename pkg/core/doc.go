// Package core provides a small, stable facade over baseliner's internal
// packages for external integrations and for the CLI. It re-exports a narrow
// API surface so that other tools can depend on a stable import path
// without reaching into internal implementation packages.
//
// Example:
//
//	u, err := core.Update(ctx, core.UpdateOptions{
//		Scan:         core.Config{Root: "."},
//		BaselinePath: ".secrets.baseline",
//		Policy:       core.MissingDrop,
//	})
//	if err != nil { /* handle */ }
//	if err := u.Commit(); err != nil { /* handle */ }
package core
