// Package baseliner provides the command-line interface for baseliner. It
// wires the scan, audit and baseline maintenance subcommands to the
// internal packages and maps failures to exit codes.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/redactyl/baseliner/cmd/baseliner"
//	func main() { baseliner.Execute() }
package baseliner
