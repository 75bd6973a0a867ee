// Package config loads baseliner configuration from local and global YAML
// files with precedence rules. It is internal; CLI code maps flags and files
// into scanner and engine configuration.
package config
