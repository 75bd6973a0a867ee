package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redactyl/baseliner/internal/baseline"
	"github.com/redactyl/baseliner/internal/filters"
	"gopkg.in/yaml.v3"
)

// LocalNames are the repo-local config file names in search order.
var LocalNames = []string{".baseliner.yml", ".baseliner.yaml", "baseliner.yml", "baseliner.yaml"}

var (
	ErrNoLocalConfig  = errors.New("no local config")
	ErrNoGlobalConfig = errors.New("no global config")
)

// FileConfig is the on-disk YAML configuration shape for baseliner.
type FileConfig struct {
	Include         *string `yaml:"include"`
	Exclude         *string `yaml:"exclude"`
	MaxBytes        *int64  `yaml:"max_bytes"`
	Threads         *int    `yaml:"threads"`
	NoColor         *bool   `yaml:"no_color"`
	DefaultExcludes *bool   `yaml:"default_excludes"`
	TrackedOnly     *bool   `yaml:"tracked_only"`
	Baseline        *string `yaml:"baseline"`
	MissingPolicy   *string `yaml:"missing_policy"`
	FailOn          *string `yaml:"fail_on"`
	LogLevel        *string `yaml:"log_level"`
	LogFormat       *string `yaml:"log_format"`

	// Plugins replaces the default detector set when present.
	Plugins []Plugin `yaml:"plugins"`
	// Filters replaces the default filter chain when present.
	Filters []Filter `yaml:"filters"`

	// Shorthands appended to the filter chain.
	ExcludeLines      *string `yaml:"exclude_lines"`
	ExcludeFiles      *string `yaml:"exclude_files"`
	ExcludeSecrets    *string `yaml:"exclude_secrets"`
	WordList          *string `yaml:"word_list"`
	WordListMinLength *int    `yaml:"word_list_min_length"`
}

// Plugin names a detector and its parameters, written inline:
//
//	- name: HexHighEntropyString
//	  limit: 3.5
type Plugin struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

// Filter names a filter and its parameters, written inline like Plugin.
type Filter struct {
	ID     string         `yaml:"id"`
	Params map[string]any `yaml:",inline"`
}

// LoadFile reads a YAML config file from the provided path. Unknown keys
// are rejected so that typos do not silently change a scan.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(repoRoot string) (FileConfig, error) {
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, ErrNoLocalConfig
}

// GlobalPath returns the global config location under XDG_CONFIG_HOME or
// ~/.config, or "" when neither is known.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "baseliner", "config.yml")
}

// LoadGlobal loads the global config file.
func LoadGlobal() (FileConfig, error) {
	p := GlobalPath()
	if p == "" {
		return FileConfig{}, ErrNoGlobalConfig
	}
	if _, err := os.Stat(p); err != nil {
		return FileConfig{}, ErrNoGlobalConfig
	}
	return LoadFile(p)
}

// PluginConfigs returns the detector configuration, or nil to use every
// registered detector with default parameters.
func (fc FileConfig) PluginConfigs() []baseline.PluginConfig {
	if len(fc.Plugins) == 0 {
		return nil
	}
	out := make([]baseline.PluginConfig, 0, len(fc.Plugins))
	for _, p := range fc.Plugins {
		out = append(out, baseline.PluginConfig{Name: p.Name, Params: emptyToNil(p.Params)})
	}
	return out
}

// FilterConfigs returns the filter chain configuration, or nil to use the
// default chain. Shorthand exclusions and the word list are appended to
// whichever chain applies.
func (fc FileConfig) FilterConfigs() []baseline.FilterConfig {
	var out []baseline.FilterConfig
	if len(fc.Filters) > 0 {
		for _, f := range fc.Filters {
			out = append(out, baseline.FilterConfig{Path: f.ID, Params: emptyToNil(f.Params)})
		}
	} else if !fc.hasShorthands() {
		return nil
	} else {
		for _, c := range filters.DefaultConfigs() {
			out = append(out, baseline.FilterConfig{Path: c.ID, Params: c.Params})
		}
	}
	for _, s := range []struct {
		v  *string
		id string
	}{
		{fc.ExcludeLines, filters.RegexLineID},
		{fc.ExcludeFiles, filters.RegexFileID},
		{fc.ExcludeSecrets, filters.RegexSecretID},
	} {
		if s.v != nil && *s.v != "" {
			out = append(out, baseline.FilterConfig{Path: s.id, Params: map[string]any{"pattern": []any{*s.v}}})
		}
	}
	if fc.WordList != nil && *fc.WordList != "" {
		params := map[string]any{"wordlist_filename": *fc.WordList}
		if fc.WordListMinLength != nil {
			params["min_length"] = *fc.WordListMinLength
		}
		out = append(out, baseline.FilterConfig{Path: filters.WordlistID, Params: params})
	}
	return out
}

func (fc FileConfig) hasShorthands() bool {
	for _, s := range []*string{fc.ExcludeLines, fc.ExcludeFiles, fc.ExcludeSecrets, fc.WordList} {
		if s != nil && *s != "" {
			return true
		}
	}
	return false
}

func emptyToNil(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}

// Template is the commented starting point written by `config init`.
const Template = `# baseliner configuration
# include: "**/*.go,**/*.yaml"
# exclude: "testdata/**"
# max_bytes: 1048576
# threads: 0
# tracked_only: false
baseline: .secrets.baseline
missing_policy: drop
fail_on: unclassified
# exclude_lines: "nosecret"
# word_list: .baseliner-words.txt
# plugins:
#   - name: HexHighEntropyString
#     limit: 3.0
#   - name: Base64HighEntropyString
#     limit: 4.5
`
