package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/redactyl/baseliner/internal/baseline"
	"github.com/redactyl/baseliner/internal/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "baseliner.yaml", `threads: 4
max_bytes: 123
tracked_only: true
missing_policy: retain
plugins:
  - name: HexHighEntropyString
    limit: 3.5
  - name: AWSKeyDetector
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	require.NotNil(t, cfg.Threads)
	assert.Equal(t, 4, *cfg.Threads)
	require.NotNil(t, cfg.MaxBytes)
	assert.EqualValues(t, 123, *cfg.MaxBytes)
	require.NotNil(t, cfg.TrackedOnly)
	assert.True(t, *cfg.TrackedOnly)
	require.NotNil(t, cfg.MissingPolicy)
	assert.Equal(t, "retain", *cfg.MissingPolicy)

	assert.Equal(t, []baseline.PluginConfig{
		{Name: "HexHighEntropyString", Params: map[string]any{"limit": 3.5}},
		{Name: "AWSKeyDetector"},
	}, cfg.PluginConfigs())
	assert.Nil(t, cfg.FilterConfigs())
}

func TestLoadFile_RejectsUnknownKeys(t *testing.T) {
	p := writeTemp(t, t.TempDir(), "baseliner.yml", "threds: 4\n")
	_, err := LoadFile(p)
	assert.Error(t, err)
}

func TestLoadFile_Empty(t *testing.T) {
	p := writeTemp(t, t.TempDir(), "baseliner.yml", "")
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	assert.Nil(t, cfg.Threads)
}

func TestFilterConfigs_Shorthands(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "baseliner.yml", `exclude_lines: "nosecret"
word_list: words.txt
word_list_min_length: 4
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	fcs := cfg.FilterConfigs()
	defaults := filters.DefaultConfigs()
	require.Len(t, fcs, len(defaults)+2)
	assert.Equal(t, defaults[0].ID, fcs[0].Path)
	assert.Equal(t, baseline.FilterConfig{
		Path:   filters.RegexLineID,
		Params: map[string]any{"pattern": []any{"nosecret"}},
	}, fcs[len(defaults)])
	assert.Equal(t, baseline.FilterConfig{
		Path:   filters.WordlistID,
		Params: map[string]any{"wordlist_filename": "words.txt", "min_length": 4},
	}, fcs[len(defaults)+1])
}

func TestFilterConfigs_ExplicitChain(t *testing.T) {
	p := writeTemp(t, t.TempDir(), "baseliner.yml", `filters:
  - id: heuristic.is_sequential_string
  - id: regex.should_exclude_file
    pattern: ["^vendor/"]
exclude_secrets: "^EXAMPLE"
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []baseline.FilterConfig{
		{Path: filters.SequentialID},
		{Path: filters.RegexFileID, Params: map[string]any{"pattern": []any{"^vendor/"}}},
		{Path: filters.RegexSecretID, Params: map[string]any{"pattern": []any{"^EXAMPLE"}}},
	}, cfg.FilterConfigs())
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	// place both, expect the dotfile to be picked first by search order
	writeTemp(t, dir, "baseliner.yaml", "threads: 1\n")
	writeTemp(t, dir, ".baseliner.yaml", "threads: 7\n")
	cfg, err := LoadLocal(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg.Threads)
	assert.Equal(t, 7, *cfg.Threads)
}

func TestLoadLocal_NoConfig(t *testing.T) {
	_, err := LoadLocal(t.TempDir())
	assert.ErrorIs(t, err, ErrNoLocalConfig)
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "baseliner")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	writeTemp(t, cfgDir, "config.yml", "threads: 9\n")
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	require.NoError(t, err)
	require.NotNil(t, cfg.Threads)
	assert.Equal(t, 9, *cfg.Threads)
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")
	_, err := LoadGlobal()
	assert.ErrorIs(t, err, ErrNoGlobalConfig)
}

func TestTemplateParses(t *testing.T) {
	p := writeTemp(t, t.TempDir(), ".baseliner.yml", Template)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	require.NotNil(t, cfg.Baseline)
	assert.Equal(t, ".secrets.baseline", *cfg.Baseline)
}
