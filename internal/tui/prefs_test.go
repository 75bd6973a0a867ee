package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPrefs(t *testing.T) {
	prefs := DefaultPrefs()
	if prefs.ContextLines != 3 {
		t.Errorf("DefaultPrefs().ContextLines = %d, want 3", prefs.ContextLines)
	}
	if !prefs.Highlight {
		t.Error("DefaultPrefs().Highlight should be true")
	}
}

func TestLoadPrefs_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	prefs := LoadPrefs()
	if prefs != DefaultPrefs() {
		t.Errorf("LoadPrefs() without file = %+v, want defaults", prefs)
	}
}

func TestSaveAndLoadPrefs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := SavePrefs(Prefs{ContextLines: 7, Highlight: false}); err != nil {
		t.Fatalf("SavePrefs: %v", err)
	}
	path := filepath.Join(home, ".baseliner", "tui_prefs.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("prefs file not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("prefs file mode = %v, want 0600", info.Mode().Perm())
	}

	prefs := LoadPrefs()
	if prefs.ContextLines != 7 || prefs.Highlight {
		t.Errorf("LoadPrefs() = %+v, want {7 false}", prefs)
	}
}

func TestLoadPrefs_ClampsAndSurvivesGarbage(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".baseliner")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "tui_prefs.json")

	if err := os.WriteFile(path, []byte(`{"context_lines": 99, "highlight": true}`), 0600); err != nil {
		t.Fatal(err)
	}
	if got := LoadPrefs().ContextLines; got != maxContextLines {
		t.Errorf("ContextLines = %d, want clamp to %d", got, maxContextLines)
	}

	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := LoadPrefs(); got != DefaultPrefs() {
		t.Errorf("LoadPrefs() with garbage = %+v, want defaults", got)
	}
}
