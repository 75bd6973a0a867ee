package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/redactyl/baseliner/internal/audit"
)

// Run drives s in a full-screen terminal UI until the reviewer quits or
// every record has been visited. Adjusted preferences are persisted.
func Run(s *audit.Session, root string) error {
	m := NewModel(s, root, LoadPrefs())
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	fm, ok := final.(Model)
	if !ok {
		return nil
	}
	_ = SavePrefs(fm.Prefs())
	return fm.Err()
}
