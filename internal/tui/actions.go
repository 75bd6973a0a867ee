package tui

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/redactyl/baseliner/internal/audit"
)

type statusMsg string

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// apply forwards a reviewer action to the session and updates the view.
func (m *Model) apply(a audit.Action) tea.Cmd {
	_, err := m.session.Apply(a)
	switch {
	case err == nil:
		m.status = ""
	case errors.Is(err, audit.ErrExhausted):
		m.status = "Already at the first record"
	case errors.Is(err, audit.ErrDone):
		if a == audit.Quit {
			m.quitting = true
			return tea.Quit
		}
		m.done = true
		return nil
	default:
		m.err = err
		m.status = fmt.Sprintf("Save failed: %v", err)
		if a == audit.Quit {
			m.quitting = true
			return tea.Quit
		}
		return nil
	}
	m.refresh()
	return nil
}

func (m Model) recordPath() string {
	r := m.session.Current()
	if r == nil {
		return ""
	}
	return filepath.Join(m.root, filepath.FromSlash(r.Filename))
}

// copyLocation copies "file:line" of the current record to the clipboard.
func (m Model) copyLocation() tea.Cmd {
	r := m.session.Current()
	if r == nil {
		return func() tea.Msg { return statusMsg("No record selected") }
	}
	loc := fmt.Sprintf("%s:%d", r.Filename, r.LineNumber)
	return func() tea.Msg {
		if err := writeClipboard(loc); err != nil {
			return statusMsg(fmt.Sprintf("Clipboard error: %v", err))
		}
		return statusMsg("Copied: " + loc)
	}
}

// editorArgs builds the command line opening path at line for the editor.
func editorArgs(editor, path string, line int) []string {
	base := editor
	if idx := strings.LastIndex(editor, "/"); idx != -1 {
		base = editor[idx+1:]
	}
	switch base {
	case "code", "code-insiders":
		return []string{"-g", fmt.Sprintf("%s:%d", path, line)}
	case "subl", "sublime", "sublime_text", "atom":
		return []string{fmt.Sprintf("%s:%d", path, line)}
	case "nano":
		return []string{fmt.Sprintf("+%d,1", line), path}
	default:
		// vi, vim, nvim, emacs and most others accept +line
		return []string{fmt.Sprintf("+%d", line), path}
	}
}

func (m Model) openEditor() tea.Cmd {
	r := m.session.Current()
	if r == nil {
		return nil
	}
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	c := exec.Command(editor, editorArgs(editor, m.recordPath(), r.LineNumber)...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return statusMsg(fmt.Sprintf("Error opening editor: %v", err))
		}
		return statusMsg("Editor closed")
	})
}
