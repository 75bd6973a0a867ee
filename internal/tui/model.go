package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/redactyl/baseliner/internal/audit"
	"github.com/redactyl/baseliner/internal/baseline"
)

var (
	contextBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	lineNoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	secretStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	falsePosStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	unclassifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func classificationText(c baseline.Classification) string {
	switch c {
	case baseline.Secret:
		return secretStyle.Render("secret")
	case baseline.FalsePositive:
		return falsePosStyle.Render("false positive")
	default:
		return unclassifiedStyle.Render("unclassified")
	}
}

type keyMap struct {
	Secret        key.Binding
	FalsePositive key.Binding
	Skip          key.Binding
	Back          key.Binding
	Quit          key.Binding
	Copy          key.Binding
	Edit          key.Binding
	More          key.Binding
	Less          key.Binding
	Highlight     key.Binding
	Help          key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Secret:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "secret")),
		FalsePositive: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "false positive")),
		Skip:          key.NewBinding(key.WithKeys("s", "right"), key.WithHelp("s", "skip")),
		Back:          key.NewBinding(key.WithKeys("b", "left"), key.WithHelp("b", "back")),
		Quit:          key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "save & quit")),
		Copy:          key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy location")),
		Edit:          key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "open editor")),
		More:          key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more context")),
		Less:          key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "less context")),
		Highlight:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "toggle highlight")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Secret, k.FalsePositive, k.Skip, k.Back, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Secret, k.FalsePositive, k.Skip, k.Back, k.Quit},
		{k.Copy, k.Edit, k.More, k.Less, k.Highlight, k.Help},
	}
}

// Model is the label-mode audit screen. All state transitions go through
// the audit session; the model only renders and maps keys to actions.
type Model struct {
	session  *audit.Session
	root     string
	prefs    Prefs
	keys     keyMap
	help     help.Model
	viewport viewport.Model
	progress progress.Model

	width    int
	height   int
	ready    bool // terminal dimensions are known
	showHelp bool
	done     bool // every record was visited
	quitting bool
	status   string
	err      error
}

// NewModel starts s and returns a model rendering it. root resolves record
// filenames for the context pane.
func NewModel(s *audit.Session, root string, prefs Prefs) Model {
	m := Model{
		session:  s,
		root:     root,
		prefs:    prefs.normalized(),
		keys:     defaultKeys(),
		help:     help.New(),
		viewport: viewport.New(80, 10),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	if _, err := s.Start(); err != nil {
		if errors.Is(err, audit.ErrDone) {
			m.done = true
		} else {
			m.err = err
		}
	}
	m.refresh()
	return m
}

// Err returns the last save error, if any.
func (m Model) Err() error { return m.err }

// Prefs returns the preferences as adjusted during the session.
func (m Model) Prefs() Prefs { return m.prefs }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.progress.Width = max(msg.Width-30, 10)
		m.viewport.Width = max(msg.Width-2, 10)
		m.viewport.Height = max(msg.Height-10, 3)
		m.refresh()
		return m, nil

	case statusMsg:
		m.status = string(msg)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.done {
			m.quitting = true
			return m, tea.Quit
		}
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Secret):
			return m, m.apply(audit.LabelSecret)
		case key.Matches(msg, m.keys.FalsePositive):
			return m, m.apply(audit.LabelFalsePositive)
		case key.Matches(msg, m.keys.Skip):
			return m, m.apply(audit.Skip)
		case key.Matches(msg, m.keys.Back):
			if !m.session.CanStepBack() {
				m.status = "Already at the first record"
				return m, nil
			}
			return m, m.apply(audit.Back)
		case key.Matches(msg, m.keys.Quit):
			return m, m.apply(audit.Quit)
		case key.Matches(msg, m.keys.Copy):
			return m, m.copyLocation()
		case key.Matches(msg, m.keys.Edit):
			return m, m.openEditor()
		case key.Matches(msg, m.keys.More):
			m.prefs.ContextLines = min(m.prefs.ContextLines+2, maxContextLines)
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Less):
			m.prefs.ContextLines = max(m.prefs.ContextLines-2, minContextLines)
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Highlight):
			m.prefs.Highlight = !m.prefs.Highlight
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refresh re-renders the context pane for the current record.
func (m *Model) refresh() {
	r := m.session.Current()
	if r == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(renderContext(m.recordPath(), r.LineNumber, m.prefs.ContextLines, m.prefs.Highlight))
	m.viewport.GotoTop()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}
	if m.done {
		msg := "Nothing left to audit."
		if n := m.session.Labeled(); n > 0 {
			msg = fmt.Sprintf("Audit complete: %d records labelled.", n)
		}
		box := popupStyle.Width(50).Align(lipgloss.Center).Render(msg + "\n\n" + dimStyle.Render("press any key to exit"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	if m.showHelp {
		m.help.ShowAll = true
		box := popupStyle.Render(titleStyle.Render("Keys") + "\n\n" + m.help.View(m.keys))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	v := m.session.View()
	var b strings.Builder
	pct := float64(v.Index+1) / float64(max(v.Total, 1))
	b.WriteString(titleStyle.Render("baseliner audit"))
	b.WriteString(fmt.Sprintf(" %d/%d  ", v.Index+1, v.Total))
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n")
	if r := v.Record; r != nil {
		b.WriteString(fmt.Sprintf("%s %s:%d\n", keyStyle.Render("Location:"), r.Filename, r.LineNumber))
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Type:    "), r.Type))
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Status:  "), classificationText(r.Classification)))
	}
	b.WriteString(contextBorderStyle.Width(max(m.width-2, 10)).Render(m.viewport.View()))
	b.WriteString("\n")
	status := m.status
	if status == "" {
		status = fmt.Sprintf("labelled this session: %d", m.session.Labeled())
	}
	b.WriteString(statusStyle.Width(max(m.width, 10)).Render(" " + status))
	b.WriteString("\n")
	m.help.ShowAll = false
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
