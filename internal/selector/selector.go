// Package selector is the interactive collaborator for the "choose category"
// flow: a terminal picker that shows the pending filename, the configured
// categories, the default folder, and a cancel row.
package selector

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dlrouter/internal/category"
	"dlrouter/internal/settings"
)

// Choice is the user's answer to a selection request.
type Choice struct {
	CategoryID string
	UseDefault bool
	Cancelled  bool
}

type theme struct {
	title    lipgloss.Style
	filename lipgloss.Style
	row      lipgloss.Style
	selected lipgloss.Style
	faint    lipgloss.Style
}

func defaultTheme() theme {
	return theme{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		filename: lipgloss.NewStyle().Foreground(lipgloss.Color("219")),
		row:      lipgloss.NewStyle(),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
		faint:    lipgloss.NewStyle().Faint(true),
	}
}

type row struct {
	label  string
	choice Choice
}

type Model struct {
	requestID  string
	filename   string
	categories []settings.Category
	defFolder  string

	filter    textinput.Model
	filtering bool
	cursor    int
	th        theme

	choice Choice
	done   bool
}

func New(requestID, filename string, s settings.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "filter categories"
	ti.CharLimit = 64
	return Model{
		requestID:  requestID,
		filename:   filename,
		categories: s.Categories,
		defFolder:  s.DefaultFolder,
		filter:     ti,
		th:         defaultTheme(),
	}
}

// Choice returns the user's answer once the program has finished.
func (m Model) Choice() Choice { return m.choice }

func (m Model) rows() []row {
	cats := category.Filter(m.filter.Value(), m.categories)
	out := make([]row, 0, len(cats)+2)
	for _, c := range cats {
		out = append(out, row{
			label:  fmt.Sprintf("%s  (%s)", c.Name, c.Folder),
			choice: Choice{CategoryID: c.ID},
		})
	}
	out = append(out,
		row{label: fmt.Sprintf("Default (%s)", m.defFolder), choice: Choice{UseDefault: true}},
		row{label: "Cancel", choice: Choice{Cancelled: true}},
	)
	return out
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return m, nil
	}

	if m.filtering {
		switch key.String() {
		case "enter", "esc":
			m.filtering = false
			m.filter.Blur()
			m.cursor = 0
			return m, nil
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			return m, cmd
		}
	}

	rows := m.rows()
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "/":
		m.filtering = true
		m.filter.Focus()
	case "enter":
		m.choice = rows[m.cursor].choice
		m.done = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.choice = Choice{Cancelled: true}
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.th.title.Render("Choose a download folder") + "\n")
	b.WriteString(m.th.filename.Render(m.filename) + "\n\n")
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View() + "\n\n")
	}
	for i, r := range m.rows() {
		prefix, style := "  ", m.th.row
		if i == m.cursor {
			prefix, style = "> ", m.th.selected
		}
		b.WriteString(prefix + style.Render(r.label) + "\n")
	}
	b.WriteString("\n" + m.th.faint.Render("up/down move · enter select · / filter · q cancel"))
	return b.String()
}

// Run presents the picker and blocks until the user decides.
func Run(requestID, filename string, s settings.Settings) (Choice, error) {
	p := tea.NewProgram(New(requestID, filename, s))
	final, err := p.Run()
	if err != nil {
		return Choice{Cancelled: true}, err
	}
	m, okModel := final.(Model)
	if !okModel {
		return Choice{Cancelled: true}, nil
	}
	return m.Choice(), nil
}
