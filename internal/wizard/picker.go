package wizard

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles for the pickers
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Background(lipgloss.Color("237"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Home   key.Binding
	End    key.Binding
	Select key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k", "ctrl+p"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j", "ctrl+n"), key.WithHelp("↓/j", "down")),
	Home:   key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
	End:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
	Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc", "q"), key.WithHelp("esc", "quit")),
}

// item is one row of a picker.
type item struct {
	title  string
	detail string
	active bool
}

// pickerModel is a single-choice list. selected is -1 until the user
// confirms a row.
type pickerModel struct {
	title    string
	empty    string
	legend   string
	items    []item
	cursor   int
	selected int
	width    int
	height   int
}

func newPickerModel(title string, items []item) pickerModel {
	return pickerModel{
		title:    title,
		items:    items,
		selected: -1,
		width:    80,
		height:   20,
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Select):
			if len(m.items) > 0 && m.cursor < len(m.items) {
				m.selected = m.cursor
				return m, tea.Quit
			}

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}

		case key.Matches(msg, keys.Home):
			m.cursor = 0

		case key.Matches(msg, keys.End):
			if len(m.items) > 0 {
				m.cursor = len(m.items) - 1
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(inactiveStyle.Render(m.empty))
		b.WriteString("\n")
	}

	for i, it := range m.items {
		var line strings.Builder
		if it.active {
			line.WriteString(activeStyle.Render("● "))
		} else {
			line.WriteString(inactiveStyle.Render("○ "))
		}
		line.WriteString(it.title)
		if it.detail != "" {
			line.WriteString(" " + detailStyle.Render(it.detail))
		}

		if i == m.cursor {
			b.WriteString(selectedStyle.Render("▸ " + line.String()))
		} else {
			b.WriteString(itemStyle.Render("  " + line.String()))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(detailStyle.Render(helpLine(keys.Up, keys.Down, keys.Select, keys.Quit)))
	if m.legend != "" {
		b.WriteString("\n")
		b.WriteString(detailStyle.Render(m.legend))
	}

	return b.String()
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// run shows the picker and returns the chosen index, or -1 if the user
// quit without choosing.
func run(m pickerModel) (int, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return -1, err
	}
	return final.(pickerModel).selected, nil
}
