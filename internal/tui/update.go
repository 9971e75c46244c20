package tui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.finished {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

// submit stores the current answer, falling back to the declared default on
// an empty line. Number inputs must parse.
func (m Model) submit() (tea.Model, tea.Cmd) {
	in := m.inputs[m.current]
	value := strings.TrimSpace(m.field.Value())
	if value == "" {
		value = defaultText(in.Default)
	}
	if in.Type == "number" && value != "" {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			m.err = strconv.Quote(value) + " is not a number"
			return m, nil
		}
	}

	m.err = ""
	m.values[in.Name] = value
	m.current++
	m.skipSupplied()
	if m.finished {
		return m, tea.Quit
	}
	return m, nil
}
