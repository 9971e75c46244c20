// Package tui prompts for the inputs a pipe declares and renders the
// human-readable views of the command line.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// Model is the Bubbletea state of the input prompter. Inputs are asked for
// one at a time in declaration order.
type Model struct {
	inputs    []pipeline.Input
	values    map[string]string
	current   int
	field     textinput.Model
	bar       progress.Model
	finished  bool
	cancelled bool
	err       string
}

// NewModel constructs a prompter for inputs, pre-filling values already
// supplied on the command line.
func NewModel(inputs []pipeline.Input, supplied map[string]string) Model {
	m := Model{
		inputs: inputs,
		values: make(map[string]string, len(inputs)),
		field:  textinput.New(),
		bar:    progress.New(progress.WithDefaultGradient()),
	}
	m.bar.Width = 30
	for name, v := range supplied {
		m.values[name] = v
	}
	m.field.Focus()
	m.skipSupplied()
	return m
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Values returns the answers collected so far, keyed by input name.
func (m Model) Values() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// IsFinished reports whether every input has been answered or the prompt
// was abandoned.
func (m Model) IsFinished() bool {
	return m.finished
}

// Cancelled reports whether the user abandoned the prompt.
func (m Model) Cancelled() bool {
	return m.cancelled
}

func (m Model) answered() int {
	return m.current
}

// skipSupplied advances past inputs that already have a value and prepares
// the field for the next one.
func (m *Model) skipSupplied() {
	for m.current < len(m.inputs) {
		if _, ok := m.values[m.inputs[m.current].Name]; !ok {
			break
		}
		m.current++
	}
	if m.current >= len(m.inputs) {
		m.finished = true
		return
	}

	in := m.inputs[m.current]
	m.field.Reset()
	m.field.Prompt = in.Prompt + " "
	m.field.Placeholder = defaultText(in.Default)
}

// defaultText renders a declared default the way the input operators read
// it back.
func defaultText(v any) string {
	if s, ok := pipeline.Lit("", v).Text(); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
