package tui

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// ErrCancelled is returned when the user abandons the prompt.
var ErrCancelled = errors.New("input prompt cancelled")

// Prompt asks for every declared input not present in supplied and returns
// the complete set of values. The program reads keys from in and draws to
// out.
func Prompt(inputs []pipeline.Input, supplied map[string]string, in io.Reader, out io.Writer) (map[string]string, error) {
	m := NewModel(inputs, supplied)
	if m.IsFinished() {
		return m.Values(), nil
	}

	final, err := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return nil, err
	}
	result, ok := final.(Model)
	if !ok || result.Cancelled() {
		return nil, ErrCancelled
	}
	return result.Values(), nil
}
