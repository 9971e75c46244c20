package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

var declared = []pipeline.Input{
	{Position: 0, Name: "query", Prompt: "Search for", Type: "text", Default: "golang"},
	{Position: 1, Name: "limit", Prompt: "How many?", Type: "number", Default: float64(5)},
}

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var updated tea.Model
		updated, cmd = m.Update(msg)
		m = updated.(Model)
	}
	return m, cmd
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestUpdateAcceptsDefaultsOnEmptyLine(t *testing.T) {
	t.Parallel()

	m, cmd := press(t, NewModel(declared, nil), enter, enter)
	require.True(t, m.IsFinished())
	require.False(t, m.Cancelled())
	require.NotNil(t, cmd)
	require.Equal(t, map[string]string{"query": "golang", "limit": "5"}, m.Values())
}

func TestUpdateStoresTypedValues(t *testing.T) {
	t.Parallel()

	m, _ := press(t, NewModel(declared, nil), typed("rust"), enter)
	require.False(t, m.IsFinished())
	require.Equal(t, "rust", m.Values()["query"])

	m, _ = press(t, m, typed("12"), enter)
	require.True(t, m.IsFinished())
	require.Equal(t, "12", m.Values()["limit"])
}

func TestUpdateRejectsNonNumbers(t *testing.T) {
	t.Parallel()

	m, _ := press(t, NewModel(declared, map[string]string{"query": "go"}), typed("ten"), enter)
	require.False(t, m.IsFinished())
	require.Contains(t, m.View(), `"ten" is not a number`)
}

func TestNewModelSkipsSuppliedInputs(t *testing.T) {
	t.Parallel()

	m := NewModel(declared, map[string]string{"query": "go"})
	require.Equal(t, 1, m.answered())
	require.Contains(t, m.View(), "How many?")
	require.Contains(t, m.View(), "1/2")

	m = NewModel(declared, map[string]string{"query": "go", "limit": "1"})
	require.True(t, m.IsFinished())
	require.Empty(t, m.View())
}

func TestUpdateCancels(t *testing.T) {
	t.Parallel()

	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m, cmd := press(t, NewModel(declared, nil), tea.KeyMsg{Type: key})
		require.True(t, m.Cancelled())
		require.True(t, m.IsFinished())
		require.NotNil(t, cmd)
	}
}

func TestPromptReturnsSuppliedValuesWithoutRunning(t *testing.T) {
	t.Parallel()

	values, err := Prompt(declared[:1], map[string]string{"query": "go"}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"query": "go"}, values)
}
