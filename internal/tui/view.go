package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/pipego/internal/engine"
	"github.com/alexisbeaulieu97/pipego/pkg/pipeline"
)

// View renders the current state of the model.
func (m Model) View() string {
	if m.finished {
		return ""
	}

	sections := []string{
		titleStyle.Render("pipego • inputs"),
		m.progressView(),
		"",
		m.field.View(),
	}
	if m.err != "" {
		sections = append(sections, failureStyle.Render(m.err))
	}
	sections = append(sections, hintStyle.Render("enter to accept • esc to cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) progressView() string {
	total := len(m.inputs)
	ratio := 0.0
	if total > 0 {
		ratio = math.Min(1.0, float64(m.answered())/float64(total))
	}
	label := nameStyle.Render(fmt.Sprintf("%d/%d", m.answered(), total))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", m.bar.ViewAs(ratio))
}

// RenderInputs lists declared inputs for a terminal.
func RenderInputs(name string, inputs []pipeline.Input) string {
	sections := []string{titleStyle.Render(fmt.Sprintf("pipego • %s", name))}
	if len(inputs) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(sections, defaultStyle.Render("no declared inputs"))...)
	}

	sections = append(sections, sectionStyle.Render("Inputs"))
	var lines []string
	for _, in := range inputs {
		line := fmt.Sprintf(" %d. %s (%s) %s", in.Position, nameStyle.Render(in.Name), in.Type, in.Prompt)
		if def := defaultText(in.Default); def != "" {
			line += " " + defaultStyle.Render("["+def+"]")
		}
		lines = append(lines, line)
	}
	sections = append(sections, strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// RenderAnalysis lists the module types and sub-pipelines a pipe uses.
func RenderAnalysis(name string, a engine.Analysis) string {
	sections := []string{
		titleStyle.Render(fmt.Sprintf("pipego • %s", name)),
		sectionStyle.Render("Modules"),
		bullets(a.Modules),
		sectionStyle.Render("Pipes"),
		bullets(a.Pipes),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func bullets(items []string) string {
	if len(items) == 0 {
		return defaultStyle.Render(" none")
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = " • " + item
	}
	return strings.Join(lines, "\n")
}
