package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)

	nameStyle    = lipgloss.NewStyle().Bold(true)
	defaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)
