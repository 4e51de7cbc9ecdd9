package cli

import "github.com/charmbracelet/lipgloss"

// theme is the fixed lipgloss palette used by the inspection commands.
var theme = struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Subtle   lipgloss.Style
	Active   lipgloss.Style
	ErrState lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
	Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
	Cell:     lipgloss.NewStyle().PaddingRight(2),
	Subtle:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Active:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	ErrState: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}
