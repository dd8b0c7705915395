package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Prompt   lipgloss.Style
	Cursor   lipgloss.Style
	Help     lipgloss.Style
	Status   lipgloss.Style
	Pane     lipgloss.Style
}

func DefaultTheme() Theme {
	green := lipgloss.Color("#3fb950")
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c9d1d9")),
		Subtitle: lipgloss.NewStyle().Faint(true),
		Prompt:   lipgloss.NewStyle().Foreground(green),
		Cursor:   lipgloss.NewStyle().Foreground(green),
		Help:     lipgloss.NewStyle().Faint(true),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff")),
		Pane: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#30363d")),
	}
}
