package report

import "github.com/charmbracelet/lipgloss"

var (
	criticalColor = lipgloss.Color("#FF5555")
	highColor     = lipgloss.Color("#FFB86C")
	mediumColor   = lipgloss.Color("#F1FA8C")
	lowColor      = lipgloss.Color("#8BE9FD")
	infoColor     = lipgloss.Color("#6272A4")
	goodColor     = lipgloss.Color("#50FA7B")

	criticalStyle = lipgloss.NewStyle().Foreground(criticalColor).Bold(true)
	highStyle     = lipgloss.NewStyle().Foreground(highColor).Bold(true)
	mediumStyle   = lipgloss.NewStyle().Foreground(mediumColor)
	lowStyle      = lipgloss.NewStyle().Foreground(lowColor)
	infoStyle     = lipgloss.NewStyle().Foreground(infoColor)
	goodStyle     = lipgloss.NewStyle().Foreground(goodColor).Bold(true)

	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle = lipgloss.NewStyle().Foreground(infoColor)
)
