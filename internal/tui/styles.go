package tui

import "github.com/charmbracelet/lipgloss"

// Terminal styles
var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	BulletStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).PaddingRight(1)
	TextStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	DimTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	SpinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	SummaryStyle  = lipgloss.NewStyle().PaddingLeft(2).Width(72)
	PartialStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	SuccessStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	SettingsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)
