package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha subset — true-color hex values.
const (
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorRed      lipgloss.Color = "#f38ba8"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay  lipgloss.Color = "#6c7086"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorLavender)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorLavender).Bold(true)
	acceptedStyle = lipgloss.NewStyle().Foreground(colorGreen)
	rejectedStyle = lipgloss.NewStyle().Foreground(colorRed).Strikethrough(true)
	unmappedStyle = lipgloss.NewStyle().Foreground(colorYellow)
	helpStyle     = lipgloss.NewStyle().Foreground(colorOverlay)
	statusStyle   = lipgloss.NewStyle().Foreground(colorText).Italic(true)
)
