package tui

import "github.com/charmbracelet/lipgloss"

// Color constants
const (
	ColorPhosphor = "#33FF66"
	ColorDim      = "#1F8F3F"
	ColorError    = "#FF5555"
	ColorSelected = "#0B3D1A"
)

const displayWidth = 28

var (
	displayBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDim)).
			Padding(0, 1).
			Width(displayWidth)

	previousStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorDim)).
			Width(displayWidth).
			Align(lipgloss.Right)

	displayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorPhosphor)).
			Bold(true).
			Width(displayWidth).
			Align(lipgloss.Right)

	errorDisplayStyle = displayStyle.
				Foreground(lipgloss.Color(ColorError))

	historyTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorPhosphor)).
				Bold(true).
				MarginTop(1)

	historyItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorDim)).
				PaddingLeft(1)

	historySelectedStyle = historyItemStyle.
				Foreground(lipgloss.Color(ColorPhosphor)).
				Background(lipgloss.Color(ColorSelected))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Italic(true)
)
