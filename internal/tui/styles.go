package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/juanibiapina/ptree/internal/process"
)

// Terminal theme colors (ANSI 0-15)
// These adapt to the user's terminal color scheme
var (
	colorBlack       = lipgloss.Color("0")
	colorRed         = lipgloss.Color("1")
	colorGreen       = lipgloss.Color("2")
	colorYellow      = lipgloss.Color("3")
	colorMagenta     = lipgloss.Color("5")
	colorCyan        = lipgloss.Color("6")
	colorWhite       = lipgloss.Color("7")
	colorBrightBlack = lipgloss.Color("8")

	// Semantic aliases
	primaryColor = colorYellow
	successColor = colorGreen
	dangerColor  = colorRed
	fgColor      = colorWhite

	headerStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(colorBlack).
			Bold(true).
			Padding(0, 1)

	// Status bar (no background - uses terminal default)
	statusBarStyle = lipgloss.NewStyle().
			Foreground(fgColor)

	columnHeaderStyle = lipgloss.NewStyle().
				Foreground(colorBrightBlack).
				Bold(true)

	// Selection uses bright black background
	selectionBg = colorBrightBlack

	selectedBgStyle = lipgloss.NewStyle().
			Background(selectionBg)

	pidStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	nameStyle = lipgloss.NewStyle()

	runningStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	sleepingStyle = lipgloss.NewStyle().
			Foreground(successColor)

	stoppedStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	zombieStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	otherStateStyle = lipgloss.NewStyle().
			Foreground(colorMagenta)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	dialogTitleStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorBrightBlack)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(fgColor)
)

func stateStyleFor(s process.State) lipgloss.Style {
	switch s {
	case process.StateRunning:
		return runningStyle
	case process.StateSleeping:
		return sleepingStyle
	case process.StateStopped:
		return stoppedStyle
	case process.StateZombie:
		return zombieStyle
	default:
		return otherStateStyle
	}
}
