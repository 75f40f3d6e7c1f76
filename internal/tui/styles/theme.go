package styles

import (
	"github.com/allbin/go-sweep"
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha palette
var (
	Base     = lipgloss.Color("#1e1e2e")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Overlay0 = lipgloss.Color("#6c7086")
	Subtext0 = lipgloss.Color("#a6adc8")
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4")

	Blue   = lipgloss.Color("#89b4fa")
	Teal   = lipgloss.Color("#94e2d5")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Mauve).
			Background(Surface0).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Subtext0).
			Padding(0, 1)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Surface1)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Text)

	TableBaseStyle = lipgloss.NewStyle().
			Foreground(Subtext1).
			BorderForeground(Surface2).
			Align(lipgloss.Right)

	HelpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Padding(1, 2).
			Margin(1, 0)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Red)
)

// ProducerIndicator returns the single-character marker and its style for a
// producer state.
func ProducerIndicator(state sweep.ProducerState) (string, lipgloss.Style) {
	switch state {
	case sweep.ProducerRunning:
		return "●", lipgloss.NewStyle().Foreground(Green)
	case sweep.ProducerDraining:
		return "◐", lipgloss.NewStyle().Foreground(Yellow)
	case sweep.ProducerStopped:
		return "○", lipgloss.NewStyle().Foreground(Overlay0)
	case sweep.ProducerFaulted:
		return "✗", lipgloss.NewStyle().Foreground(Red)
	default:
		return "○", lipgloss.NewStyle().Foreground(Yellow)
	}
}
