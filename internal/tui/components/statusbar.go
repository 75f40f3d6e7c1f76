package components

import (
	"fmt"

	"github.com/allbin/go-sweep"
	"github.com/allbin/go-sweep/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

type StatusBar struct {
	portPath string
	stats    sweep.Stats
	scanRate float64
	paused   bool
	err      error
	width    int
}

func NewStatusBar(portPath string) *StatusBar {
	return &StatusBar{portPath: portPath}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetStats(stats sweep.Stats) {
	sb.stats = stats
}

// SetScanRate sets the observed scans per second.
func (sb *StatusBar) SetScanRate(rate float64) {
	sb.scanRate = rate
}

func (sb *StatusBar) SetPaused(paused bool) {
	sb.paused = paused
}

func (sb *StatusBar) SetError(err error) {
	sb.err = err
}

// View renders a single-line bar: mode, port and producer state on the left,
// queue and throughput on the right.
func (sb *StatusBar) View() string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	modeStyle := lipgloss.NewStyle().
		Foreground(styles.Base).
		Bold(true).
		Padding(0, 1)
	var modeText string
	switch {
	case sb.err != nil:
		modeStyle = modeStyle.Background(styles.Red)
		modeText = "FAULT"
	case sb.paused:
		modeStyle = modeStyle.Background(styles.Peach)
		modeText = "PAUSED"
	default:
		modeStyle = modeStyle.Background(styles.Blue)
		modeText = "LIVE"
	}
	mode := modeStyle.Render(modeText)

	port := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.portPath)

	indicator, indicatorStyle := styles.ProducerIndicator(sb.stats.Producer)
	state := indicatorStyle.Render(fmt.Sprintf("%s %s", indicator, sb.stats.Producer))

	divider := lipgloss.NewStyle().
		Foreground(styles.Surface2).
		Padding(0, 1).
		Render("│")

	infoStyle := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Padding(0, 1)
	queue := infoStyle.Render(fmt.Sprintf("queue %d/%d (peak %d)",
		sb.stats.Depth, sb.stats.Capacity, sb.stats.HighWater))
	scans := infoStyle.Render(fmt.Sprintf("%d scans", sb.stats.Processed))
	rate := lipgloss.NewStyle().
		Foreground(styles.Teal).
		Padding(0, 1).
		Render(fmt.Sprintf("%.1f scans/s", sb.scanRate))

	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, mode, port, state, divider)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, queue, divider, scans, divider, rate)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
