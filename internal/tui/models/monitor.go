package models

import (
	"fmt"
	"time"

	"github.com/allbin/go-sweep"
	"github.com/allbin/go-sweep/internal/tui/components"
	"github.com/allbin/go-sweep/internal/tui/keys"
	"github.com/allbin/go-sweep/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	statsInterval = 250 * time.Millisecond
	rateWindow    = 10
)

// ScanMsg carries one scan from the pipeline's sink to the program.
type ScanMsg struct {
	Scan sweep.Scan
	At   time.Time
}

// DoneMsg reports that the pipeline has been joined.
type DoneMsg struct {
	Err error
}

type statsTickMsg time.Time

// NewSink returns a sink that forwards every scan through send, normally
// (*tea.Program).Send. send blocks until the program takes the message, so a
// slow display backs up the pipeline's queue instead of dropping scans.
func NewSink(send func(tea.Msg)) sweep.Sink {
	return sweep.SinkFunc(func(s sweep.Scan) {
		send(ScanMsg{Scan: s, At: time.Now()})
	})
}

// MonitorModel shows the latest scan of a running pipeline.
type MonitorModel struct {
	portPath string
	stats    func() sweep.Stats

	keys      keys.MonitorKeys
	help      help.Model
	statusBar *components.StatusBar
	table     *components.ScanTable

	latest   sweep.Scan
	received int
	rate     rateMeter
	paused   bool
	done     bool
	err      error

	width  int
	height int
}

// NewMonitorModel builds the model. stats is polled for the status bar and
// may be nil.
func NewMonitorModel(portPath string, stats func() sweep.Stats) *MonitorModel {
	return &MonitorModel{
		portPath:  portPath,
		stats:     stats,
		keys:      keys.NewMonitorKeys(),
		help:      help.New(),
		statusBar: components.NewStatusBar(portPath),
		table:     components.NewScanTable(20),
		rate:      rateMeter{size: rateWindow},
	}
}

func (m *MonitorModel) Init() tea.Cmd {
	return tickStats()
}

func tickStats() tea.Cmd {
	return tea.Tick(statsInterval, func(t time.Time) tea.Msg {
		return statsTickMsg(t)
	})
}

func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// title line, content border and status bar
		m.table.SetHeight(msg.Height - 3)
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width

	case ScanMsg:
		m.received++
		m.latest = msg.Scan
		m.rate.observe(msg.At)
		if !m.paused {
			m.table.SetScan(msg.Scan)
		}

	case statsTickMsg:
		m.refreshStatus()
		if m.done {
			return m, nil
		}
		return m, tickStats()

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.statusBar.SetError(msg.Err)
		m.refreshStatus()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			m.statusBar.SetPaused(m.paused)
			if !m.paused {
				m.table.SetScan(m.latest)
			}

		case key.Matches(msg, m.keys.Clear):
			m.table.Clear()

		default:
			return m, m.table.Update(msg)
		}
	}

	return m, nil
}

func (m *MonitorModel) refreshStatus() {
	if m.stats != nil {
		m.statusBar.SetStats(m.stats())
	}
	m.statusBar.SetScanRate(m.rate.rate())
}

func (m *MonitorModel) View() string {
	title := lipgloss.JoinHorizontal(lipgloss.Left,
		styles.TitleStyle.Render("Sweep monitor"),
		styles.SubtitleStyle.Render(fmt.Sprintf("scan %d, %d samples", m.received, m.latest.Len())),
	)

	var content string
	switch {
	case m.err != nil:
		content = styles.ErrorStyle.Render(fmt.Sprintf("Acquisition stopped: %v", m.err))
	case m.received == 0 && !m.done:
		content = "Waiting for the first scan..."
	default:
		content = m.table.View()
	}

	sections := []string{title, styles.ContentBorderStyle.Render(content)}
	if m.help.ShowAll {
		sections = append(sections, styles.HelpStyle.Render(m.help.View(m.keys)))
	}
	sections = append(sections, m.statusBar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Err returns the fault the pipeline stopped with, if any.
func (m *MonitorModel) Err() error {
	return m.err
}

// rateMeter estimates scans per second over the last size arrivals.
type rateMeter struct {
	size  int
	times []time.Time
}

func (r *rateMeter) observe(t time.Time) {
	r.times = append(r.times, t)
	if len(r.times) > r.size {
		r.times = r.times[len(r.times)-r.size:]
	}
}

func (r *rateMeter) rate() float64 {
	if len(r.times) < 2 {
		return 0
	}
	span := r.times[len(r.times)-1].Sub(r.times[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(len(r.times)-1) / span
}
