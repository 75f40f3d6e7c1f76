package components

import (
	"fmt"

	"github.com/allbin/go-sweep"
	"github.com/allbin/go-sweep/internal/tui/styles"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/evertras/bubble-table/table"
)

const (
	columnKeyIndex    = "index"
	columnKeyAngle    = "angle"
	columnKeyDistance = "distance"
	columnKeySignal   = "signal"
)

// header, header border and pagination footer
const tableChromeHeight = 5

// ScanTable shows the samples of one scan, one row per sample.
type ScanTable struct {
	model table.Model
	rows  int
}

func NewScanTable(height int) *ScanTable {
	columns := []table.Column{
		table.NewColumn(columnKeyIndex, "#", 6),
		table.NewColumn(columnKeyAngle, "Angle (°)", 12),
		table.NewColumn(columnKeyDistance, "Distance (cm)", 15),
		table.NewColumn(columnKeySignal, "Signal", 8),
	}

	st := &ScanTable{
		model: table.New(columns).
			HeaderStyle(styles.TableHeaderStyle).
			WithBaseStyle(styles.TableBaseStyle).
			Focused(true),
	}
	st.SetHeight(height)
	return st
}

// SetHeight fits the page size to the lines available.
func (st *ScanTable) SetHeight(height int) {
	pageSize := height - tableChromeHeight
	if pageSize < 1 {
		pageSize = 1
	}
	st.model = st.model.WithPageSize(pageSize)
}

// SetScan replaces the table contents with the samples of s.
func (st *ScanTable) SetScan(s sweep.Scan) {
	rows := make([]table.Row, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		sample := s.At(i)
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyIndex:    fmt.Sprintf("%d", i),
			columnKeyAngle:    formatAngle(sample.Angle),
			columnKeyDistance: fmt.Sprintf("%d", sample.Distance),
			columnKeySignal:   fmt.Sprintf("%d", sample.SignalStrength),
		}))
	}
	st.model = st.model.WithRows(rows)
	st.rows = len(rows)
}

func (st *ScanTable) Clear() {
	st.model = st.model.WithRows(nil)
	st.rows = 0
}

// Rows returns the number of samples shown.
func (st *ScanTable) Rows() int {
	return st.rows
}

func (st *ScanTable) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	st.model, cmd = st.model.Update(msg)
	return cmd
}

func (st *ScanTable) View() string {
	return st.model.View()
}

// formatAngle renders millidegrees as degrees with three decimals.
func formatAngle(millidegrees int32) string {
	return fmt.Sprintf("%d.%03d", millidegrees/1000, millidegrees%1000)
}
