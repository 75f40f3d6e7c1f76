package components

import (
	"errors"
	"testing"

	"github.com/allbin/go-sweep"
	"github.com/stretchr/testify/assert"
)

func TestFormatAngle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.000", formatAngle(0))
	assert.Equal(t, "90.062", formatAngle(90062))
	assert.Equal(t, "359.937", formatAngle(359937))
}

func TestScanTable(t *testing.T) {
	t.Parallel()

	st := NewScanTable(20)
	assert.Equal(t, 0, st.Rows())

	st.SetScan(sweep.NewScan([]sweep.Sample{
		{Angle: 0, Distance: 120, SignalStrength: 200},
		{Angle: 1500, Distance: 121, SignalStrength: 190},
		{Angle: 3000, Distance: 119, SignalStrength: 180},
	}))
	assert.Equal(t, 3, st.Rows())
	assert.Contains(t, st.View(), "1.500")

	st.Clear()
	assert.Equal(t, 0, st.Rows())
}

func TestScanTableTinyHeight(t *testing.T) {
	t.Parallel()

	st := NewScanTable(0)
	st.SetScan(sweep.NewScan([]sweep.Sample{{Angle: 1000, Distance: 5}}))
	assert.Equal(t, 1, st.Rows())
	assert.NotEmpty(t, st.View())
}

func TestStatusBarView(t *testing.T) {
	t.Parallel()

	sb := NewStatusBar("/dev/ttyUSB0")
	sb.SetWidth(160)
	sb.SetStats(sweep.Stats{
		Producer:  sweep.ProducerRunning,
		Depth:     3,
		Capacity:  16,
		HighWater: 5,
		Processed: 42,
	})
	sb.SetScanRate(9.5)

	view := sb.View()
	assert.Contains(t, view, "LIVE")
	assert.Contains(t, view, "/dev/ttyUSB0")
	assert.Contains(t, view, "queue 3/16 (peak 5)")
	assert.Contains(t, view, "42 scans")
	assert.Contains(t, view, "9.5 scans/s")

	sb.SetPaused(true)
	assert.Contains(t, sb.View(), "PAUSED")

	sb.SetError(errors.New("boom"))
	assert.Contains(t, sb.View(), "FAULT")
}
