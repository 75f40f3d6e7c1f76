package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScan_CopiesInput(t *testing.T) {
	t.Parallel()

	in := []Sample{{Angle: 1000, Distance: 50, SignalStrength: 10}, {Angle: 2000, Distance: 60, SignalStrength: 20}}
	scan := NewScan(in)
	in[0].Distance = 999

	require.Equal(t, 2, scan.Len())
	assert.Equal(t, int32(50), scan.At(0).Distance)
}

func TestScan_SamplesReturnsCopy(t *testing.T) {
	t.Parallel()

	scan := NewScan([]Sample{{Angle: 1000, Distance: 50}})
	out := scan.Samples()
	out[0].Angle = 0

	assert.Equal(t, int32(1000), scan.At(0).Angle)
}

func TestScan_Empty(t *testing.T) {
	t.Parallel()

	var zero Scan
	assert.Equal(t, 0, zero.Len())
	assert.Empty(t, zero.Samples())
	assert.Equal(t, 0, NewScan(nil).Len())
}
