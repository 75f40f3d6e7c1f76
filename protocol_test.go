package sweep

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCommand(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte("DS\n"), encodeCommand(cmdStartScan))
	assert.Equal(t, []byte("RR\n"), encodeCommand(cmdReset))

	buf, err := encodeCommandParam(cmdMotorSpeedAdjust, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("MS05\n"), buf)

	buf, err = encodeCommandParam(cmdMotorSpeedAdjust, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("MS10\n"), buf)

	_, err = encodeCommandParam(cmdSampleRateAdjust, 100)
	assert.Error(t, err)
	_, err = encodeCommandParam(cmdSampleRateAdjust, -1)
	assert.Error(t, err)
}

func TestDecodeDigits(t *testing.T) {
	t.Parallel()

	v, err := decodeDigits([]byte("07"))
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = decodeDigits([]byte("115200"))
	require.NoError(t, err)
	assert.Equal(t, 115200, v)

	_, err = decodeDigits([]byte("0x"))
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
	_, err = decodeDigits(nil)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestStatusChecksum(t *testing.T) {
	t.Parallel()

	assert.Equal(t, byte('P'), statusChecksum('0', '0'))
	assert.Equal(t, byte(((('1'+'2')&0x3F)+0x30)), statusChecksum('1', '2'))
}

func TestParseHeader(t *testing.T) {
	t.Parallel()

	status, err := parseHeader(headerResponse(cmdStartScan, "00"), cmdStartScan)
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	status, err = parseHeader(headerResponse(cmdStartScan, "12"), cmdStartScan)
	require.NoError(t, err)
	assert.Equal(t, statusNotStabilized, status)

	_, err = parseHeader(headerResponse(cmdStopScan, "00"), cmdStartScan)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)

	bad := headerResponse(cmdStartScan, "00")
	bad[4]++
	_, err = parseHeader(bad, cmdStartScan)
	assert.ErrorIs(t, err, ErrChecksum)

	_, err = parseHeader([]byte("DS"), cmdStartScan)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestParseParamResponse(t *testing.T) {
	t.Parallel()

	status, err := parseParamResponse(paramResponse(cmdMotorSpeedAdjust, "05", "11"), cmdMotorSpeedAdjust)
	require.NoError(t, err)
	assert.Equal(t, statusInvalidParameter, status)

	bad := paramResponse(cmdMotorSpeedAdjust, "05", "00")
	bad[7] = 0
	_, err = parseParamResponse(bad, cmdMotorSpeedAdjust)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestParseInfoResponse(t *testing.T) {
	t.Parallel()

	v, err := parseInfoResponse(infoResponse(cmdMotorInfo, "07"), cmdMotorInfo)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = parseInfoResponse(infoResponse(cmdMotorReady, "00"), cmdMotorInfo)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestParseVersionInfo(t *testing.T) {
	t.Parallel()

	info, err := parseVersionInfo(versionResponse())
	require.NoError(t, err)
	assert.Equal(t, "SWEEP", info.Model)
	assert.Equal(t, "1.0", info.Protocol())
	assert.Equal(t, "1.2", info.Firmware())
	assert.Equal(t, 1, info.HardwareVersion)
	assert.Equal(t, "12345678", info.SerialNumber)
}

func TestParseDeviceInfo(t *testing.T) {
	t.Parallel()

	info, err := parseDeviceInfo(deviceInfoResponse())
	require.NoError(t, err)
	assert.Equal(t, 115200, info.BitRate)
	assert.Equal(t, byte('1'), info.LaserState)
	assert.Equal(t, byte('1'), info.Mode)
	assert.Equal(t, byte('0'), info.Diagnostic)
	assert.Equal(t, 5, info.MotorSpeed)
	assert.Equal(t, 500, info.SampleRate)
}

func TestSampleRateCodes(t *testing.T) {
	t.Parallel()

	for hz, code := range map[int]int{500: 1, 750: 2, 1000: 3} {
		c, ok := sampleRateCode(hz)
		require.True(t, ok)
		assert.Equal(t, code, c)
		r, ok := sampleRateFromCode(code)
		require.True(t, ok)
		assert.Equal(t, hz, r)
	}
	_, ok := sampleRateCode(600)
	assert.False(t, ok)
	_, ok = sampleRateFromCode(4)
	assert.False(t, ok)
}

func TestAngleToMillidegrees(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  uint16
		want int32
	}{
		{0, 0},
		{16, 1000},            // 1 degree
		{24, 1500},            // 1.5 degrees
		{90 << 4, 90000},      // 90 degrees
		{359<<4 | 15, 359937}, // 359 + 15/16 degrees
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, angleToMillidegrees(tt.raw), "raw %d", tt.raw)
	}
}

func TestParseScanPacket(t *testing.T) {
	t.Parallel()

	buf := encodeScanPacket(scanPacket{syncError: syncBit, angle: 0x0100, distance: 0x0203, signalStrength: 200})
	require.Len(t, buf, scanPacketSize)
	// Checksum covers the high angle and distance bytes unshifted
	assert.Equal(t, byte((1+0x00+0x01+0x03+0x02+200)%255), buf[6])

	p, err := parseScanPacket(buf)
	require.NoError(t, err)
	assert.True(t, p.isSync())
	assert.False(t, p.hasError())
	assert.Equal(t, Sample{Angle: 16000, Distance: 0x0203, SignalStrength: 200}, p.sample())

	buf[3] ^= 0xFF
	_, err = parseScanPacket(buf)
	assert.ErrorIs(t, err, ErrChecksum)

	flagged, err := parseScanPacket(encodeScanPacket(scanPacket{syncError: 0x02}))
	require.NoError(t, err)
	assert.True(t, flagged.hasError())
	assert.False(t, flagged.isSync())
}

// trickleReader hands out at most one byte per Read.
type trickleReader struct{ r io.Reader }

func (t trickleReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return t.r.Read(p[:1])
}

// idleReader behaves like a port whose read timeout expired.
type idleReader struct{}

func (idleReader) Read([]byte) (int, error) { return 0, nil }

func TestReadFull(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 4)
	require.NoError(t, readFull(trickleReader{bytes.NewReader([]byte("abcd"))}, buf))
	assert.Equal(t, []byte("abcd"), buf)

	err := readFull(bytes.NewReader([]byte("ab")), buf)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	err = readFull(idleReader{}, buf)
	assert.ErrorIs(t, err, ErrReadTimeout)
}
