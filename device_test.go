package sweep

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerResponse(cmd command, status string) []byte {
	return []byte{cmd[0], cmd[1], status[0], status[1], statusChecksum(status[0], status[1]), '\n'}
}

func paramResponse(cmd command, param, status string) []byte {
	return []byte{cmd[0], cmd[1], param[0], param[1], '\n', status[0], status[1], statusChecksum(status[0], status[1]), '\n'}
}

func infoResponse(cmd command, value string) []byte {
	return []byte{cmd[0], cmd[1], value[0], value[1], '\n'}
}

func versionResponse() []byte {
	buf := []byte("IVSWEEP1012112345678\n")
	return buf
}

func deviceInfoResponse() []byte {
	return []byte("ID115200110050001\n")
}

func packets(ps ...scanPacket) []byte {
	var buf []byte
	for _, p := range ps {
		buf = append(buf, encodeScanPacket(p)...)
	}
	return buf
}

func syncAt(deg uint16) scanPacket {
	return scanPacket{syncError: syncBit, angle: deg << 4, distance: 100, signalStrength: 50}
}

func sampleAt(deg uint16) scanPacket {
	return scanPacket{angle: deg << 4, distance: 100, signalStrength: 50}
}

// fakeSweep emulates a Sweep on the far end of a serial line. Responses to
// each command are queued for the host to read; an empty queue reads as a
// port timeout.
type fakeSweep struct {
	mu sync.Mutex
	rx bytes.Buffer

	motorSpeed     int
	sampleRateCode int
	notReadyPolls  int    // MZ answers "not ready" this many times
	startStatus    string // DS status
	adjustStatus   string // MS and LR status
	stream         []byte // delivered after a successful DS
	writeErr       error

	writes  []string
	flushes int
	closed  bool
}

func newFakeSweep() *fakeSweep {
	return &fakeSweep{
		motorSpeed:     5,
		sampleRateCode: 1,
		startStatus:    "00",
		adjustStatus:   "00",
	}
}

func (f *fakeSweep) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rx.Len() == 0 {
		return 0, nil
	}
	return f.rx.Read(p)
}

func (f *fakeSweep) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, string(p))

	cmd := command{p[0], p[1]}
	var param string
	if len(p) == 5 {
		param = string(p[2:4])
	}

	switch cmd {
	case cmdStopScan:
		f.rx.Write(headerResponse(cmd, "00"))
	case cmdStartScan:
		f.rx.Write(headerResponse(cmd, f.startStatus))
		if f.startStatus == "00" {
			f.rx.Write(f.stream)
		}
	case cmdMotorReady:
		if f.notReadyPolls > 0 {
			f.notReadyPolls--
			f.rx.Write(infoResponse(cmd, "01"))
		} else {
			f.rx.Write(infoResponse(cmd, "00"))
		}
	case cmdMotorInfo:
		f.rx.Write(infoResponse(cmd, twoDigits(f.motorSpeed)))
	case cmdMotorSpeedAdjust:
		f.rx.Write(paramResponse(cmd, param, f.adjustStatus))
		if f.adjustStatus == "00" {
			f.motorSpeed = int(param[0]-'0')*10 + int(param[1]-'0')
		}
	case cmdSampleRateInfo:
		f.rx.Write(infoResponse(cmd, twoDigits(f.sampleRateCode)))
	case cmdSampleRateAdjust:
		f.rx.Write(paramResponse(cmd, param, f.adjustStatus))
		if f.adjustStatus == "00" {
			f.sampleRateCode = int(param[1] - '0')
		}
	case cmdVersionInfo:
		f.rx.Write(versionResponse())
	case cmdDeviceInfo:
		f.rx.Write(deviceInfoResponse())
	}
	return len(p), nil
}

func (f *fakeSweep) FlushInput() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	f.rx.Reset()
	return nil
}

func (f *fakeSweep) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSweep) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func (f *fakeSweep) resetWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}

func twoDigits(v int) string {
	d, _ := encodeDigits(v)
	return string(d[:])
}

func noSleep(time.Duration) {}

func withSleep(sleep func(time.Duration)) DeviceOption {
	return func(c *deviceConfig) error {
		c.sleep = sleep
		return nil
	}
}

func newTestDevice(t *testing.T, port *fakeSweep) *Device {
	t.Helper()
	dev, err := NewDevice(port, withSleep(noSleep))
	require.NoError(t, err)
	port.resetWrites()
	return dev
}

func TestNewDevice_SendsStop(t *testing.T) {
	t.Parallel()

	port := newFakeSweep()
	// Device powered on streaming: leftover scan bytes precede the first reply
	port.rx.Write(packets(sampleAt(1), sampleAt(2)))

	dev, err := NewDevice(port, withSleep(noSleep))
	require.NoError(t, err)
	assert.Equal(t, []string{"DX\n", "DX\n"}, port.sent())
	assert.Equal(t, 1, port.flushes)

	// Stopped device: Stop is a no-op
	port.resetWrites()
	require.NoError(t, dev.Stop())
	assert.Empty(t, port.sent())
}

func TestNewDevice_StopFailure(t *testing.T) {
	t.Parallel()

	port := newFakeSweep()
	port.writeErr = errors.New("line down")

	_, err := NewDevice(port, withSleep(noSleep))
	var derr *DeviceError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "stop scanning", derr.Op)
}

func TestDevice_CommandPacing(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var sleeps []time.Duration
	record := func(d time.Duration) {
		mu.Lock()
		sleeps = append(sleeps, d)
		mu.Unlock()
	}

	port := newFakeSweep()
	_, err := NewDevice(port, withSleep(record))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []time.Duration{commandPacing, stopGracePeriod, commandPacing}, sleeps)
}

func TestDevice_Start(t *testing.T) {
	t.Parallel()

	t.Run("motor already spinning", func(t *testing.T) {
		t.Parallel()
		port := newFakeSweep()
		dev := newTestDevice(t, port)

		require.NoError(t, dev.Start())
		assert.Equal(t, []string{"MI\n", "MZ\n", "DS\n"}, port.sent())

		// Idempotent
		require.NoError(t, dev.Start())
		assert.Len(t, port.sent(), 3)
	})

	t.Run("stationary motor is spun up", func(t *testing.T) {
		t.Parallel()
		port := newFakeSweep()
		port.motorSpeed = 0
		dev := newTestDevice(t, port)

		require.NoError(t, dev.Start())
		assert.Equal(t, []string{"MI\n", "MZ\n", "MS05\n", "MZ\n", "DS\n"}, port.sent())
		assert.Equal(t, 5, port.motorSpeed)
	})

	t.Run("waits for motor ready", func(t *testing.T) {
		t.Parallel()
		port := newFakeSweep()
		port.notReadyPolls = 3
		dev := newTestDevice(t, port)

		require.NoError(t, dev.Start())
		assert.Equal(t, []string{"MI\n", "MZ\n", "MZ\n", "MZ\n", "MZ\n", "DS\n"}, port.sent())
	})

	t.Run("motor never ready", func(t *testing.T) {
		t.Parallel()
		port := newFakeSweep()
		port.notReadyPolls = motorReadyAttempts
		dev := newTestDevice(t, port)

		err := dev.Start()
		assert.ErrorIs(t, err, ErrMotorNotReady)
		assert.NotContains(t, port.sent(), "DS\n")
	})

	t.Run("status codes", func(t *testing.T) {
		t.Parallel()
		for status, want := range map[string]error{"12": ErrMotorNotStabilized, "13": ErrMotorStationary} {
			port := newFakeSweep()
			port.startStatus = status
			dev := newTestDevice(t, port)

			err := dev.Start()
			var derr *DeviceError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, "start scanning", derr.Op)
			assert.ErrorIs(t, err, want)

			// Not scanning after a failed start; Stop is safe
			assert.NoError(t, dev.Stop())
		}
	})
}

func TestDevice_NextScan(t *testing.T) {
	t.Parallel()

	port := newFakeSweep()
	port.stream = packets(
		sampleAt(350), // tail of a revolution already in progress
		syncAt(0),
		sampleAt(90),
		scanPacket{syncError: 0x02, angle: 100 << 4}, // error flagged
		sampleAt(180),
		syncAt(1),
		sampleAt(91),
		syncAt(2),
	)
	dev := newTestDevice(t, port)
	require.NoError(t, dev.Start())

	scan, err := dev.NextScan()
	require.NoError(t, err)
	require.Equal(t, 3, scan.Len())
	assert.Equal(t, int32(0), scan.At(0).Angle)
	assert.Equal(t, int32(90000), scan.At(1).Angle)
	assert.Equal(t, int32(180000), scan.At(2).Angle)
	assert.Equal(t, int32(100), scan.At(0).Distance)
	assert.Equal(t, int32(50), scan.At(0).SignalStrength)

	scan, err = dev.NextScan()
	require.NoError(t, err)
	require.Equal(t, 2, scan.Len())
	assert.Equal(t, int32(1000), scan.At(0).Angle)
	assert.Equal(t, int32(91000), scan.At(1).Angle)

	// Stream exhausted mid-revolution
	_, err = dev.NextScan()
	var derr *DeviceError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "get scan", derr.Op)
	assert.ErrorIs(t, err, ErrReadTimeout)
}

func TestDevice_NextScanChecksumError(t *testing.T) {
	t.Parallel()

	port := newFakeSweep()
	stream := packets(syncAt(0), sampleAt(10))
	stream[len(stream)-1]++
	port.stream = stream
	dev := newTestDevice(t, port)
	require.NoError(t, dev.Start())

	_, err := dev.NextScan()
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestDevice_NextScanTooManySamples(t *testing.T) {
	t.Parallel()

	ps := []scanPacket{syncAt(0)}
	for i := 0; i < maxSamples; i++ {
		ps = append(ps, sampleAt(uint16(i%360)))
	}
	port := newFakeSweep()
	port.stream = packets(ps...)
	dev := newTestDevice(t, port)
	require.NoError(t, dev.Start())

	_, err := dev.NextScan()
	assert.ErrorIs(t, err, ErrTooManySamples)
}

func TestDevice_NextScanRequiresStart(t *testing.T) {
	t.Parallel()

	dev := newTestDevice(t, newFakeSweep())
	_, err := dev.NextScan()
	assert.ErrorIs(t, err, ErrNotScanning)
}

func TestDevice_Stop(t *testing.T) {
	t.Parallel()

	port := newFakeSweep()
	port.stream = packets(syncAt(0), sampleAt(1), sampleAt(2), syncAt(3))
	dev := newTestDevice(t, port)
	require.NoError(t, dev.Start())
	port.resetWrites()

	require.NoError(t, dev.Stop())
	assert.Equal(t, []string{"DX\n", "DX\n"}, port.sent())

	// Settings are reachable again once stopped
	speed, err := dev.MotorSpeed()
	require.NoError(t, err)
	assert.Equal(t, 5, speed)
}

func TestDevice_SettingsWhileScanning(t *testing.T) {
	t.Parallel()

	dev := newTestDevice(t, newFakeSweep())
	require.NoError(t, dev.Start())

	_, err := dev.MotorSpeed()
	assert.ErrorIs(t, err, ErrScanning)
	assert.ErrorIs(t, dev.SetSampleRate(750), ErrScanning)
	_, err = dev.Version()
	assert.ErrorIs(t, err, ErrScanning)
}

func TestDevice_MotorSpeed(t *testing.T) {
	t.Parallel()

	port := newFakeSweep()
	dev := newTestDevice(t, port)

	require.NoError(t, dev.SetMotorSpeed(10))
	assert.Equal(t, []string{"MZ\n", "MS10\n"}, port.sent())

	speed, err := dev.MotorSpeed()
	require.NoError(t, err)
	assert.Equal(t, 10, speed)

	ready, err := dev.MotorReady()
	require.NoError(t, err)
	assert.True(t, ready)

	assert.ErrorIs(t, dev.SetMotorSpeed(11), ErrInvalidMotorSpeed)
	assert.ErrorIs(t, dev.SetMotorSpeed(-1), ErrInvalidMotorSpeed)

	port.adjustStatus = "12"
	assert.ErrorIs(t, dev.SetMotorSpeed(3), ErrMotorNotStabilized)
	port.adjustStatus = "11"
	assert.ErrorIs(t, dev.SetMotorSpeed(3), ErrInvalidParameter)
}

func TestDevice_SampleRate(t *testing.T) {
	t.Parallel()

	port := newFakeSweep()
	dev := newTestDevice(t, port)

	rate, err := dev.SampleRate()
	require.NoError(t, err)
	assert.Equal(t, 500, rate)

	require.NoError(t, dev.SetSampleRate(1000))
	assert.Contains(t, port.sent(), "LR03\n")

	rate, err = dev.SampleRate()
	require.NoError(t, err)
	assert.Equal(t, 1000, rate)

	assert.ErrorIs(t, dev.SetSampleRate(600), ErrInvalidSampleRate)

	port.adjustStatus = "11"
	assert.ErrorIs(t, dev.SetSampleRate(750), ErrInvalidParameter)
}

func TestDevice_VersionAndInfo(t *testing.T) {
	t.Parallel()

	dev := newTestDevice(t, newFakeSweep())

	version, err := dev.Version()
	require.NoError(t, err)
	assert.Equal(t, "SWEEP", version.Model)
	assert.Equal(t, "12345678", version.SerialNumber)

	info, err := dev.Info()
	require.NoError(t, err)
	assert.Equal(t, 115200, info.BitRate)
	assert.Equal(t, 5, info.MotorSpeed)
}

func TestDevice_ResetAndClose(t *testing.T) {
	t.Parallel()

	port := newFakeSweep()
	dev := newTestDevice(t, port)

	require.NoError(t, dev.Reset())
	assert.Equal(t, []string{"RR\n"}, port.sent())

	require.NoError(t, dev.Close())
	assert.True(t, port.closed)
	require.NoError(t, dev.Close())

	assert.ErrorIs(t, dev.Start(), ErrDeviceClosed)
	assert.NoError(t, dev.Stop())
	_, err := dev.MotorSpeed()
	assert.ErrorIs(t, err, ErrDeviceClosed)
}

func TestDevice_CloseStopsScanning(t *testing.T) {
	t.Parallel()

	port := newFakeSweep()
	dev := newTestDevice(t, port)
	require.NoError(t, dev.Start())
	port.resetWrites()

	require.NoError(t, dev.Close())
	assert.Equal(t, []string{"DX\n", "DX\n"}, port.sent())
	assert.True(t, port.closed)
}

func TestDevice_InPipeline(t *testing.T) {
	t.Parallel()

	port := newFakeSweep()
	port.stream = packets(syncAt(0), sampleAt(1), syncAt(2), sampleAt(3), syncAt(4))
	dev := newTestDevice(t, port)

	sink := &recordingSink{}
	p, err := New(testConfig(2, time.Hour), dev, sink)
	require.NoError(t, err)
	require.NoError(t, p.Run())

	// Two full revolutions, then the stream runs dry and the read times out
	err = joinWithin(t, p, 2*time.Second)
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.Equal(t, []int32{0, 2000}, sink.angles())
	assert.Equal(t, ProducerFaulted, p.ProducerState())
}
