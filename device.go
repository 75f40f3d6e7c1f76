package sweep

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/allbin/go-sweep/internal/serialport"
)

// Protocol timing
const (
	commandPacing      = 2 * time.Millisecond
	stopGracePeriod    = 35 * time.Millisecond
	motorReadyAttempts = 20
	motorReadyInterval = 500 * time.Millisecond
	defaultMotorSpeed  = 5 // Hz
	maxMotorSpeed      = 10
	maxSamples         = 4096
)

// Port is the byte stream a Device talks over. Read returning (0, nil) is
// taken to mean the port's read timeout expired.
type Port interface {
	io.ReadWriter
	io.Closer
	FlushInput() error
}

type deviceConfig struct {
	baudRate    int
	readTimeout time.Duration
	logger      *slog.Logger
	sleep       func(time.Duration)
}

// DeviceOption configures a Device
type DeviceOption func(*deviceConfig) error

// WithBaudRate sets the serial bit rate used by OpenDevice.
func WithBaudRate(rate int) DeviceOption {
	return func(c *deviceConfig) error {
		if !serialport.ValidBaudRate(rate) {
			return fmt.Errorf("%w: %d", ErrInvalidBaudRate, rate)
		}
		c.baudRate = rate
		return nil
	}
}

// WithReadTimeout sets how long a read may wait for the device before
// failing. See serialport.WithReadTimeout for the accepted range.
func WithReadTimeout(d time.Duration) DeviceOption {
	return func(c *deviceConfig) error {
		c.readTimeout = d
		return nil
	}
}

// WithDeviceLogger sets the logger for protocol-level events.
func WithDeviceLogger(logger *slog.Logger) DeviceOption {
	return func(c *deviceConfig) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		c.logger = logger
		return nil
	}
}

func defaultDeviceConfig() deviceConfig {
	return deviceConfig{
		baudRate:    DefaultBaudRate,
		readTimeout: serialport.DefaultConfig().ReadTimeout,
		logger:      slog.New(slog.DiscardHandler),
		sleep:       time.Sleep,
	}
}

// Device drives a Sweep over a serial port. It implements ScanSource.
//
// Methods are safe for concurrent use but serialize on the port; NextScan
// holds the device until a full scan has been read.
type Device struct {
	mu       sync.Mutex
	port     Port
	logger   *slog.Logger
	sleep    func(time.Duration)
	scanning bool
	closed   bool

	// sync reading that opens the scan being assembled, nil until the
	// first sync after Start
	pending *Sample
	packet  [scanPacketSize]byte
}

// OpenDevice opens the serial port at path and returns a stopped Device.
func OpenDevice(path string, opts ...DeviceOption) (*Device, error) {
	cfg := defaultDeviceConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, &DeviceError{Op: "open", Err: err}
		}
	}

	port, err := serialport.Open(path,
		serialport.WithBaudRate(cfg.baudRate),
		serialport.WithReadTimeout(cfg.readTimeout),
	)
	if err != nil {
		return nil, &DeviceError{Op: "open " + path, Err: err}
	}

	cfg.logger = cfg.logger.With("device", path)
	dev, err := newDevice(port, cfg)
	if err != nil {
		port.Close()
		return nil, err
	}
	return dev, nil
}

// NewDevice wraps an already open port. The device may have been powered on
// while scanning, so a stop sequence is sent before returning.
func NewDevice(port Port, opts ...DeviceOption) (*Device, error) {
	cfg := defaultDeviceConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, &DeviceError{Op: "open", Err: err}
		}
	}
	return newDevice(port, cfg)
}

func newDevice(port Port, cfg deviceConfig) (*Device, error) {
	d := &Device{
		port:     port,
		logger:   cfg.logger,
		sleep:    cfg.sleep,
		scanning: true,
	}
	if err := d.stopScanning(); err != nil {
		return nil, &DeviceError{Op: "stop scanning", Err: err}
	}
	return d, nil
}

// Start brings the motor up to speed if needed and starts data acquisition.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return &DeviceError{Op: "start scanning", Err: ErrDeviceClosed}
	}
	if d.scanning {
		return nil
	}

	speed, err := d.motorSpeed()
	if err != nil {
		return &DeviceError{Op: "start scanning", Err: err}
	}
	if speed == 0 {
		d.logger.Info("motor is stationary, spinning up", "hz", defaultMotorSpeed)
		if err := d.setMotorSpeed(defaultMotorSpeed); err != nil {
			return &DeviceError{Op: "start scanning", Err: err}
		}
	}

	if err := d.waitUntilMotorReady(); err != nil {
		return &DeviceError{Op: "start scanning", Err: err}
	}

	if err := d.writeCommand(cmdStartScan); err != nil {
		return &DeviceError{Op: "start scanning", Err: err}
	}
	status, err := d.readHeader(cmdStartScan)
	if err != nil {
		return &DeviceError{Op: "start scanning", Err: err}
	}
	switch status {
	case statusNotStabilized:
		return &DeviceError{Op: "start scanning", Err: ErrMotorNotStabilized}
	case statusMotorStationary:
		return &DeviceError{Op: "start scanning", Err: ErrMotorStationary}
	}

	d.scanning = true
	d.pending = nil
	d.logger.Info("scanning started")
	return nil
}

// Stop ends data acquisition. Calling it on a stopped or closed device is a
// no-op.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || !d.scanning {
		return nil
	}
	if err := d.stopScanning(); err != nil {
		return &DeviceError{Op: "stop scanning", Err: err}
	}
	d.logger.Info("scanning stopped")
	return nil
}

func (d *Device) stopScanning() error {
	if err := d.writeCommand(cmdStopScan); err != nil {
		return err
	}

	// Give the device time to stop streaming and answer
	d.sleep(stopGracePeriod)

	// The first response is usually buried in scan data
	if _, err := d.readHeader(cmdStopScan); err != nil {
		d.logger.Debug("discarding first stop response", "error", err)
	}
	if err := d.port.FlushInput(); err != nil {
		return err
	}

	if err := d.writeCommand(cmdStopScan); err != nil {
		return err
	}
	if _, err := d.readHeader(cmdStopScan); err != nil {
		return err
	}

	d.scanning = false
	d.pending = nil
	return nil
}

// NextScan blocks until a complete revolution has been received. Samples
// before the first sync reading are discarded and readings flagged with an
// error are skipped.
func (d *Device) NextScan() (Scan, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return Scan{}, &DeviceError{Op: "get scan", Err: ErrDeviceClosed}
	}
	if !d.scanning {
		return Scan{}, &DeviceError{Op: "get scan", Err: ErrNotScanning}
	}

	var samples []Sample
	if d.pending != nil {
		samples = append(samples, *d.pending)
	}

	for {
		if err := readFull(d.port, d.packet[:]); err != nil {
			return Scan{}, &DeviceError{Op: "get scan", Err: err}
		}
		p, err := parseScanPacket(d.packet[:])
		if err != nil {
			return Scan{}, &DeviceError{Op: "get scan", Err: err}
		}
		if p.hasError() {
			continue
		}

		s := p.sample()
		if p.isSync() {
			started := d.pending != nil
			d.pending = &s
			if started {
				return Scan{samples: samples}, nil
			}
			samples = append(samples[:0], s)
			continue
		}

		if d.pending == nil {
			continue
		}
		if len(samples) >= maxSamples {
			return Scan{}, &DeviceError{Op: "get scan", Err: ErrTooManySamples}
		}
		samples = append(samples, s)
	}
}

// MotorReady reports whether the motor speed has stabilized.
func (d *Device) MotorReady() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkIdle(); err != nil {
		return false, &DeviceError{Op: "get motor ready", Err: err}
	}
	ready, err := d.motorReady()
	if err != nil {
		return false, &DeviceError{Op: "get motor ready", Err: err}
	}
	return ready, nil
}

// MotorSpeed returns the configured motor speed in Hz.
func (d *Device) MotorSpeed() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkIdle(); err != nil {
		return 0, &DeviceError{Op: "get motor speed", Err: err}
	}
	speed, err := d.motorSpeed()
	if err != nil {
		return 0, &DeviceError{Op: "get motor speed", Err: err}
	}
	return speed, nil
}

// SetMotorSpeed waits for the motor to stabilize and then sets its speed.
// 0 stops the motor.
func (d *Device) SetMotorSpeed(hz int) error {
	if hz < 0 || hz > maxMotorSpeed {
		return &DeviceError{Op: "set motor speed", Err: ErrInvalidMotorSpeed}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkIdle(); err != nil {
		return &DeviceError{Op: "set motor speed", Err: err}
	}
	if err := d.setMotorSpeed(hz); err != nil {
		return &DeviceError{Op: "set motor speed", Err: err}
	}
	return nil
}

// SampleRate returns the sample rate in Hz.
func (d *Device) SampleRate() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkIdle(); err != nil {
		return 0, &DeviceError{Op: "get sample rate", Err: err}
	}
	if err := d.writeCommand(cmdSampleRateInfo); err != nil {
		return 0, &DeviceError{Op: "get sample rate", Err: err}
	}
	code, err := d.readInfo(cmdSampleRateInfo)
	if err != nil {
		return 0, &DeviceError{Op: "get sample rate", Err: err}
	}
	rate, ok := sampleRateFromCode(code)
	if !ok {
		return 0, &DeviceError{Op: "get sample rate", Err: fmt.Errorf("%w: sample rate code %d", ErrUnexpectedResponse, code)}
	}
	return rate, nil
}

// SetSampleRate sets the sample rate to 500, 750 or 1000 Hz.
func (d *Device) SetSampleRate(hz int) error {
	code, ok := sampleRateCode(hz)
	if !ok {
		return &DeviceError{Op: "set sample rate", Err: ErrInvalidSampleRate}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkIdle(); err != nil {
		return &DeviceError{Op: "set sample rate", Err: err}
	}
	if err := d.writeCommandParam(cmdSampleRateAdjust, code); err != nil {
		return &DeviceError{Op: "set sample rate", Err: err}
	}
	status, err := d.readParam(cmdSampleRateAdjust)
	if err != nil {
		return &DeviceError{Op: "set sample rate", Err: err}
	}
	if status == statusInvalidParameter {
		return &DeviceError{Op: "set sample rate", Err: ErrInvalidParameter}
	}
	return nil
}

// Version queries model, protocol, firmware and serial number.
func (d *Device) Version() (VersionInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkIdle(); err != nil {
		return VersionInfo{}, &DeviceError{Op: "get version", Err: err}
	}
	if err := d.writeCommand(cmdVersionInfo); err != nil {
		return VersionInfo{}, &DeviceError{Op: "get version", Err: err}
	}
	buf := make([]byte, versionInfoSize)
	if err := readFull(d.port, buf); err != nil {
		return VersionInfo{}, &DeviceError{Op: "get version", Err: err}
	}
	info, err := parseVersionInfo(buf)
	if err != nil {
		return VersionInfo{}, &DeviceError{Op: "get version", Err: err}
	}
	return info, nil
}

// Info queries the device's current settings.
func (d *Device) Info() (DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkIdle(); err != nil {
		return DeviceInfo{}, &DeviceError{Op: "get device info", Err: err}
	}
	if err := d.writeCommand(cmdDeviceInfo); err != nil {
		return DeviceInfo{}, &DeviceError{Op: "get device info", Err: err}
	}
	buf := make([]byte, deviceInfoSize)
	if err := readFull(d.port, buf); err != nil {
		return DeviceInfo{}, &DeviceError{Op: "get device info", Err: err}
	}
	info, err := parseDeviceInfo(buf)
	if err != nil {
		return DeviceInfo{}, &DeviceError{Op: "get device info", Err: err}
	}
	return info, nil
}

// Reset reboots the device. It does not answer.
func (d *Device) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return &DeviceError{Op: "reset", Err: ErrDeviceClosed}
	}
	if err := d.writeCommand(cmdReset); err != nil {
		return &DeviceError{Op: "reset", Err: err}
	}
	d.scanning = false
	d.pending = nil
	return nil
}

// Close stops scanning if needed and closes the port.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	if d.scanning {
		if err := d.stopScanning(); err != nil {
			d.logger.Warn("failed to stop scanning before close", "error", err)
		}
	}
	d.closed = true
	return d.port.Close()
}

func (d *Device) checkIdle() error {
	if d.closed {
		return ErrDeviceClosed
	}
	if d.scanning {
		return ErrScanning
	}
	return nil
}

func (d *Device) motorReady() (bool, error) {
	if err := d.writeCommand(cmdMotorReady); err != nil {
		return false, err
	}
	code, err := d.readInfo(cmdMotorReady)
	if err != nil {
		return false, err
	}
	return code == 0, nil
}

func (d *Device) motorSpeed() (int, error) {
	if err := d.writeCommand(cmdMotorInfo); err != nil {
		return 0, err
	}
	return d.readInfo(cmdMotorInfo)
}

func (d *Device) setMotorSpeed(hz int) error {
	if err := d.waitUntilMotorReady(); err != nil {
		return err
	}
	if err := d.writeCommandParam(cmdMotorSpeedAdjust, hz); err != nil {
		return err
	}
	status, err := d.readParam(cmdMotorSpeedAdjust)
	if err != nil {
		return err
	}
	switch status {
	case statusInvalidParameter:
		return ErrInvalidParameter
	case statusNotStabilized:
		return ErrMotorNotStabilized
	}
	return nil
}

// waitUntilMotorReady polls MZ. Speed changes take 7 to 9 seconds, so the
// poll gives up after 20 attempts half a second apart.
func (d *Device) waitUntilMotorReady() error {
	for i := 0; i < motorReadyAttempts; i++ {
		if i > 0 {
			d.sleep(motorReadyInterval)
		}
		ready, err := d.motorReady()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
	}
	return ErrMotorNotReady
}

func (d *Device) writeCommand(cmd command) error {
	d.sleep(commandPacing)
	return d.write(encodeCommand(cmd))
}

func (d *Device) writeCommandParam(cmd command, arg int) error {
	buf, err := encodeCommandParam(cmd, arg)
	if err != nil {
		return err
	}
	d.sleep(commandPacing)
	return d.write(buf)
}

func (d *Device) write(buf []byte) error {
	n, err := d.port.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

func (d *Device) readHeader(cmd command) (int, error) {
	buf := make([]byte, headerSize)
	if err := readFull(d.port, buf); err != nil {
		return 0, err
	}
	return parseHeader(buf, cmd)
}

func (d *Device) readParam(cmd command) (int, error) {
	buf := make([]byte, paramResponseSize)
	if err := readFull(d.port, buf); err != nil {
		return 0, err
	}
	return parseParamResponse(buf, cmd)
}

func (d *Device) readInfo(cmd command) (int, error) {
	buf := make([]byte, infoResponseSize)
	if err := readFull(d.port, buf); err != nil {
		return 0, err
	}
	return parseInfoResponse(buf, cmd)
}
