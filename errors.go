package sweep

import "errors"

// Configuration errors
var (
	ErrInvalidCapacity   = errors.New("channel capacity must be positive")
	ErrInvalidShutdown   = errors.New("shutdown delay must be positive")
	ErrInvalidDevicePath = errors.New("device path must not be empty")
	ErrInvalidBaudRate   = errors.New("unsupported baud rate")
	ErrNilSource         = errors.New("scan source is nil")
	ErrNilSink           = errors.New("sink is nil")
)

// Pipeline lifecycle errors
var (
	ErrChannelClosed  = errors.New("channel is closed")
	ErrAlreadyStarted = errors.New("pipeline already started")
	ErrNotStarted     = errors.New("pipeline not started")
)

// Device errors
var (
	ErrMotorNotStabilized = errors.New("motor speed has not stabilized")
	ErrMotorStationary    = errors.New("motor is stationary")
	ErrMotorNotReady      = errors.New("timed out waiting for motor to stabilize")
	ErrInvalidParameter   = errors.New("device rejected parameter")
	ErrInvalidMotorSpeed  = errors.New("motor speed must be between 0 and 10 Hz")
	ErrInvalidSampleRate  = errors.New("sample rate must be 500, 750 or 1000 Hz")
	ErrChecksum           = errors.New("checksum mismatch")
	ErrUnexpectedResponse = errors.New("unexpected response from device")
	ErrTooManySamples     = errors.New("scan exceeds maximum sample count")
	ErrReadTimeout        = errors.New("timed out reading from device")
	ErrScanning           = errors.New("device is scanning")
	ErrNotScanning        = errors.New("device is not scanning")
	ErrDeviceClosed       = errors.New("device is closed")
)
