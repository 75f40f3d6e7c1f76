package sweep

import (
	"fmt"
	"time"

	"github.com/allbin/go-sweep/internal/serialport"
)

// DefaultBaudRate is the rate a Sweep ships configured for.
const DefaultBaudRate = 115200

// Config describes one acquisition run. ChannelCapacity and ShutdownAfter
// have no defaults.
type Config struct {
	DevicePath      string
	ChannelCapacity int
	ShutdownAfter   time.Duration
	BaudRate        int // 0 selects DefaultBaudRate
}

// Validate checks the pipeline settings. DevicePath is only required by Open.
func (c Config) Validate() error {
	if c.ChannelCapacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, c.ChannelCapacity)
	}
	if c.ShutdownAfter <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidShutdown, c.ShutdownAfter)
	}
	if c.BaudRate != 0 && !serialport.ValidBaudRate(c.BaudRate) {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, c.BaudRate)
	}
	return nil
}

func (c Config) validateDevice() error {
	if c.DevicePath == "" {
		return ErrInvalidDevicePath
	}
	return c.Validate()
}

func (c Config) baudRate() int {
	if c.BaudRate == 0 {
		return DefaultBaudRate
	}
	return c.BaudRate
}
