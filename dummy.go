package sweep

import (
	"errors"
	"sync"
	"time"
)

const (
	dummySamplesPerScan = 16
	dummyDistance       = 200 // cm
	dummySignal         = 200
)

// ErrDummyFault is returned by a Dummy once FailAfter scans have been served.
var ErrDummyFault = errors.New("simulated device fault")

// Dummy is a simulated Sweep. While scanning it returns 16 samples per scan
// in four clusters a quarter turn apart, drifting one degree per scan.
type Dummy struct {
	// Interval is the time NextScan takes, emulating one revolution.
	Interval time.Duration
	// FailAfter makes NextScan fail once this many scans were served. 0 never fails.
	FailAfter int

	mu         sync.Mutex
	scanning   bool
	motorSpeed int
	sampleRate int
	nth        int
}

// NewDummy returns a stopped Dummy spinning at 5 Hz and sampling at 500 Hz.
func NewDummy() *Dummy {
	return &Dummy{
		Interval:   100 * time.Millisecond,
		motorSpeed: defaultMotorSpeed,
		sampleRate: 500,
	}
}

func (d *Dummy) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanning = true
	return nil
}

func (d *Dummy) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanning = false
	return nil
}

// NextScan sleeps for Interval and returns the next simulated scan. A
// stopped Dummy returns empty scans.
func (d *Dummy) NextScan() (Scan, error) {
	d.mu.Lock()
	nth := d.nth
	scanning := d.scanning
	interval := d.Interval
	d.nth++
	d.mu.Unlock()

	if interval > 0 {
		time.Sleep(interval)
	}

	if d.FailAfter > 0 && nth >= d.FailAfter {
		return Scan{}, &DeviceError{Op: "get scan", Err: ErrDummyFault}
	}
	if !scanning {
		return Scan{}, nil
	}
	return dummyScan(nth), nil
}

func dummyScan(nth int) Scan {
	samples := make([]Sample, dummySamplesPerScan)
	for i := range samples {
		base := (i / 4) * 90
		delta := (i%4)*2 + nth
		samples[i] = Sample{
			Angle:          int32((base+delta)%360) * 1000,
			Distance:       dummyDistance,
			SignalStrength: dummySignal,
		}
	}
	return Scan{samples: samples}
}

func (d *Dummy) MotorReady() (bool, error) {
	return true, nil
}

func (d *Dummy) MotorSpeed() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.motorSpeed, nil
}

func (d *Dummy) SetMotorSpeed(hz int) error {
	if hz < 0 || hz > maxMotorSpeed {
		return &DeviceError{Op: "set motor speed", Err: ErrInvalidMotorSpeed}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.motorSpeed = hz
	return nil
}

func (d *Dummy) SampleRate() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sampleRate, nil
}

func (d *Dummy) SetSampleRate(hz int) error {
	if _, ok := sampleRateCode(hz); !ok {
		return &DeviceError{Op: "set sample rate", Err: ErrInvalidSampleRate}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sampleRate = hz
	return nil
}

func (d *Dummy) Reset() error {
	return d.Stop()
}

func (d *Dummy) Close() error {
	return d.Stop()
}
