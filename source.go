package sweep

// ScanSource is a device that streams complete scans.
//
// Start and Stop are idempotent and Stop is safe to call after a failed
// Start. NextScan blocks until a scan is available. Any error it returns is
// treated as fatal by the pipeline.
type ScanSource interface {
	Start() error
	Stop() error
	NextScan() (Scan, error)
}

// DeviceError reports a failed device operation.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return "sweep: " + e.Op + " failed"
	}
	return "sweep: " + e.Op + ": " + e.Err.Error()
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// deviceError wraps err as a *DeviceError unless it already is one.
func deviceError(op string, err error) *DeviceError {
	if de, ok := err.(*DeviceError); ok {
		return de
	}
	return &DeviceError{Op: op, Err: err}
}

// Controller is the settings surface shared by Device and Dummy.
type Controller interface {
	MotorReady() (bool, error)
	MotorSpeed() (int, error)
	SetMotorSpeed(hz int) error
	SampleRate() (int, error)
	SetSampleRate(hz int) error
	Reset() error
	Close() error
}

var (
	_ ScanSource = (*Device)(nil)
	_ ScanSource = (*Dummy)(nil)
	_ Controller = (*Device)(nil)
	_ Controller = (*Dummy)(nil)
)
