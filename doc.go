// Package sweep acquires scans from a Scanse Sweep LIDAR and hands them to a
// processing stage.
//
// The core is a two-goroutine pipeline: a producer pulls complete scans from
// a ScanSource into a bounded Channel and a consumer hands each scan to a
// Sink. A timer raises a shutdown signal after Config.ShutdownAfter; the
// producer notices it between scans, closes the channel and stops the
// device, and the consumer drains what is left.
//
// # Basic Usage
//
//	p, err := sweep.Open(sweep.Config{
//	    DevicePath:      "/dev/ttyUSB0",
//	    ChannelCapacity: 16,
//	    ShutdownAfter:   3 * time.Second,
//	}, sweep.SinkFunc(func(s sweep.Scan) {
//	    fmt.Println(s.Len())
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Run(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Join(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run returns immediately. Join waits for both goroutines and returns the
// *DeviceError that stopped the producer, if any. Shutdown raises the signal
// early.
//
// # Sources
//
// Device speaks the Sweep serial protocol. Dummy simulates one and needs no
// hardware. Any other ScanSource can be passed to New.
//
// # Device Control
//
//	dev, err := sweep.OpenDevice("/dev/ttyUSB0")
//	speed, err := dev.MotorSpeed()
//	err = dev.SetMotorSpeed(10)
//	err = dev.SetSampleRate(1000)
//	version, err := dev.Version()
//
// Settings can only be read or changed while the device is not scanning.
//
// # Error Handling
//
// Device failures are reported as *DeviceError wrapping a sentinel:
//
//	var derr *sweep.DeviceError
//	if errors.As(err, &derr) && errors.Is(err, sweep.ErrMotorNotReady) {
//	    // motor did not stabilize within ten seconds
//	}
package sweep
