package sweep

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// ProducerState is the lifecycle state of the acquisition goroutine.
type ProducerState int32

const (
	ProducerIdle ProducerState = iota
	ProducerRunning
	ProducerDraining
	ProducerStopped
	ProducerFaulted
)

func (s ProducerState) String() string {
	switch s {
	case ProducerIdle:
		return "idle"
	case ProducerRunning:
		return "running"
	case ProducerDraining:
		return "draining"
	case ProducerStopped:
		return "stopped"
	case ProducerFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// producer pulls scans from the source into the channel until the shutdown
// signal is observed or the source fails.
type producer struct {
	src    ScanSource
	ch     *Channel[Scan]
	signal *shutdownSignal
	logger *slog.Logger

	state    atomic.Int32
	acquired atomic.Uint64
	pushed   atomic.Uint64

	mu  sync.Mutex
	err *DeviceError
}

func (p *producer) State() ProducerState {
	return ProducerState(p.state.Load())
}

func (p *producer) setState(s ProducerState) {
	p.state.Store(int32(s))
	p.logger.Debug("producer state changed", "state", s.String())
}

// Err returns the fault that stopped the producer, if any.
func (p *producer) Err() *DeviceError {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *producer) run() {
	p.setState(ProducerRunning)

	if err := p.src.Start(); err != nil {
		p.fault(deviceError("start scanning", err))
		return
	}

	for {
		// The only point where shutdown is observed. A NextScan already in
		// flight completes and its scan is still pushed.
		if p.signal.IsSet() {
			p.drain()
			return
		}

		scan, err := p.src.NextScan()
		if err != nil {
			p.fault(deviceError("get scan", err))
			return
		}
		p.acquired.Add(1)

		// Blocks while the consumer is behind
		if err := p.ch.Push(scan); err != nil {
			p.fault(deviceError("push scan", err))
			return
		}
		p.pushed.Add(1)
	}
}

func (p *producer) drain() {
	p.setState(ProducerDraining)
	p.ch.Close()

	if err := p.src.Stop(); err != nil {
		p.logger.Warn("failed to stop scanning", "error", err)
	}

	p.setState(ProducerStopped)
	p.logger.Info("producer stopped", "scans", p.pushed.Load())
}

func (p *producer) fault(err *DeviceError) {
	p.ch.Close()

	if stopErr := p.src.Stop(); stopErr != nil {
		p.logger.Debug("stop after fault failed", "error", stopErr)
	}

	p.mu.Lock()
	p.err = err
	p.mu.Unlock()

	p.setState(ProducerFaulted)
	p.logger.Error("producer faulted", "error", err, "scans", p.pushed.Load())
}
