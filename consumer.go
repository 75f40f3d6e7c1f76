package sweep

import (
	"log/slog"
	"sync/atomic"
)

// Sink receives every scan the pipeline acquires, in order, on the consumer
// goroutine.
type Sink interface {
	OnScan(Scan)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Scan)

func (f SinkFunc) OnScan(s Scan) {
	f(s)
}

// ConsumerState is the lifecycle state of the processing goroutine.
type ConsumerState int32

const (
	ConsumerIdle ConsumerState = iota
	ConsumerRunning
	ConsumerStopped
)

func (s ConsumerState) String() string {
	switch s {
	case ConsumerIdle:
		return "idle"
	case ConsumerRunning:
		return "running"
	case ConsumerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// consumer drains the channel into the sink until end of stream. It never
// looks at the shutdown signal.
type consumer struct {
	ch     *Channel[Scan]
	sink   Sink
	logger *slog.Logger

	state     atomic.Int32
	processed atomic.Uint64
}

func (c *consumer) State() ConsumerState {
	return ConsumerState(c.state.Load())
}

func (c *consumer) run() {
	c.state.Store(int32(ConsumerRunning))

	for {
		scan, ok := c.ch.Pop()
		if !ok {
			break
		}
		c.sink.OnScan(scan)
		c.processed.Add(1)
	}

	c.state.Store(int32(ConsumerStopped))
	c.logger.Info("consumer stopped", "scans", c.processed.Load())
}
