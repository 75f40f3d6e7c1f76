package sweep

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Option configures a Pipeline
type Option func(*Pipeline) error

// WithLogger sets the logger used by the pipeline and its goroutines.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		p.logger = logger
		return nil
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id uuid.UUID) Option {
	return func(p *Pipeline) error {
		p.runID = id
		return nil
	}
}

// WithDeviceOptions passes options to the Device created by Open.
func WithDeviceOptions(opts ...DeviceOption) Option {
	return func(p *Pipeline) error {
		p.deviceOpts = append(p.deviceOpts, opts...)
		return nil
	}
}

// Pipeline runs a producer and a consumer joined by a bounded channel and
// stops them cooperatively after Config.ShutdownAfter.
//
// Run starts the goroutines and returns at once. Join must be called to wait
// for them; nothing waits implicitly.
type Pipeline struct {
	cfg    Config
	src    ScanSource
	sink   Sink
	logger *slog.Logger
	runID  uuid.UUID

	deviceOpts []DeviceOption
	owned      io.Closer

	ch       *Channel[Scan]
	signal   shutdownSignal
	producer *producer
	consumer *consumer

	started   atomic.Bool
	timerMu   sync.Mutex
	timer     *time.Timer
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New validates cfg and builds a pipeline around src and sink. No goroutine
// is started until Run.
func New(cfg Config, src ScanSource, sink Sink, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNilSource
	}
	if sink == nil {
		return nil, ErrNilSink
	}

	p := &Pipeline{
		cfg:    cfg,
		src:    src,
		sink:   sink,
		logger: slog.New(slog.DiscardHandler),
		runID:  uuid.New(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	ch, err := NewChannel[Scan](cfg.ChannelCapacity)
	if err != nil {
		return nil, err
	}
	p.ch = ch

	logger := p.logger.With("run_id", p.runID.String())
	if cfg.DevicePath != "" {
		logger = logger.With("device", cfg.DevicePath)
	}
	p.logger = logger

	p.producer = &producer{
		src:    src,
		ch:     ch,
		signal: &p.signal,
		logger: logger.With("component", "producer"),
	}
	p.consumer = &consumer{
		ch:     ch,
		sink:   sink,
		logger: logger.With("component", "consumer"),
	}
	return p, nil
}

// Open opens the Sweep at cfg.DevicePath and builds a pipeline around it.
// The device is closed by Join.
func Open(cfg Config, sink Sink, opts ...Option) (*Pipeline, error) {
	if err := cfg.validateDevice(); err != nil {
		return nil, err
	}

	probe := &Pipeline{}
	for _, opt := range opts {
		if err := opt(probe); err != nil {
			return nil, err
		}
	}

	devOpts := append([]DeviceOption{WithBaudRate(cfg.baudRate())}, probe.deviceOpts...)
	if probe.logger != nil {
		devOpts = append(devOpts, WithDeviceLogger(probe.logger))
	}

	dev, err := OpenDevice(cfg.DevicePath, devOpts...)
	if err != nil {
		return nil, err
	}

	p, err := New(cfg, dev, sink, opts...)
	if err != nil {
		dev.Close()
		return nil, err
	}
	p.owned = dev
	return p, nil
}

// Run starts the producer, the consumer and the shutdown timer.
func (p *Pipeline) Run() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	p.logger.Info("pipeline starting",
		"capacity", p.cfg.ChannelCapacity,
		"shutdown_after", p.cfg.ShutdownAfter)

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		p.producer.run()
	}()
	go func() {
		defer p.wg.Done()
		p.consumer.run()
	}()

	p.timerMu.Lock()
	p.timer = startShutdownTimer(p.cfg.ShutdownAfter, &p.signal, func() {
		p.logger.Info("shutdown timer fired")
	})
	p.timerMu.Unlock()

	return nil
}

// Join blocks until both goroutines have finished and returns the device
// fault that stopped the producer, or nil after a clean shutdown.
func (p *Pipeline) Join() error {
	if !p.started.Load() {
		return ErrNotStarted
	}
	p.wg.Wait()

	p.timerMu.Lock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timerMu.Unlock()

	p.closeOnce.Do(func() {
		if p.owned != nil {
			p.closeErr = p.owned.Close()
		}
	})
	if p.closeErr != nil {
		p.logger.Warn("failed to close device", "error", p.closeErr)
	}

	if err := p.Err(); err != nil {
		return err
	}
	p.logger.Info("pipeline finished",
		"acquired", p.producer.acquired.Load(),
		"processed", p.consumer.processed.Load())
	return nil
}

// Err returns the producer's fault, if any. It may be called at any time.
func (p *Pipeline) Err() error {
	if err := p.producer.Err(); err != nil {
		return err
	}
	return nil
}

// Shutdown requests a cooperative stop ahead of the timer.
func (p *Pipeline) Shutdown() {
	if p.signal.Set() {
		p.logger.Info("shutdown requested")
	}
}

// ShutdownRequested reports whether the shutdown signal has been raised.
func (p *Pipeline) ShutdownRequested() bool {
	return p.signal.IsSet()
}

func (p *Pipeline) ProducerState() ProducerState {
	return p.producer.State()
}

func (p *Pipeline) ConsumerState() ConsumerState {
	return p.consumer.State()
}

func (p *Pipeline) RunID() uuid.UUID {
	return p.runID
}

// Stats is a point-in-time snapshot of a pipeline's counters.
type Stats struct {
	RunID             string
	Acquired          uint64 // scans returned by the source
	Pushed            uint64 // scans placed on the channel
	Processed         uint64 // scans handed to the sink
	Depth             int
	HighWater         int
	Capacity          int
	Producer          ProducerState
	Consumer          ConsumerState
	ShutdownRequested bool
	DeviceErrors      uint64
}

// Stats returns current counters. Fields are read independently and may be
// mutually inconsistent while the pipeline is running.
func (p *Pipeline) Stats() Stats {
	var faults uint64
	if p.producer.Err() != nil {
		faults = 1
	}
	return Stats{
		RunID:             p.runID.String(),
		Acquired:          p.producer.acquired.Load(),
		Pushed:            p.producer.pushed.Load(),
		Processed:         p.consumer.processed.Load(),
		Depth:             p.ch.Len(),
		HighWater:         p.ch.HighWater(),
		Capacity:          p.ch.Cap(),
		Producer:          p.producer.State(),
		Consumer:          p.consumer.State(),
		ShutdownRequested: p.signal.IsSet(),
		DeviceErrors:      faults,
	}
}
