// Package metrics exposes pipeline counters in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/allbin/go-sweep"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sweep"

// StatsSource is implemented by *sweep.Pipeline.
type StatsSource interface {
	Stats() sweep.Stats
}

// Register adds collectors reading from src to reg. Every scrape reads a
// fresh snapshot.
func Register(reg prometheus.Registerer, src StatsSource) error {
	labels := prometheus.Labels{"run_id": src.Stats().RunID}

	counter := func(name, help string, value func(sweep.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(value(src.Stats())) })
	}
	gauge := func(name, help string, value func(sweep.Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return value(src.Stats()) })
	}

	collectors := []prometheus.Collector{
		counter("scans_acquired_total", "Scans returned by the device.",
			func(s sweep.Stats) uint64 { return s.Acquired }),
		counter("scans_pushed_total", "Scans placed on the hand-off channel.",
			func(s sweep.Stats) uint64 { return s.Pushed }),
		counter("scans_processed_total", "Scans handed to the sink.",
			func(s sweep.Stats) uint64 { return s.Processed }),
		counter("device_errors_total", "Fatal device errors.",
			func(s sweep.Stats) uint64 { return s.DeviceErrors }),
		gauge("channel_depth", "Scans currently queued.",
			func(s sweep.Stats) float64 { return float64(s.Depth) }),
		gauge("channel_high_water", "Largest number of scans queued at once.",
			func(s sweep.Stats) float64 { return float64(s.HighWater) }),
		gauge("channel_capacity", "Capacity of the hand-off channel.",
			func(s sweep.Stats) float64 { return float64(s.Capacity) }),
		gauge("producer_state", "Producer state: 0 idle, 1 running, 2 draining, 3 stopped, 4 faulted.",
			func(s sweep.Stats) float64 { return float64(s.Producer) }),
		gauge("consumer_state", "Consumer state: 0 idle, 1 running, 2 stopped.",
			func(s sweep.Stats) float64 { return float64(s.Consumer) }),
		gauge("shutdown_requested", "1 once shutdown has been requested.",
			func(s sweep.Stats) float64 {
				if s.ShutdownRequested {
					return 1
				}
				return 0
			}),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
