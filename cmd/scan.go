/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allbin/go-sweep"
	"github.com/allbin/go-sweep/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [port]",
	Short: "Stream scans and print the sample count of each",
	Long: `Start the device and stream scans through a bounded queue to a consumer
that prints how many samples each scan holds.

Acquisition stops on its own after --shutdown-after, or earlier on Ctrl+C.
Either way the scan in flight is finished and every queued scan is printed
before the command exits. A device fault stops the run and exits with status 1.

Examples:
  sweep scan /dev/ttyUSB0
  sweep scan /dev/ttyUSB0 --capacity 4 --shutdown-after 30s
  sweep scan --dummy --metrics-addr :9100`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dummy, _ := cmd.Flags().GetBool("dummy")

		cfg := sweep.Config{
			ChannelCapacity: viper.GetInt("capacity"),
			ShutdownAfter:   viper.GetDuration("shutdown-after"),
			BaudRate:        viper.GetInt("baud"),
		}

		var nth int
		sink := sweep.SinkFunc(func(s sweep.Scan) {
			nth++
			fmt.Printf("scan %d: %d samples\n", nth, s.Len())
		})

		logger := slog.Default()
		p, err := newPipeline(cfg, args, dummy, sink, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if addr := viper.GetString("metrics.addr"); addr != "" {
			reg := prometheus.NewRegistry()
			if err := metrics.Register(reg, p); err != nil {
				fmt.Fprintf(os.Stderr, "Error registering metrics: %v\n", err)
				os.Exit(1)
			}
			go func() {
				if err := metrics.Serve(ctx, addr, reg, logger); err != nil {
					logger.Error("metrics server failed", "error", err)
				}
			}()
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		go func() {
			select {
			case <-sigChan:
				fmt.Fprintln(os.Stderr, "\nStopping scan...")
				p.Shutdown()
			case <-ctx.Done():
			}
		}()

		if err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := p.Join(); err != nil {
			var devErr *sweep.DeviceError
			if errors.As(err, &devErr) {
				fmt.Fprintf(os.Stderr, "Device error during %s: %v\n", devErr.Op, devErr.Err)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			cancel()
			os.Exit(1)
		}

		stats := p.Stats()
		logger.Info("scan finished",
			"run_id", stats.RunID,
			"scans", stats.Processed,
			"high_water", stats.HighWater)
	},
}

// newPipeline builds a pipeline over the device named by args, or a dummy.
func newPipeline(cfg sweep.Config, args []string, dummy bool, sink sweep.Sink, logger *slog.Logger) (*sweep.Pipeline, error) {
	opts := []sweep.Option{sweep.WithLogger(logger)}
	if dummy {
		return sweep.New(cfg, sweep.NewDummy(), sink, opts...)
	}

	path, err := devicePath(args)
	if err != nil {
		return nil, err
	}
	cfg.DevicePath = path
	return sweep.Open(cfg, sink, opts...)
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntP("capacity", "c", 16, "Number of scans the queue holds before the producer blocks")
	scanCmd.Flags().DurationP("shutdown-after", "d", 3*time.Second, "Stop acquiring after this long")
	scanCmd.Flags().Bool("dummy", false, "Use a simulated device")
	scanCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")

	viper.BindPFlag("capacity", scanCmd.Flags().Lookup("capacity"))
	viper.BindPFlag("shutdown-after", scanCmd.Flags().Lookup("shutdown-after"))
	viper.BindPFlag("metrics.addr", scanCmd.Flags().Lookup("metrics-addr"))
}
