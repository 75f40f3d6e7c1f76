/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/allbin/go-sweep"
	"github.com/allbin/go-sweep/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor [port]",
	Short: "Show incoming scans in a live terminal view",
	Long: `Stream scans from a Sweep and show the samples of the latest one in a
table, with queue depth, producer state and scan rate in the status bar.

The display can be paused while acquisition continues. Quitting requests the
same cooperative shutdown as the scan command's timer.

Examples:
  sweep monitor /dev/ttyUSB0
  sweep monitor --dummy
  sweep monitor /dev/ttyUSB0 --log-file sweep.log`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dummy, _ := cmd.Flags().GetBool("dummy")
		capacity, _ := cmd.Flags().GetInt("capacity")
		duration, _ := cmd.Flags().GetDuration("duration")
		logFile, _ := cmd.Flags().GetString("log-file")

		// stderr belongs to the terminal UI
		logger := slog.New(slog.DiscardHandler)
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}

		if err := runMonitor(args, dummy, capacity, duration, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runMonitor(args []string, dummy bool, capacity int, duration time.Duration, logger *slog.Logger) error {
	cfg := sweep.Config{
		ChannelCapacity: capacity,
		ShutdownAfter:   duration,
		BaudRate:        viper.GetInt("baud"),
	}

	portPath := "dummy"
	if !dummy {
		path, err := devicePath(args)
		if err != nil {
			return err
		}
		portPath = path
	}

	var prog *tea.Program
	sink := models.NewSink(func(msg tea.Msg) { prog.Send(msg) })

	p, err := newPipeline(cfg, args, dummy, sink, logger)
	if err != nil {
		return err
	}

	model := models.NewMonitorModel(portPath, p.Stats)
	prog = tea.NewProgram(model, tea.WithAltScreen())

	if err := p.Run(); err != nil {
		return err
	}

	joined := make(chan error, 1)
	go func() {
		err := p.Join()
		joined <- err
		prog.Send(models.DoneMsg{Err: err})
	}()

	_, runErr := prog.Run()

	p.Shutdown()
	if err := <-joined; err != nil {
		return err
	}
	return runErr
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().Bool("dummy", false, "Use a simulated device")
	monitorCmd.Flags().IntP("capacity", "c", 4, "Number of scans the queue holds before the producer blocks")
	monitorCmd.Flags().DurationP("duration", "d", 24*time.Hour, "Stop acquiring after this long")
	monitorCmd.Flags().String("log-file", "", "Write logs to this file")
}
