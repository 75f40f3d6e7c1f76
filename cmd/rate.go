/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rateCmd represents the rate command
var rateCmd = &cobra.Command{
	Use:   "rate [port] [hz]",
	Short: "Get or set the sample rate",
	Long: `Print the sample rate of a Sweep, or set it when a rate is given.

Supported rates are 500, 750 and 1000 Hz.

Examples:
  sweep rate /dev/ttyUSB0
  sweep rate /dev/ttyUSB0 1000`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dummy, _ := cmd.Flags().GetBool("dummy")
		portArgs, value, hasValue, err := splitSetting(args, dummy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		portPath, err := controllerPath(portArgs, dummy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		dev, err := openController(portPath, dummy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening device: %v\n", err)
			os.Exit(1)
		}
		defer dev.Close()

		if hasValue {
			if err := dev.SetSampleRate(value); err != nil {
				fmt.Fprintf(os.Stderr, "Error setting sample rate: %v\n", err)
				dev.Close()
				os.Exit(1)
			}
		}

		rate, err := dev.SampleRate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading sample rate: %v\n", err)
			dev.Close()
			os.Exit(1)
		}
		fmt.Printf("Sample rate: %d Hz\n", rate)
	},
}

func init() {
	rootCmd.AddCommand(rateCmd)

	rateCmd.Flags().Bool("dummy", false, "Use a simulated device")
}
