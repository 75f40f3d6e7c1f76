/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// motorCmd represents the motor command
var motorCmd = &cobra.Command{
	Use:   "motor [port] [hz]",
	Short: "Get or set the motor speed",
	Long: `Print the motor speed of a Sweep, or set it when a speed is given.

The speed is in Hz, 0 to 10. Setting it waits for the motor to stabilize
first, so this may take a few seconds right after power on.

Examples:
  sweep motor /dev/ttyUSB0
  sweep motor /dev/ttyUSB0 7`,
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
			if err := dev.SetMotorSpeed(value); err != nil {
				fmt.Fprintf(os.Stderr, "Error setting motor speed: %v\n", err)
				dev.Close()
				os.Exit(1)
			}
		}

		speed, err := dev.MotorSpeed()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading motor speed: %v\n", err)
			dev.Close()
			os.Exit(1)
		}
		fmt.Printf("Motor speed: %d Hz\n", speed)
	},
}

// splitSetting separates an optional trailing numeric value from the port
// argument. With a dummy device a single argument is always the value.
func splitSetting(args []string, dummy bool) (portArgs []string, value int, ok bool, err error) {
	if len(args) == 0 {
		return nil, 0, false, nil
	}
	last := args[len(args)-1]
	if len(args) == 1 && !dummy {
		if _, convErr := strconv.Atoi(last); convErr != nil {
			return args, 0, false, nil
		}
	}
	value, err = strconv.Atoi(last)
	if err != nil {
		return nil, 0, false, fmt.Errorf("invalid value %q: %w", last, err)
	}
	return args[:len(args)-1], value, true, nil
}

func init() {
	rootCmd.AddCommand(motorCmd)

	motorCmd.Flags().Bool("dummy", false, "Use a simulated device")
}
