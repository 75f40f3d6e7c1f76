/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset [port]",
	Short: "Reboot a Sweep",
	Long: `Send the reset command to a Sweep. The device reboots and comes back
with its motor spinning at the stored speed. It does not acknowledge the
command, so wait a few seconds before talking to it again.

Examples:
  sweep reset /dev/ttyUSB0`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dummy, _ := cmd.Flags().GetBool("dummy")
		portPath, err := controllerPath(args, dummy)
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

		fmt.Printf("Resetting Sweep: %s\n", portPath)
		if err := dev.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			dev.Close()
			os.Exit(1)
		}

		fmt.Println("Reset command sent")
		fmt.Println("The device will reboot and may take a few seconds to respond")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().Bool("dummy", false, "Use a simulated device")
}
