/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/allbin/go-sweep"
	"github.com/allbin/go-sweep/internal/serialport"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [port]",
	Short: "Display port and device information for a Sweep",
	Long: `Display information about the serial port a Sweep is attached to, then
query the device for its version, serial number and current settings.

Examples:
  sweep info /dev/ttyUSB0
  sweep info --port-only /dev/ttyUSB0

For USB bridges this also shows vendor/product IDs and serial numbers read
from sysfs.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath, err := devicePath(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		info, err := serialport.GetPortInfo(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting port info: %v\n", err)
			os.Exit(1)
		}
		printPortInfo(info)

		if portOnly, _ := cmd.Flags().GetBool("port-only"); portOnly {
			return
		}

		dev, err := openDevice(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening device: %v\n", err)
			os.Exit(1)
		}
		defer dev.Close()

		if err := printDeviceInfo(dev); err != nil {
			fmt.Fprintf(os.Stderr, "Error querying device: %v\n", err)
			dev.Close()
			os.Exit(1)
		}
	},
}

func printPortInfo(info *serialport.PortInfo) {
	fmt.Printf("Port Information: %s\n\n", info.Path)
	fmt.Printf("  Name:        %s\n", info.Name)
	fmt.Printf("  Description: %s\n", info.Description)

	if info.VendorID == "" && info.ProductID == "" {
		return
	}

	fmt.Println("\nUSB Device Information:")
	if info.VendorID != "" {
		fmt.Printf("  Vendor ID:    %s\n", info.VendorID)
	}
	if info.ProductID != "" {
		fmt.Printf("  Product ID:   %s\n", info.ProductID)
	}
	if info.SerialNumber != "" {
		fmt.Printf("  Serial:       %s\n", info.SerialNumber)
	}
	if info.InterfaceNumber != "" {
		fmt.Printf("  Interface:    %s\n", info.InterfaceNumber)
	}
	if info.Manufacturer != "" {
		fmt.Printf("  Manufacturer: %s\n", info.Manufacturer)
	}
	if info.Product != "" {
		fmt.Printf("  Product:      %s\n", info.Product)
	}
	if !info.IsSweep() {
		fmt.Println("\n  Note: USB IDs do not match a Sweep bridge")
	}
}

func printDeviceInfo(dev *sweep.Device) error {
	version, err := dev.Version()
	if err != nil {
		return err
	}
	settings, err := dev.Info()
	if err != nil {
		return err
	}
	ready, err := dev.MotorReady()
	if err != nil {
		return err
	}

	fmt.Println("\nSweep Device Information:")
	fmt.Printf("  Model:        %s\n", version.Model)
	fmt.Printf("  Serial:       %s\n", version.SerialNumber)
	fmt.Printf("  Protocol:     %s\n", version.Protocol())
	fmt.Printf("  Firmware:     %s\n", version.Firmware())
	fmt.Printf("  Hardware:     %d\n", version.HardwareVersion)
	fmt.Printf("  Bit rate:     %d\n", settings.BitRate)
	fmt.Printf("  Motor speed:  %d Hz\n", settings.MotorSpeed)
	fmt.Printf("  Motor ready:  %t\n", ready)
	fmt.Printf("  Sample rate:  %d Hz\n", settings.SampleRate)
	return nil
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("port-only", false, "Only show serial port information")
}
