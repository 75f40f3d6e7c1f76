/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/allbin/go-sweep/internal/serialport"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List serial ports and attached Sweeps",
	Long: `List the serial ports on the system and mark the ones whose USB bridge
identifies as a Sweep (FTDI 0403:6015).

Virtual terminals and pseudo-terminals are excluded from the listing.

Examples:
  sweep list
  sweep list --sweep
  sweep list --table --filter usb`,
	Run: func(cmd *cobra.Command, args []string) {
		sweepOnly, _ := cmd.Flags().GetBool("sweep")
		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		var infos []*serialport.PortInfo
		var err error
		if sweepOnly {
			infos, err = serialport.FindSweepPorts()
		} else {
			infos, err = listPortInfos()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		infos = filterPorts(infos, filterType)
		if len(infos) == 0 {
			switch {
			case sweepOnly:
				fmt.Println("No Sweep devices found")
			case filterType != "":
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			default:
				fmt.Println("No serial ports found")
			}
			return
		}

		if tableFormat {
			renderTable(infos)
		} else {
			renderSimple(infos)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
	listCmd.Flags().BoolP("sweep", "s", false, "Only list ports with a Sweep attached")
}

func listPortInfos() ([]*serialport.PortInfo, error) {
	ports, err := serialport.ListPorts()
	if err != nil {
		return nil, err
	}

	infos := make([]*serialport.PortInfo, 0, len(ports))
	for _, port := range ports {
		info, err := serialport.GetPortInfo(port)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(infos []*serialport.PortInfo, filterType string) []*serialport.PortInfo {
	if filterType == "" || filterType == "all" {
		return infos
	}

	var filtered []*serialport.PortInfo
	for _, info := range infos {
		name := strings.ToLower(info.Name)
		switch strings.ToLower(filterType) {
		case "usb":
			if strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm") {
				filtered = append(filtered, info)
			}
		case "standard":
			if strings.HasPrefix(name, "ttys") {
				filtered = append(filtered, info)
			}
		case "arm":
			if strings.HasPrefix(name, "ttyama") {
				filtered = append(filtered, info)
			}
		}
	}
	return filtered
}

// renderTable renders the port list in a styled static table format
func renderTable(infos []*serialport.PortInfo) {
	fmt.Printf("Found %d serial port(s):\n\n", len(infos))

	portWidth := 15
	sweepWidth := 6
	serialWidth := 12
	descWidth := 30

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240")).
		PaddingBottom(1)

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)

	sweepStyle := cellStyle.
		Foreground(lipgloss.Color("42")).
		Bold(true)

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s",
		portWidth, "Port",
		sweepWidth, "Sweep",
		serialWidth, "Serial",
		descWidth, "Description")
	fmt.Println(headerStyle.Render(header))

	for _, info := range infos {
		mark := "-"
		style := cellStyle
		if info.IsSweep() {
			mark = "yes"
			style = sweepStyle
		}
		serialNumber := info.SerialNumber
		if serialNumber == "" {
			serialNumber = "-"
		}
		row := fmt.Sprintf("%-*s %-*s %-*s %-*s",
			portWidth, info.Name,
			sweepWidth, mark,
			serialWidth, serialNumber,
			descWidth, info.Description)
		fmt.Println(style.Render(row))
	}
}

// renderSimple renders the port list in simple text format
func renderSimple(infos []*serialport.PortInfo) {
	for _, info := range infos {
		if info.IsSweep() {
			fmt.Printf("%s\t(Sweep)\n", info.Path)
			continue
		}
		fmt.Println(info.Path)
	}
}
