/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"log/slog"

	"github.com/allbin/go-sweep"
	"github.com/spf13/viper"
)

// openController opens the Sweep at path, or a simulated one when dummy is set.
func openController(path string, dummy bool) (sweep.Controller, error) {
	if dummy {
		return sweep.NewDummy(), nil
	}
	return openDevice(path)
}

func openDevice(path string) (*sweep.Device, error) {
	return sweep.OpenDevice(path,
		sweep.WithBaudRate(viper.GetInt("baud")),
		sweep.WithDeviceLogger(slog.Default()),
	)
}

// controllerPath resolves the device path, which a dummy does not need.
func controllerPath(args []string, dummy bool) (string, error) {
	if dummy {
		return "dummy", nil
	}
	return devicePath(args)
}
