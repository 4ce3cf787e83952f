/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	arduino "github.com/allbin/go-arduino"
	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "USB-level reset of the resolved Arduino device",
	Long: `Perform a USB-level reset on the resolved device. This can recover a board
that is hung or unresponsive without physically unplugging it.

The device will re-enumerate after the reset, which may change its port
path; the adapter's change watcher picks the new path up automatically on
the next discovery pass.

Requirements:
- usbreset utility must be installed (from the usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  sudo arduino reset
  sudo arduino reset --vendor 1A86`,
	Run: func(cmd *cobra.Command, args []string) {
		if !arduino.IsUSBResetAvailable() {
			fmt.Fprintln(os.Stderr, "Error: usbreset utility not available")
			fmt.Fprintln(os.Stderr, "Install with: sudo apt-get install usbutils")
			os.Exit(1)
		}

		adapter, err := newAdapter()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer adapter.Close()

		if err := adapter.DiscoverDevice(); err != nil {
			fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
			os.Exit(1)
		}

		name := adapter.DeviceName()
		if name == "" {
			fmt.Fprintln(os.Stderr, "Error: no matching device attached")
			os.Exit(1)
		}

		fmt.Printf("Resetting USB device: %s\n", name)
		if err := adapter.ResetDevice(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if errors.Is(err, arduino.ErrUSBInfoNotAvailable) {
				fmt.Fprintln(os.Stderr, "This device does not appear to be a USB device")
			}
			os.Exit(1)
		}

		fmt.Println("USB device reset successfully")
		fmt.Println("Device will re-enumerate (port path may change)")
		fmt.Println("\nUse 'arduino discover --table' to see the updated device list")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
