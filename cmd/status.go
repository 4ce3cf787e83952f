/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the adapter would bind to",
	Long: `Run one discovery pass and report the adapter binding.

Shows the resolved device name and port, the configured baud rate and the
effective vendor whitelist. Nothing is opened; this is a read-only check.

Example usage:
  arduino status
  arduino status --vendor 1A86`,
	Run: func(cmd *cobra.Command, args []string) {
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

		fmt.Printf("Status:    %s\n", adapter.Status())
		fmt.Printf("State:     %s\n", adapter.State())
		if endpoint := adapter.Endpoint(); endpoint != nil {
			fmt.Printf("Port:      %s\n", endpoint.Port)
		}
		fmt.Printf("Baud rate: %d\n", adapter.BaudRate())
		fmt.Printf("Vendors:   %s\n", strings.Join(adapter.VendorIDs(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
