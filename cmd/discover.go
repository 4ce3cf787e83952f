/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	arduino "github.com/allbin/go-arduino"
	"github.com/allbin/go-arduino/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

const (
	columnKeyVendor = "vendor"
	columnKeyDevice = "device"
	columnKeyMatch  = "match"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List attached USB serial devices and resolve the Arduino",
	Long: `List the USB serial devices currently attached to the system and show
which one the adapter resolves to.

Devices whose vendor ID is on the whitelist are marked as candidates.
Resolution succeeds only when exactly one candidate is attached:
- no candidate: nothing to bind to
- one candidate: the adapter binds to its port
- several candidates: resolution is refused as ambiguous

Example usage:
  arduino discover
  arduino discover --table
  arduino discover --vendor 1A86`,
	Run: func(cmd *cobra.Command, args []string) {
		records, err := arduino.ListDevices()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing devices: %v\n", err)
			os.Exit(1)
		}

		adapter, err := newAdapter()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer adapter.Close()

		if len(records) == 0 {
			fmt.Println("No USB serial devices found")
			return
		}

		tableFormat, _ := cmd.Flags().GetBool("table")
		whitelist := adapter.VendorIDs()

		if tableFormat {
			renderDeviceTable(records, whitelist)
		} else {
			renderDeviceList(records, whitelist)
		}

		fmt.Println()
		if err := adapter.DiscoverDevice(); err != nil {
			fmt.Fprintf(os.Stderr, "Resolution failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Resolved: %s\n", adapter.Status())
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

func isWhitelisted(vendorID string, whitelist []string) bool {
	for _, id := range whitelist {
		if strings.EqualFold(vendorID, id) {
			return true
		}
	}
	return false
}

// renderDeviceTable renders the device records in a styled table
func renderDeviceTable(records []arduino.DeviceRecord, whitelist []string) {
	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		match := ""
		if isWhitelisted(rec.VendorID, whitelist) {
			match = "✓"
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyVendor: strings.ToUpper(rec.VendorID),
			columnKeyDevice: rec.Caption,
			columnKeyMatch:  match,
		}))
	}

	t := table.New([]table.Column{
		table.NewColumn(columnKeyVendor, "Vendor", 8),
		table.NewColumn(columnKeyDevice, "Device", 50),
		table.NewColumn(columnKeyMatch, "Match", 7),
	}).
		WithRows(rows).
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(colors.Text).
			BorderForeground(colors.Surface2).
			Align(lipgloss.Left)).
		WithHeaderVisibility(true)

	fmt.Printf("Found %d USB serial device(s):\n\n", len(records))
	fmt.Println(t.View())
}

// renderDeviceList renders the device records in simple text format
func renderDeviceList(records []arduino.DeviceRecord, whitelist []string) {
	for _, rec := range records {
		marker := " "
		if isWhitelisted(rec.VendorID, whitelist) {
			marker = "*"
		}
		fmt.Printf("%s [%s] %s\n", marker, strings.ToUpper(rec.VendorID), rec.Caption)
	}
}
