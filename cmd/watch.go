/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	arduino "github.com/allbin/go-arduino"
	"github.com/allbin/go-arduino/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream adapter events to the terminal",
	Long: `Subscribe to all five adapter event streams and print every event as it
happens: connections, disconnections, sent and received data, and errors.

Plug and unplug events trigger rediscovery automatically, so this command
is useful for watching a board come and go. With --connect the adapter
also opens the port, which makes unsolicited device output appear as
data-received events.

Press Ctrl+C to stop.

Example usage:
  arduino watch
  arduino watch --connect`,
	Run: func(cmd *cobra.Command, args []string) {
		connect, _ := cmd.Flags().GetBool("connect")
		if err := runWatch(connect); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolP("connect", "c", false, "Also open the port to receive device output")
}

func runWatch(connect bool) error {
	adapter, err := newAdapter()
	if err != nil {
		return err
	}
	defer adapter.Close()

	timeStyle := lipgloss.NewStyle().Foreground(colors.Subtext0)
	kindStyles := map[arduino.EventKind]lipgloss.Style{
		arduino.EventConnected:     lipgloss.NewStyle().Foreground(colors.Green).Bold(true),
		arduino.EventDisconnected:  lipgloss.NewStyle().Foreground(colors.Yellow).Bold(true),
		arduino.EventDataReceived:  lipgloss.NewStyle().Foreground(colors.Sky).Bold(true),
		arduino.EventDataSent:      lipgloss.NewStyle().Foreground(colors.Peach).Bold(true),
		arduino.EventErrorReceived: lipgloss.NewStyle().Foreground(colors.Red).Bold(true),
	}

	printEvent := func(ev arduino.Event) {
		timestamp := timeStyle.Render(ev.Time.Format("15:04:05.000"))
		kind := kindStyles[ev.Kind].Render(fmt.Sprintf("%-14s", ev.Kind))
		switch {
		case ev.Err != nil:
			fmt.Printf("%s %s %v\n", timestamp, kind, ev.Err)
		case ev.Data != "":
			fmt.Printf("%s %s %q\n", timestamp, kind, ev.Data)
		default:
			fmt.Printf("%s %s\n", timestamp, kind)
		}
	}

	for _, kind := range []arduino.EventKind{
		arduino.EventConnected,
		arduino.EventDisconnected,
		arduino.EventDataReceived,
		arduino.EventDataSent,
		arduino.EventErrorReceived,
	} {
		adapter.Subscribe(kind, printEvent)
	}

	if err := adapter.DiscoverDevice(); err != nil {
		fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
	}
	fmt.Printf("Watching events (%s), Ctrl+C to stop\n", adapter.Status())

	if connect {
		if err := adapter.Connect(); err != nil {
			fmt.Fprintf(os.Stderr, "Connect failed: %v\n", err)
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nStopping...")
	// Give in-flight event handlers a moment before teardown
	time.Sleep(100 * time.Millisecond)
	return nil
}
