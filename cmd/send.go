/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data]",
	Short: "Send data to the attached Arduino device",
	Long: `Discover the attached board, connect, and send data to it.

Data can be provided as:
- Command line argument: arduino send "PING"
- From stdin (pipe): echo "PING" | arduino send
- Interactive mode: arduino send (prompts for input)

Example usage:
  arduino send "PING"
  arduino send "AT+GMR" --no-newline
  arduino send "0206000300000099" --hex
  arduino send "PING" --reply         # Wait for one reply line`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var data string
		if len(args) == 1 {
			data = args[0]
		} else {
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				// No pipe input, use interactive mode
				data = promptForData()
			} else {
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
					os.Exit(1)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		}

		hexMode, _ := cmd.Flags().GetBool("hex")
		noNewline, _ := cmd.Flags().GetBool("no-newline")
		waitReply, _ := cmd.Flags().GetBool("reply")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if err := sendData(data, hexMode, !noNewline, waitReply, timeout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g. '48656c6c6f' for 'Hello')")
	sendCmd.Flags().Bool("no-newline", false, "Do not append the line terminator")
	sendCmd.Flags().BoolP("reply", "r", false, "Wait for one reply line and print it")
	sendCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Timeout for the reply (default: 5s)")
}

func promptForData() string {
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Print(promptStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func sendData(data string, hexMode, addNewline, waitReply bool, timeout time.Duration) error {
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("40")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	adapter, err := newAdapter()
	if err != nil {
		return err
	}
	defer adapter.Close()

	fmt.Printf("%s Discovering device...\n", infoStyle.Render("⚡"))
	if err := adapter.DiscoverDevice(); err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}

	if err := adapter.Connect(); err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}
	defer adapter.Disconnect()

	fmt.Printf("%s Connected to %s\n", successStyle.Render("✓"), adapter.DeviceName())

	if hexMode {
		payload, err := parseHexInput(data)
		if err != nil {
			return fmt.Errorf("invalid hex data: %v", err)
		}
		if addNewline {
			err = adapter.WriteBytesLine(payload)
		} else {
			err = adapter.WriteBytes(payload)
		}
		if err != nil {
			return fmt.Errorf("%s failed to send data: %v", errorStyle.Render("✗"), err)
		}
		fmt.Printf("%s Sent %d bytes\n", successStyle.Render("✓"), len(payload))
	} else {
		if addNewline {
			err = adapter.WriteLine(data)
		} else {
			err = adapter.WriteString(data)
		}
		if err != nil {
			return fmt.Errorf("%s failed to send data: %v", errorStyle.Render("✗"), err)
		}
		fmt.Printf("%s Sent %d bytes\n", successStyle.Render("✓"), len(data))
	}

	if waitReply {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		line, err := adapter.ReadLine(ctx)
		if err != nil {
			return fmt.Errorf("%s no reply: %v", errorStyle.Render("✗"), err)
		}
		fmt.Printf("%s Reply: %s\n", infoStyle.Render("↙"), line)
	}

	return nil
}
