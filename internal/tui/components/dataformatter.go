package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-arduino/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// Direction classifies a feed entry.
type Direction int

const (
	DirectionRX Direction = iota
	DirectionTX
	DirectionNotice // connection changes, faults
)

// DataMsg is one entry in the session feed: a payload that crossed the
// wire, or a notice about the connection itself.
type DataMsg struct {
	Timestamp time.Time
	Data      []byte
	Direction Direction
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

func (df *DataFormatter) FormatMessage(msg DataMsg) string {
	timestamp := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render(fmt.Sprintf("[%s]", msg.Timestamp.Format("15:04:05.000")))

	var indicator string
	switch msg.Direction {
	case DirectionTX:
		indicator = lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Render("↗ TX")
	case DirectionRX:
		indicator = lipgloss.NewStyle().
			Foreground(colors.Sky).
			Bold(true).
			Render("↙ RX")
	case DirectionNotice:
		notice := lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true).
			Render("• " + string(msg.Data))
		return fmt.Sprintf("%s %s", timestamp, notice)
	}

	var parts []string

	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", msg.Data))
	}

	if df.mode.ShowASCII {
		var ascii strings.Builder
		for _, b := range msg.Data {
			if b >= 32 && b <= 126 {
				ascii.WriteByte(b)
			} else {
				// Non-printable bytes become dots so control sequences
				// never reach the terminal
				ascii.WriteByte('.')
			}
		}
		parts = append(parts, fmt.Sprintf("ASCII: %s", ascii.String()))
	}

	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
	}

	return fmt.Sprintf("%s %s: %s", timestamp, indicator, strings.Join(parts, "  "))
}

func (df *DataFormatter) FormatMessages(messages []DataMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}
