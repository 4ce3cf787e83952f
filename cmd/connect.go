/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	arduino "github.com/allbin/go-arduino"
	"github.com/allbin/go-arduino/internal/tui/components"
	"github.com/allbin/go-arduino/internal/tui/keys"
	"github.com/allbin/go-arduino/internal/tui/models"
	"github.com/allbin/go-arduino/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Interactive terminal session with the attached Arduino",
	Long: `Discover the attached board, connect, and open an interactive terminal.

The session shows a live feed of sent and received data with timestamps,
an input field for sending lines or hex payloads, and a status bar with
the device name and connection state. Unplugging the board is detected
automatically; press 'r' to reconnect after plugging it back in.

Example usage:
  arduino connect
  arduino connect --baud 115200
  arduino connect --vendor 1A86`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSessionTUI(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

// sessionModel represents the Bubble Tea model for the connect command
type sessionModel struct {
	*models.SessionModel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.SessionKeys
}

func runSessionTUI() error {
	adapter, err := newAdapter()
	if err != nil {
		return err
	}

	m := sessionModel{
		SessionModel: models.NewSessionModel(adapter),
		terminal:     components.NewTerminal(0, 0), // Sized by the first WindowSizeMsg
		statusBar:    components.NewStatusBar(adapter.BaudRate()),
		input:        components.NewInput("Type message and press Enter to send..."),
		help:         help.New(),
		keys:         keys.NewSessionKeys(),
	}
	m.statusBar.SetState(arduino.StateConnecting)

	p := tea.NewProgram(&m, tea.WithAltScreen())

	// Adapter events arrive on their own goroutines; tea.Program.Send is
	// safe to call from any of them.
	m.Subscribe(func(msg interface{}) { p.Send(msg) })

	go connectAdapter(adapter, p)

	_, err = p.Run()
	m.Cleanup()
	return err
}

// connectAdapter runs discovery and connect off the UI loop.
func connectAdapter(adapter *arduino.Adapter, p *tea.Program) {
	if err := adapter.DiscoverDevice(); err != nil {
		p.Send(models.ConnectionStatusMsg{State: arduino.StateDisconnected, Error: err})
		return
	}
	if err := adapter.Connect(); err != nil {
		p.Send(models.ConnectionStatusMsg{State: arduino.StateDisconnected, Error: err})
	}
	// Success surfaces through the Connected event subscription
}

func (m *sessionModel) Init() tea.Cmd {
	return nil
}

// parseHexInput converts hex strings to bytes. Supports both:
// - Space-separated: "48 65 6C 6C 6F"
// - Continuous: "48656C6C6F"
func parseHexInput(hexStr string) ([]byte, error) {
	cleanHex := strings.ReplaceAll(strings.TrimSpace(hexStr), " ", "")
	if len(cleanHex) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	if len(cleanHex)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(cleanHex))
	}

	bytes := make([]byte, 0, len(cleanHex)/2)
	for i := 0; i < len(cleanHex); i += 2 {
		hexByte := cleanHex[i : i+2]
		b, err := strconv.ParseUint(hexByte, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte '%s': %v", hexByte, err)
		}
		bytes = append(bytes, byte(b))
	}
	return bytes, nil
}

func (m *sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Input area height (includes border)
		inputHeight := 3
		// Status bar and help line are single lines
		statusBarHeight := 1
		helpHeight := 1
		verticalMarginHeight := inputHeight + statusBarHeight + helpHeight

		m.terminal.SetSize(msg.Width, msg.Height-verticalMarginHeight)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.SetReady(true)

	case models.ConnectionStatusMsg:
		m.SetConnected(msg.State == arduino.StateConnected)
		m.statusBar.SetState(msg.State)
		m.statusBar.SetDevice(msg.Device)
		if msg.Error != nil {
			m.SetError(msg.Error)
			m.statusBar.SetError(msg.Error)
			m.terminal.AddMessage(m.AddNotice(fmt.Sprintf("error: %v", msg.Error)))
		} else if msg.State == arduino.StateConnected {
			m.terminal.AddMessage(m.AddNotice(fmt.Sprintf("connected to %s", msg.Device)))
			m.input.Focus()
		} else {
			m.terminal.AddMessage(m.AddNotice("disconnected"))
		}

	case models.AdapterErrorMsg:
		m.statusBar.SetError(msg.Err)
		m.terminal.AddMessage(m.AddNotice(fmt.Sprintf("error: %v", msg.Err)))

	case components.DataMsg:
		if m.IsReady() {
			m.AddRawData(msg)
			m.terminal.AddMessage(msg)
		}

	case tea.KeyMsg:
		if m.IsInInsertMode() {
			// Insert mode - handle input and escape
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.SetInputMode(models.InputModeNormal)
				m.input.Blur()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Enter):
				if m.input.Value() != "" {
					m.sendInput()
				}
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Up):
				m.input.NavigateHistoryUp()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Down):
				m.input.NavigateHistoryDown()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
				return m, tea.Batch(cmds...)
			}
		} else {
			// Normal mode - handle navigation and mode switching
			switch {
			case key.Matches(msg, m.keys.Quit):
				m.Cleanup()
				return m, tea.Quit

			case key.Matches(msg, m.keys.InsertMode):
				m.SetInputMode(models.InputModeInsert)
				m.input.Focus()
				return m, tea.Batch(cmds...)

			case key.Matches(msg, m.keys.Clear):
				m.ClearData()
				m.terminal.Clear()

			case key.Matches(msg, m.keys.Help):
				m.help.ShowAll = !m.help.ShowAll

			case key.Matches(msg, m.keys.ToggleHex):
				m.terminal.ToggleHex()
				m.terminal.RefreshDisplay(m.GetRawData())

			case key.Matches(msg, m.keys.Reconnect):
				m.statusBar.SetState(arduino.StateConnecting)
				adapter := m.Adapter()
				cmds = append(cmds, func() tea.Msg {
					if err := adapter.DiscoverDevice(); err != nil {
						return models.ConnectionStatusMsg{State: arduino.StateDisconnected, Error: err}
					}
					if err := adapter.Connect(); err != nil {
						return models.ConnectionStatusMsg{State: arduino.StateDisconnected, Error: err}
					}
					return nil
				})

			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
			}
		}
	}

	// Update components (only update input in insert mode)
	var cmd tea.Cmd
	if m.IsInInsertMode() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	switch msg.(type) {
	case tea.WindowSizeMsg:
		_, cmd = m.terminal.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// sendInput pushes the input field at the device. The DataSent event
// echoes the payload back into the feed, so nothing is appended here.
func (m *sessionModel) sendInput() {
	inputStr := m.input.Value()
	adapter := m.Adapter()

	var err error
	switch m.input.GetSendingMode() {
	case components.SendingModeHex:
		var payload []byte
		payload, err = parseHexInput(inputStr)
		if err != nil {
			m.terminal.AddMessage(m.AddNotice(fmt.Sprintf("invalid hex input: %v", err)))
			return
		}
		err = adapter.WriteBytes(payload)
	default:
		err = adapter.WriteLine(inputStr)
	}

	if err != nil {
		m.terminal.AddMessage(m.AddNotice(fmt.Sprintf("send failed: %v", err)))
		return
	}

	m.input.AddToHistory(inputStr)
	m.input.SetValue("")
}

func (m *sessionModel) View() string {
	var content string
	if m.IsReady() {
		content = m.terminal.View()
	} else {
		content = "Initializing..."
	}

	input := m.input.ViewWithMode(m.IsInInsertMode())

	inputMode := m.GetInputMode().String()
	sendingMode := m.input.GetSendingMode().String()
	timestamp := time.Now().Format("15:04:05")
	statusBar := m.statusBar.Render(inputMode, sendingMode, timestamp)

	contentWithBorder := styles.ContentBorderStyle.Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		contentWithBorder,
		input,
		statusBar,
		m.help.View(m.keys),
	)
}
