package models

import (
	"context"
	"sync"
	"time"

	arduino "github.com/allbin/go-arduino"
	"github.com/allbin/go-arduino/internal/tui/components"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

// ConnectionStatusMsg reports a lifecycle transition to the UI.
type ConnectionStatusMsg struct {
	State  arduino.ConnectionState
	Device string
	Error  error
}

// AdapterErrorMsg carries a background fault from the ErrorReceived stream.
type AdapterErrorMsg struct {
	Err error
}

// SessionModel is the shared state behind the interactive device session.
// It owns the adapter and the raw feed; rendering lives in the components.
type SessionModel struct {
	adapter *arduino.Adapter

	connected bool
	rawData   []components.DataMsg
	err       error
	ready     bool

	inputMode InputMode

	cancel context.CancelFunc
	ctx    context.Context
	mu     sync.RWMutex
}

func NewSessionModel(adapter *arduino.Adapter) *SessionModel {
	ctx, cancel := context.WithCancel(context.Background())

	return &SessionModel{
		adapter:   adapter,
		rawData:   make([]components.DataMsg, 0),
		inputMode: InputModeNormal,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (m *SessionModel) Adapter() *arduino.Adapter {
	return m.adapter
}

// Subscribe wires the adapter's event streams into the program's message
// loop. Subscriptions stay registered until the adapter is closed.
func (m *SessionModel) Subscribe(send func(msg interface{})) {
	m.adapter.Subscribe(arduino.EventConnected, func(arduino.Event) {
		send(ConnectionStatusMsg{State: arduino.StateConnected, Device: m.adapter.DeviceName()})
	})
	m.adapter.Subscribe(arduino.EventDisconnected, func(arduino.Event) {
		send(ConnectionStatusMsg{State: arduino.StateDisconnected, Device: m.adapter.DeviceName()})
	})
	m.adapter.Subscribe(arduino.EventDataReceived, func(ev arduino.Event) {
		send(components.DataMsg{
			Timestamp: ev.Time,
			Data:      []byte(ev.Data),
			Direction: components.DirectionRX,
		})
	})
	m.adapter.Subscribe(arduino.EventDataSent, func(ev arduino.Event) {
		send(components.DataMsg{
			Timestamp: ev.Time,
			Data:      []byte(ev.Data),
			Direction: components.DirectionTX,
		})
	})
	m.adapter.Subscribe(arduino.EventErrorReceived, func(ev arduino.Event) {
		send(AdapterErrorMsg{Err: ev.Err})
	})
}

func (m *SessionModel) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *SessionModel) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

func (m *SessionModel) GetError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *SessionModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *SessionModel) IsReady() bool {
	return m.ready
}

func (m *SessionModel) SetReady(ready bool) {
	m.ready = ready
}

func (m *SessionModel) GetRawData() []components.DataMsg {
	return m.rawData
}

func (m *SessionModel) AddRawData(msg components.DataMsg) {
	m.rawData = append(m.rawData, msg)
}

// AddNotice appends a connection notice to the feed.
func (m *SessionModel) AddNotice(text string) components.DataMsg {
	msg := components.DataMsg{
		Timestamp: time.Now(),
		Data:      []byte(text),
		Direction: components.DirectionNotice,
	}
	m.rawData = append(m.rawData, msg)
	return msg
}

func (m *SessionModel) ClearData() {
	m.rawData = make([]components.DataMsg, 0)
}

func (m *SessionModel) GetInputMode() InputMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode
}

func (m *SessionModel) SetInputMode(mode InputMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputMode = mode
}

func (m *SessionModel) IsInInsertMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode == InputModeInsert
}

func (m *SessionModel) GetContext() context.Context {
	return m.ctx
}

func (m *SessionModel) Cleanup() {
	if m.cancel != nil {
		m.cancel()
	}
	m.adapter.Close()
}
