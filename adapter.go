package arduino

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ConnectionState is owned by the adapter; transitions happen only under
// its lock.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Adapter binds to a single attached Arduino-class device: it discovers
// the device by vendor ID, manages the connection lifecycle, and performs
// line- and character-oriented I/O against the open port.
//
// One mutex serializes every state transition - explicit Connect and
// Disconnect calls as well as watcher-triggered rediscovery - so a
// plug/unplug event can never interleave with an in-flight connect. All
// reads, application-initiated and signal-triggered alike, go through a
// second lock so an automatic drain cannot race a pending ReadLine.
type Adapter struct {
	mu        sync.Mutex
	config    Config
	vendorIDs []string
	state     ConnectionState
	endpoint  *Endpoint
	transport Transport
	// transportPort is the port the current transport was built for. It
	// can lag behind endpoint.Port after a re-enumeration while the old
	// handle was still open; Connect reconciles the two.
	transportPort string
	watcher       ChangeWatcher
	pumpDone  chan struct{}
	closed    bool

	events *dispatcher
	log    zerolog.Logger

	readMu  sync.Mutex
	pending []byte
}

// New constructs an adapter. The vendor whitelist is merged once with the
// canonical Arduino IDs and the baud rate is fixed for the adapter's
// lifetime. The returned adapter is Disconnected and has no endpoint until
// DiscoverDevice is called; plug/unplug events re-run discovery
// automatically.
func New(opts ...Option) (*Adapter, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	a := &Adapter{
		config:    config,
		vendorIDs: mergeVendorIDs(config.VendorIDs),
		state:     StateDisconnected,
		events:    newDispatcher(config.Logger),
		log:       config.Logger,
	}

	watcher := config.Watcher
	if watcher == nil {
		var err error
		watcher, err = newDevWatcher()
		if err != nil {
			return nil, err
		}
	}
	a.watcher = watcher
	go a.watchChanges(watcher)

	return a, nil
}

// watchChanges re-runs discovery whenever the watcher reports that the set
// of attached devices changed. There is no synchronous caller for these
// passes, so failures route to the ErrorReceived stream.
func (a *Adapter) watchChanges(w ChangeWatcher) {
	for range w.Events() {
		a.log.Debug().Msg("device change detected, rescanning")
		err := a.DiscoverDevice()
		if err != nil && !errors.Is(err, ErrAdapterClosed) {
			a.events.emit(Event{Kind: EventErrorReceived, Err: err})
		}
	}
}

// DiscoverDevice resolves the current enumeration snapshot to at most one
// endpoint.
//
// No match clears the endpoint; an open transport is left alone, since the
// registry losing track of the device does not invalidate a working handle.
// Exactly one match re-targets the adapter: a fresh transport is configured
// for the port but not opened. More than one match fails with
// ErrAmbiguousDevice and leaves any prior endpoint untouched.
func (a *Adapter) DiscoverDevice() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrAdapterClosed
	}

	records, err := a.config.Enumerator.Records()
	if err != nil {
		return fmt.Errorf("enumerate devices: %w", err)
	}

	endpoint, err := resolveEndpoint(records, a.vendorIDs)
	if err != nil {
		return fmt.Errorf("discover device: %w", err)
	}

	if endpoint == nil {
		a.log.Debug().Msg("no matching device present")
		a.endpoint = nil
		if a.transport != nil && !a.transport.IsOpen() {
			a.transport = nil
			a.transportPort = ""
		}
		return nil
	}

	a.log.Info().
		Str("port", endpoint.Port).
		Str("device", endpoint.Name).
		Msg("device resolved")
	a.endpoint = endpoint
	if a.transport == nil || !a.transport.IsOpen() {
		a.transport = a.config.NewTransport(endpoint.Port, a.config.BaudRate)
		a.transportPort = endpoint.Port
	}
	return nil
}

// Connect opens the transport configured by the last discovery and raises
// a Connected event. Calling it while already connected is a no-op: no
// second open, no duplicate event.
func (a *Adapter) Connect() error {
	a.mu.Lock()

	if a.closed {
		a.mu.Unlock()
		return ErrAdapterClosed
	}
	if a.state == StateConnected {
		a.mu.Unlock()
		return nil
	}
	// Discovery can clear the endpoint while a stale transport handle is
	// still around; without an endpoint there is nothing to connect to.
	if a.endpoint == nil {
		a.mu.Unlock()
		return fmt.Errorf("connect: %w", ErrNoDevice)
	}

	// Discovery never rebuilds the transport under an open handle, so the
	// configured port can lag behind a re-enumerated endpoint. Catch up
	// before opening anything.
	if a.transport == nil || a.transportPort != a.endpoint.Port {
		a.transport = a.config.NewTransport(a.endpoint.Port, a.config.BaudRate)
		a.transportPort = a.endpoint.Port
	}

	a.state = StateConnecting
	transport := a.transport
	if err := transport.Open(); err != nil {
		a.state = StateDisconnected
		a.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	a.state = StateConnected
	done := make(chan struct{})
	a.pumpDone = done
	go a.consumeSignals(transport, done)

	port := a.endpoint.Port
	a.mu.Unlock()

	a.log.Info().Str("port", port).Int("baud", a.config.BaudRate).Msg("connected")
	a.events.emit(Event{Kind: EventConnected})
	return nil
}

// Disconnect closes the transport and raises a Disconnected event.
// Calling it while already disconnected is a no-op.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()

	if a.state == StateDisconnected {
		a.mu.Unlock()
		return nil
	}

	a.stopPump()
	err := a.transport.Close()
	a.state = StateDisconnected
	a.mu.Unlock()

	a.log.Info().Msg("disconnected")
	a.events.emit(Event{Kind: EventDisconnected})

	if err != nil {
		return fmt.Errorf("%w: %w", ErrCloseFailed, err)
	}
	return nil
}

// stopPump is called with a.mu held.
func (a *Adapter) stopPump() {
	if a.pumpDone != nil {
		close(a.pumpDone)
		a.pumpDone = nil
	}
}

// consumeSignals turns unsolicited transport conditions into channel
// activity: data-ready drains the line through the read queue, everything
// else is a background fault with no synchronous caller and goes out on
// the ErrorReceived stream.
func (a *Adapter) consumeSignals(t Transport, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case sig, ok := <-t.Signals():
			if !ok {
				return
			}
			switch sig.Kind {
			case SignalDataReady:
				a.autoRead()
			case SignalEndOfStream:
				a.events.emit(Event{Kind: EventErrorReceived, Err: ErrDeviceFault})
			case SignalFault:
				a.events.emit(Event{
					Kind: EventErrorReceived,
					Err:  fmt.Errorf("transport fault: %w", sig.Err),
				})
			default:
				a.events.emit(Event{
					Kind: EventErrorReceived,
					Err:  fmt.Errorf("%w: kind %d", ErrUnknownSignal, sig.Kind),
				})
			}
		}
	}
}

// autoRead drains immediately-available data on behalf of the data-ready
// signal. A concurrent close is not a fault here; the pump simply stops on
// the next signal.
func (a *Adapter) autoRead() {
	data, err := a.readToEnd(context.Background())
	if err != nil {
		if !errors.Is(err, ErrPortNotOpen) && !errors.Is(err, ErrAdapterClosed) {
			a.events.emit(Event{Kind: EventErrorReceived, Err: err})
		}
		return
	}
	if data != "" {
		a.events.emit(Event{Kind: EventDataReceived, Data: data})
	}
}

// DeviceName returns the display name of the last resolved endpoint, or
// the empty string when none is bound.
func (a *Adapter) DeviceName() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.endpoint == nil {
		return ""
	}
	return a.endpoint.Name
}

// Endpoint returns a copy of the current endpoint, or nil.
func (a *Adapter) Endpoint() *Endpoint {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.endpoint == nil {
		return nil
	}
	endpoint := *a.endpoint
	return &endpoint
}

// State returns the current connection state.
func (a *Adapter) State() ConnectionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Status returns a human-readable summary of the adapter binding.
func (a *Adapter) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.endpoint == nil {
		return "no device found"
	}
	return fmt.Sprintf("%s at %d baud", a.endpoint.Name, a.config.BaudRate)
}

// BaudRate returns the baud rate fixed at construction.
func (a *Adapter) BaudRate() int {
	return a.config.BaudRate
}

// VendorIDs returns the merged vendor whitelist.
func (a *Adapter) VendorIDs() []string {
	ids := make([]string, len(a.vendorIDs))
	copy(ids, a.vendorIDs)
	return ids
}

// Subscribe registers a handler for one event kind. Handlers run
// synchronously, in registration order, on the goroutine that raised the
// event.
func (a *Adapter) Subscribe(kind EventKind, fn Handler) Subscription {
	return a.events.subscribe(kind, fn)
}

// Unsubscribe removes a handler. Safe to call from inside a handler.
func (a *Adapter) Unsubscribe(sub Subscription) {
	a.events.unsubscribe(sub)
}

// Close tears the adapter down: it closes the transport if open and stops
// the change watcher. Close is idempotent and safe even if construction
// only partially succeeded; after it returns, every operation except Close
// and Disconnect fails with ErrAdapterClosed.
func (a *Adapter) Close() error {
	a.mu.Lock()

	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.stopPump()

	wasConnected := a.state == StateConnected
	var err error
	if a.transport != nil && a.transport.IsOpen() {
		err = a.transport.Close()
	}
	a.state = StateDisconnected
	watcher := a.watcher
	a.watcher = nil
	a.mu.Unlock()

	if watcher != nil {
		if werr := watcher.Close(); err == nil {
			err = werr
		}
	}

	if wasConnected {
		a.events.emit(Event{Kind: EventDisconnected})
	}

	a.log.Debug().Msg("adapter closed")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCloseFailed, err)
	}
	return nil
}
