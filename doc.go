// Package arduino provides a host-side adapter for a single attached
// Arduino-class serial device: vendor-ID based discovery, connection
// lifecycle management, asynchronous line- and character-oriented I/O, and
// an event stream for observers.
//
// # Basic Usage
//
// Create an adapter, discover the attached board, and connect:
//
//	adapter, err := arduino.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adapter.Close()
//
//	if err := adapter.DiscoverDevice(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := adapter.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Line-oriented I/O
//	err = adapter.WriteLine("PING")
//	reply, err := adapter.ReadLine(context.Background())
//
// # Configuration Options
//
// Use functional options for custom configuration:
//
//	adapter, err := arduino.New(
//	    arduino.WithBaudRate(115200),
//	    arduino.WithVendorIDs("1A86"),
//	    arduino.WithLogger(logger),
//	)
//
// The vendor whitelist always includes the canonical Arduino IDs (2341,
// 2A03, 1B4F); WithVendorIDs extends it. The baud rate is fixed for the
// adapter's lifetime, default 9600.
//
// # Discovery
//
// DiscoverDevice resolves the enumeration snapshot to at most one device:
//
//   - no matching device clears the binding (DeviceName becomes empty) -
//     this is quiet, it models "device unplugged"
//   - exactly one match binds the adapter to that port, without opening it
//   - more than one match fails with ErrAmbiguousDevice; the adapter
//     refuses to guess among candidates rather than risk binding to the
//     wrong hardware
//
// Plug and unplug events on the host re-run discovery automatically.
//
// # Events
//
// Five event streams can be observed: Connected, Disconnected,
// DataReceived, DataSent and ErrorReceived. Delivery is synchronous, in
// registration order, on the goroutine that raised the event:
//
//	sub := adapter.Subscribe(arduino.EventDataReceived, func(ev arduino.Event) {
//	    fmt.Printf("rx: %q\n", ev.Data)
//	})
//	defer adapter.Unsubscribe(sub)
//
// DataSent fires before the underlying write (it signals intent to send);
// DataReceived fires after a read completes, carrying exactly the payload
// the read returned. Handlers must not call back into blocking adapter
// reads.
//
// Inbound data that arrives while no read is pending is drained
// automatically and delivered through DataReceived. End-of-stream and
// other background faults, which have no synchronous caller, surface on
// the ErrorReceived stream.
//
// # Error Handling
//
// The package provides specific error types for robust error handling:
//
//	var (
//	    ErrNoDevice         // no matching device resolved
//	    ErrAmbiguousDevice  // more than one matching device present
//	    ErrPortNotOpen      // I/O attempted against a closed port
//	    ErrOpenFailed       // transport open failure (cause attached)
//	    ErrDeviceFault      // device signalled end-of-stream/framing fault
//	    // ... and more
//	)
//
// Use errors.Is() for error type checking:
//
//	if errors.Is(err, arduino.ErrAmbiguousDevice) {
//	    // more than one board attached
//	}
//
// # Platform Support
//
// The default transport drives Linux serial devices through termios with
// RTS and DTR asserted; the default enumerator and change watcher rely on
// USB port enumeration and /dev notifications. All three are interfaces
// and can be replaced via options, which is also how the package is
// tested.
package arduino
