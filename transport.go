package arduino

// SignalKind classifies the conditions a transport reports on its signal
// channel.
type SignalKind int

const (
	// SignalDataReady means inbound bytes are waiting to be read.
	SignalDataReady SignalKind = iota
	// SignalEndOfStream means the line hit end-of-stream or a framing
	// condition; the device is considered faulted.
	SignalEndOfStream
	// SignalFault carries a transport-level error.
	SignalFault
)

// Signal is one notification from the transport's inbound side.
type Signal struct {
	Kind SignalKind
	Err  error
}

// Transport is the raw duplex serial line the adapter drives. The adapter
// owns the handle exclusively; the I/O channel borrows it per call and
// re-checks IsOpen every time, because a discovery-triggered teardown or an
// explicit Disconnect can close it concurrently.
type Transport interface {
	Open() error
	Close() error
	IsOpen() bool
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)

	// Signals reports inbound conditions while the transport is open.
	// The channel is closed when the transport closes.
	Signals() <-chan Signal
}

// TransportFactory builds a transport for a resolved port at the adapter's
// configured baud rate. Discovery constructs transports; it never opens
// them.
type TransportFactory func(port string, baudRate int) Transport
