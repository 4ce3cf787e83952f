package arduino

import "errors"

// Predefined error types for robust error handling
var (
	ErrNoDevice        = errors.New("no arduino device found")
	ErrAmbiguousDevice = errors.New("multiple arduino devices found")
	ErrPortNotOpen     = errors.New("serial port is not open")
	ErrOpenFailed      = errors.New("failed to open serial port")
	ErrCloseFailed     = errors.New("failed to close serial port")
	ErrInvalidBaudRate = errors.New("invalid baud rate")
	ErrAdapterClosed   = errors.New("adapter has been closed")

	// Background fault raised when the device signals end-of-stream or a
	// framing condition on the inbound side
	ErrDeviceFault = errors.New("invalid data sent from Arduino device")

	// Raised when the transport reports a signal kind this adapter does
	// not recognize
	ErrUnknownSignal = errors.New("unknown transport signal")

	// USB-related errors
	ErrUSBInfoNotAvailable  = errors.New("USB device information not available")
	ErrUSBResetNotAvailable = errors.New("usbreset utility not available")
)
