package arduino

import "github.com/rs/zerolog"

// Config holds the configuration for an adapter. The baud rate and the
// merged vendor whitelist are fixed once the adapter is constructed.
type Config struct {
	BaudRate  int
	VendorIDs []string // extra vendor IDs, merged with the defaults by New
	NewLine   string
	Logger    zerolog.Logger

	NewTransport TransportFactory
	Enumerator   Enumerator
	Watcher      ChangeWatcher // nil means watch /dev with fsnotify
}

// Option is a functional option for configuring an adapter
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:     9600,
		NewLine:      "\n",
		Logger:       zerolog.Nop(),
		NewTransport: NewTTYTransport,
		Enumerator:   usbEnumerator{},
	}
}

// WithBaudRate sets the baud rate used when the resolved port is opened
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithVendorIDs adds vendor IDs to the discovery whitelist. The canonical
// Arduino IDs are always included; duplicates are dropped.
func WithVendorIDs(ids ...string) Option {
	return func(c *Config) error {
		c.VendorIDs = append(c.VendorIDs, ids...)
		return nil
	}
}

// WithNewLine sets the line terminator for line-oriented reads and writes
func WithNewLine(nl string) Option {
	return func(c *Config) error {
		if nl == "" {
			nl = "\n"
		}
		c.NewLine = nl
		return nil
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = log
		return nil
	}
}

// WithTransportFactory overrides how transports are built for resolved
// ports. Mainly useful for testing against an in-memory line.
func WithTransportFactory(factory TransportFactory) Option {
	return func(c *Config) error {
		c.NewTransport = factory
		return nil
	}
}

// WithEnumerator overrides the device enumeration source
func WithEnumerator(e Enumerator) Option {
	return func(c *Config) error {
		c.Enumerator = e
		return nil
	}
}

// WithWatcher overrides the plug/unplug change watcher
func WithWatcher(w ChangeWatcher) Option {
	return func(c *Config) error {
		c.Watcher = w
		return nil
	}
}
