package arduino

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// borrowTransport hands out the transport for the duration of one I/O
// call. Openness is re-checked on every borrow rather than cached, because
// the handle can be closed concurrently by Disconnect or teardown.
func (a *Adapter) borrowTransport() (Transport, error) {
	a.mu.Lock()
	transport := a.transport
	closed := a.closed
	a.mu.Unlock()

	if closed {
		return nil, ErrAdapterClosed
	}
	if transport == nil || !transport.IsOpen() {
		return nil, ErrPortNotOpen
	}
	return transport, nil
}

// readContext performs one transport read that can be abandoned through
// the context. An abandoned read leaves the inner goroutine parked on the
// transport until it yields; the channel result is simply dropped.
func readContext(ctx context.Context, t Transport, buf []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	type readResult struct {
		n   int
		err error
	}
	resultCh := make(chan readResult, 1)

	go func() {
		n, err := t.Read(buf)
		resultCh <- readResult{n: n, err: err}
	}()

	select {
	case result := <-resultCh:
		return result.n, result.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ReadLine suspends until a full line or end-of-stream arrives and returns
// the line without its terminator. On a clean end-of-stream with no
// buffered data it returns io.EOF. A successful read raises exactly one
// DataReceived event carrying the returned line.
func (a *Adapter) ReadLine(ctx context.Context) (string, error) {
	line, err := a.readLine(ctx)
	if err != nil {
		return "", err
	}
	a.events.emit(Event{Kind: EventDataReceived, Data: line})
	return line, nil
}

func (a *Adapter) readLine(ctx context.Context) (string, error) {
	a.readMu.Lock()
	defer a.readMu.Unlock()

	newline := []byte(a.config.NewLine)
	buf := make([]byte, 1024)

	for {
		if idx := bytes.Index(a.pending, newline); idx >= 0 {
			line := string(a.pending[:idx])
			a.pending = a.pending[idx+len(newline):]
			return strings.TrimSuffix(line, "\r"), nil
		}

		transport, err := a.borrowTransport()
		if err != nil {
			return "", fmt.Errorf("read line: %w", err)
		}

		n, err := readContext(ctx, transport, buf)
		if err == io.EOF {
			if len(a.pending) > 0 {
				line := string(a.pending)
				a.pending = nil
				return strings.TrimSuffix(line, "\r"), nil
			}
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("read line: %w", err)
		}
		if n > 0 {
			a.pending = append(a.pending, buf[:n]...)
			continue
		}

		// Nothing available yet; the transport read timeout paces this
		// loop. Bail out if the caller gave up.
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
	}
}

// ReadToEnd returns everything the stream yields without suspending for
// more: buffered data plus whatever is immediately available, possibly the
// empty string. A successful read raises exactly one DataReceived event
// carrying the returned payload.
func (a *Adapter) ReadToEnd(ctx context.Context) (string, error) {
	data, err := a.readToEnd(ctx)
	if err != nil {
		return "", err
	}
	a.events.emit(Event{Kind: EventDataReceived, Data: data})
	return data, nil
}

func (a *Adapter) readToEnd(ctx context.Context) (string, error) {
	a.readMu.Lock()
	defer a.readMu.Unlock()

	out := a.pending
	a.pending = nil
	buf := make([]byte, 4096)

	// A failed read must not cost the caller the buffered bytes; they go
	// back for the next read to pick up.
	restore := func() { a.pending = out }

	for {
		transport, err := a.borrowTransport()
		if err != nil {
			restore()
			return "", fmt.Errorf("read to end: %w", err)
		}

		n, err := readContext(ctx, transport, buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err == io.EOF || (err == nil && n == 0) {
			return string(out), nil
		}
		if err != nil {
			restore()
			return "", fmt.Errorf("read to end: %w", err)
		}
	}
}

// writeBytes pushes one payload at the transport. The DataSent event
// signals intent to send and is raised before the underlying write, so
// consumers can pair later completions against it.
func (a *Adapter) writeBytes(p []byte) error {
	transport, err := a.borrowTransport()
	if err != nil {
		return err
	}

	a.events.emit(Event{Kind: EventDataSent, Data: string(p)})

	if _, err := transport.Write(p); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// WriteString writes a string as-is.
func (a *Adapter) WriteString(s string) error {
	return a.writeBytes([]byte(s))
}

// WriteLine writes a string followed by the configured line terminator.
func (a *Adapter) WriteLine(s string) error {
	return a.writeBytes([]byte(s + a.config.NewLine))
}

// WriteBytes writes a raw buffer.
func (a *Adapter) WriteBytes(p []byte) error {
	return a.writeBytes(p)
}

// WriteBytesLine writes a raw buffer followed by the line terminator.
func (a *Adapter) WriteBytesLine(p []byte) error {
	return a.writeBytes(append(append([]byte{}, p...), a.config.NewLine...))
}

// WriteSlice writes count bytes of p starting at offset.
func (a *Adapter) WriteSlice(p []byte, offset, count int) error {
	if offset < 0 || count < 0 || offset+count > len(p) {
		return fmt.Errorf("write slice: offset %d count %d out of range for %d bytes", offset, count, len(p))
	}
	return a.writeBytes(p[offset : offset+count])
}

// WriteSliceLine writes count bytes of p starting at offset, followed by
// the line terminator.
func (a *Adapter) WriteSliceLine(p []byte, offset, count int) error {
	if offset < 0 || count < 0 || offset+count > len(p) {
		return fmt.Errorf("write slice: offset %d count %d out of range for %d bytes", offset, count, len(p))
	}
	return a.WriteBytesLine(p[offset : offset+count])
}

// WriteByte writes a single byte.
func (a *Adapter) WriteByte(b byte) error {
	return a.writeBytes([]byte{b})
}

// WriteByteLine writes a single byte followed by the line terminator.
func (a *Adapter) WriteByteLine(b byte) error {
	return a.writeBytes(append([]byte{b}, a.config.NewLine...))
}

// WriteNewLine writes the bare line terminator.
func (a *Adapter) WriteNewLine() error {
	return a.writeBytes([]byte(a.config.NewLine))
}
