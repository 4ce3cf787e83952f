package arduino

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

// connectedAdapter is a discovered, connected adapter on a fake transport.
func connectedAdapter(t *testing.T) (*Adapter, *fakeTransport) {
	t.Helper()

	a, transport, _, _ := newTestAdapter(t, unoRecord())
	if err := a.DiscoverDevice(); err != nil {
		t.Fatalf("DiscoverDevice failed: %v", err)
	}
	if err := a.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return a, transport
}

func TestIOWhileNotOpen(t *testing.T) {
	a, _, _, _ := newTestAdapter(t, unoRecord())
	received := countEvents(a, EventDataReceived)
	sent := countEvents(a, EventDataSent)

	if err := a.DiscoverDevice(); err != nil {
		t.Fatalf("DiscoverDevice failed: %v", err)
	}

	// Resolved but never connected: every channel operation must fail
	// without raising data events.
	if _, err := a.ReadLine(context.Background()); !errors.Is(err, ErrPortNotOpen) {
		t.Errorf("ReadLine: expected ErrPortNotOpen, got %v", err)
	}
	if _, err := a.ReadToEnd(context.Background()); !errors.Is(err, ErrPortNotOpen) {
		t.Errorf("ReadToEnd: expected ErrPortNotOpen, got %v", err)
	}
	if err := a.WriteLine("PING"); !errors.Is(err, ErrPortNotOpen) {
		t.Errorf("WriteLine: expected ErrPortNotOpen, got %v", err)
	}
	if err := a.WriteByte('x'); !errors.Is(err, ErrPortNotOpen) {
		t.Errorf("WriteByte: expected ErrPortNotOpen, got %v", err)
	}

	if *received != 0 || *sent != 0 {
		t.Errorf("Failed I/O must not raise events, got %d received / %d sent", *received, *sent)
	}
}

func TestIOAfterDisconnect(t *testing.T) {
	a, _ := connectedAdapter(t)

	if err := a.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if err := a.WriteLine("PING"); !errors.Is(err, ErrPortNotOpen) {
		t.Errorf("Expected ErrPortNotOpen after disconnect, got %v", err)
	}
}

func TestDataSentBeforeWrite(t *testing.T) {
	a, transport := connectedAdapter(t)

	var writesAtEvent int
	a.Subscribe(EventDataSent, func(Event) {
		writesAtEvent = transport.writeCount()
	})

	if err := a.WriteString("PING"); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}

	if writesAtEvent != 0 {
		t.Errorf("DataSent must fire before the write, saw %d writes at event time", writesAtEvent)
	}
	if transport.writeCount() != 1 {
		t.Errorf("Expected 1 write after the call, got %d", transport.writeCount())
	}
}

func TestDataSentCarriesExactPayload(t *testing.T) {
	a, _ := connectedAdapter(t)

	var payload string
	a.Subscribe(EventDataSent, func(ev Event) { payload = ev.Data })

	if err := a.WriteLine("PING"); err != nil {
		t.Fatalf("WriteLine failed: %v", err)
	}
	if payload != "PING\n" {
		t.Errorf("Expected DataSent payload %q, got %q", "PING\n", payload)
	}
}

func TestWriteVariants(t *testing.T) {
	a, transport := connectedAdapter(t)

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"WriteString", func() error { return a.WriteString("abc") }, "abc"},
		{"WriteLine", func() error { return a.WriteLine("abc") }, "abc\n"},
		{"WriteBytes", func() error { return a.WriteBytes([]byte{0x01, 0x02}) }, "\x01\x02"},
		{"WriteBytesLine", func() error { return a.WriteBytesLine([]byte("ab")) }, "ab\n"},
		{"WriteSlice", func() error { return a.WriteSlice([]byte("abcdef"), 2, 3) }, "cde"},
		{"WriteSliceLine", func() error { return a.WriteSliceLine([]byte("abcdef"), 0, 2) }, "ab\n"},
		{"WriteByte", func() error { return a.WriteByte('Q') }, "Q"},
		{"WriteByteLine", func() error { return a.WriteByteLine('Q') }, "Q\n"},
		{"WriteNewLine", a.WriteNewLine, "\n"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			transport.mu.Lock()
			got := transport.writes[i]
			transport.mu.Unlock()
			if !bytes.Equal(got, []byte(tt.want)) {
				t.Errorf("%s wrote %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestWriteSliceOutOfRange(t *testing.T) {
	a, transport := connectedAdapter(t)
	sent := countEvents(a, EventDataSent)

	for _, args := range [][2]int{{-1, 2}, {0, -1}, {4, 3}, {0, 7}} {
		if err := a.WriteSlice([]byte("abcdef"), args[0], args[1]); err == nil {
			t.Errorf("WriteSlice(%d, %d) should fail", args[0], args[1])
		}
	}
	if *sent != 0 {
		t.Errorf("Rejected slices must not raise DataSent, got %d", *sent)
	}
	if transport.writeCount() != 0 {
		t.Errorf("Rejected slices must not reach the transport, got %d writes", transport.writeCount())
	}
}

func TestReadLine(t *testing.T) {
	a, transport := connectedAdapter(t)

	var payloads []string
	a.Subscribe(EventDataReceived, func(ev Event) { payloads = append(payloads, ev.Data) })

	transport.feed("PONG\nREADY\n")

	line, err := a.ReadLine(context.Background())
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "PONG" {
		t.Errorf("Expected line PONG, got %q", line)
	}

	// The second line was buffered by the first read.
	line, err = a.ReadLine(context.Background())
	if err != nil {
		t.Fatalf("Second ReadLine failed: %v", err)
	}
	if line != "READY" {
		t.Errorf("Expected line READY, got %q", line)
	}

	if len(payloads) != 2 || payloads[0] != "PONG" || payloads[1] != "READY" {
		t.Errorf("Expected DataReceived [PONG READY], got %v", payloads)
	}
}

func TestReadLineStripsCarriageReturn(t *testing.T) {
	a, transport := connectedAdapter(t)

	transport.feed("PONG\r\n")

	line, err := a.ReadLine(context.Background())
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "PONG" {
		t.Errorf("Expected PONG with CR stripped, got %q", line)
	}
}

func TestReadLineEndOfStream(t *testing.T) {
	a, transport := connectedAdapter(t)

	// Partial line followed by end-of-stream yields the partial.
	transport.feed("PART")
	transport.mu.Lock()
	transport.eof = true
	transport.mu.Unlock()

	line, err := a.ReadLine(context.Background())
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "PART" {
		t.Errorf("Expected buffered partial PART, got %q", line)
	}

	// A clean end-of-stream with nothing buffered is io.EOF.
	if _, err := a.ReadLine(context.Background()); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestReadLineContextCancelled(t *testing.T) {
	a, _ := connectedAdapter(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := a.ReadLine(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

func TestReadToEnd(t *testing.T) {
	a, transport := connectedAdapter(t)

	var payload string
	a.Subscribe(EventDataReceived, func(ev Event) { payload = ev.Data })

	transport.feed("73\r\n")

	data, err := a.ReadToEnd(context.Background())
	if err != nil {
		t.Fatalf("ReadToEnd failed: %v", err)
	}
	if data != "73\r\n" {
		t.Errorf("Expected raw payload %q, got %q", "73\r\n", data)
	}
	if payload != data {
		t.Errorf("DataReceived payload %q must equal the returned data %q", payload, data)
	}
}

func TestReadToEndEmpty(t *testing.T) {
	a, _ := connectedAdapter(t)
	received := countEvents(a, EventDataReceived)

	data, err := a.ReadToEnd(context.Background())
	if err != nil {
		t.Fatalf("ReadToEnd failed: %v", err)
	}
	if data != "" {
		t.Errorf("Expected empty payload, got %q", data)
	}
	// An explicit read reports its result even when nothing was available.
	if *received != 1 {
		t.Errorf("Expected 1 DataReceived event, got %d", *received)
	}
}

func TestReadToEndKeepsBufferWhenNotOpen(t *testing.T) {
	a, transport := connectedAdapter(t)

	transport.feed("LINE\nTRAILER")
	if _, err := a.ReadLine(context.Background()); err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}

	if err := a.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if _, err := a.ReadToEnd(context.Background()); !errors.Is(err, ErrPortNotOpen) {
		t.Fatalf("Expected ErrPortNotOpen, got %v", err)
	}

	// The failed read must not have eaten the buffered remainder.
	if err := a.Connect(); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}
	data, err := a.ReadToEnd(context.Background())
	if err != nil {
		t.Fatalf("ReadToEnd failed: %v", err)
	}
	if data != "TRAILER" {
		t.Errorf("Expected buffered remainder TRAILER, got %q", data)
	}
}

func TestReadToEndDrainsBuffered(t *testing.T) {
	a, transport := connectedAdapter(t)

	transport.feed("LINE\nTRAILER")
	if _, err := a.ReadLine(context.Background()); err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}

	data, err := a.ReadToEnd(context.Background())
	if err != nil {
		t.Fatalf("ReadToEnd failed: %v", err)
	}
	if data != "TRAILER" {
		t.Errorf("Expected buffered remainder TRAILER, got %q", data)
	}
}
