package arduino

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 9600 {
		t.Errorf("Expected default baud rate 9600, got %d", config.BaudRate)
	}
	if config.NewLine != "\n" {
		t.Errorf("Expected default newline %q, got %q", "\n", config.NewLine)
	}
	if config.NewTransport == nil {
		t.Error("Expected a default transport factory")
	}
	if config.Enumerator == nil {
		t.Error("Expected a default enumerator")
	}
}

func TestWithBaudRate(t *testing.T) {
	config := DefaultConfig()
	if err := WithBaudRate(115200)(&config); err != nil {
		t.Fatalf("WithBaudRate(115200) failed: %v", err)
	}
	if config.BaudRate != 115200 {
		t.Errorf("Expected baud rate 115200, got %d", config.BaudRate)
	}
}

func TestWithBaudRateInvalid(t *testing.T) {
	config := DefaultConfig()
	err := WithBaudRate(12345)(&config)
	if !errors.Is(err, ErrInvalidBaudRate) {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
	if config.BaudRate != 9600 {
		t.Errorf("Failed option must not change the config, got %d", config.BaudRate)
	}
}

func TestNewRejectsInvalidBaudRate(t *testing.T) {
	_, err := New(WithBaudRate(12345), WithWatcher(newFakeWatcher()))
	if !errors.Is(err, ErrInvalidBaudRate) {
		t.Errorf("Expected ErrInvalidBaudRate from New, got %v", err)
	}
}

func TestVendorWhitelistMerging(t *testing.T) {
	a, err := New(
		WithVendorIDs("1a86", "2341"), // 2341 is already a default
		WithEnumerator(&fakeEnumerator{}),
		WithWatcher(newFakeWatcher()),
		WithTransportFactory(func(string, int) Transport { return newFakeTransport() }),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	ids := a.VendorIDs()
	want := []string{"2341", "2A03", "1B4F", "1A86"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %d vendor IDs, got %d: %v", len(want), len(ids), ids)
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("Expected vendor ID %q at %d, got %q", id, i, ids[i])
		}
	}
}

func TestVendorIDsReturnsCopy(t *testing.T) {
	a, _, _, _ := newTestAdapter(t)

	ids := a.VendorIDs()
	ids[0] = "FFFF"

	if a.VendorIDs()[0] != "2341" {
		t.Error("VendorIDs must return a copy, not the backing slice")
	}
}

func TestWithNewLine(t *testing.T) {
	config := DefaultConfig()
	if err := WithNewLine("\r\n")(&config); err != nil {
		t.Fatalf("WithNewLine failed: %v", err)
	}
	if config.NewLine != "\r\n" {
		t.Errorf("Expected newline %q, got %q", "\r\n", config.NewLine)
	}

	// Empty falls back to the default terminator.
	if err := WithNewLine("")(&config); err != nil {
		t.Fatalf("WithNewLine(\"\") failed: %v", err)
	}
	if config.NewLine != "\n" {
		t.Errorf("Expected fallback newline %q, got %q", "\n", config.NewLine)
	}
}

func TestGetBaudRate(t *testing.T) {
	for _, rate := range []int{300, 9600, 19200, 115200, 2000000} {
		if _, err := getBaudRate(rate); err != nil {
			t.Errorf("Expected %d baud to be supported: %v", rate, err)
		}
	}
	if _, err := getBaudRate(0); !errors.Is(err, ErrInvalidBaudRate) {
		t.Errorf("Expected ErrInvalidBaudRate for 0, got %v", err)
	}
}
