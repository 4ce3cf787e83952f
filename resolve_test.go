package arduino

import (
	"errors"
	"testing"
)

func TestRecordMatches(t *testing.T) {
	whitelist := []string{"2341", "2A03"}

	tests := []struct {
		name   string
		record DeviceRecord
		want   bool
	}{
		{
			name:   "matching vendor",
			record: DeviceRecord{VendorID: "2341", Caption: "Arduino Uno (COM5)"},
			want:   true,
		},
		{
			name:   "case insensitive vendor",
			record: DeviceRecord{VendorID: "2a03", Caption: "Arduino Due (COM3)"},
			want:   true,
		},
		{
			name:   "unlisted vendor",
			record: DeviceRecord{VendorID: "1A86", Caption: "CH340 (COM7)"},
			want:   false,
		},
		{
			name:   "faulted record",
			record: DeviceRecord{VendorID: "2341", Caption: "Arduino Uno (COM5)", ErrorCode: 10},
			want:   false,
		},
		{
			name:   "caption without port marker",
			record: DeviceRecord{VendorID: "2341", Caption: "Arduino Uno"},
			want:   false,
		},
		{
			name:   "empty vendor",
			record: DeviceRecord{VendorID: "", Caption: "Unknown (COM9)"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recordMatches(tt.record, whitelist); got != tt.want {
				t.Errorf("recordMatches(%+v) = %v, want %v", tt.record, got, tt.want)
			}
		})
	}
}

func TestMergeVendorIDs(t *testing.T) {
	merged := mergeVendorIDs([]string{"1a86", "2341", "10C4"})

	want := []string{"2341", "2A03", "1B4F", "1A86", "10C4"}
	if len(merged) != len(want) {
		t.Fatalf("Expected %d vendor IDs, got %d: %v", len(want), len(merged), merged)
	}
	for i, id := range want {
		if merged[i] != id {
			t.Errorf("Expected vendor ID %q at %d, got %q", id, i, merged[i])
		}
	}
}

func TestResolveEndpointNone(t *testing.T) {
	endpoint, err := resolveEndpoint(nil, defaultVendorIDs)
	if err != nil {
		t.Fatalf("resolveEndpoint failed: %v", err)
	}
	if endpoint != nil {
		t.Errorf("Expected no endpoint, got %+v", endpoint)
	}
}

func TestResolveEndpointNoMatchIsQuiet(t *testing.T) {
	records := []DeviceRecord{
		{VendorID: "1A86", Caption: "CH340 (COM7)"},
	}
	endpoint, err := resolveEndpoint(records, defaultVendorIDs)
	if err != nil {
		t.Fatalf("resolveEndpoint failed: %v", err)
	}
	if endpoint != nil {
		t.Errorf("Expected no endpoint, got %+v", endpoint)
	}
}

func TestResolveEndpointSingle(t *testing.T) {
	records := []DeviceRecord{
		{VendorID: "1A86", Caption: "CH340 (COM7)"},
		{VendorID: "2431", Caption: "Arduino Uno (COM5)"},
	}
	endpoint, err := resolveEndpoint(records, []string{"2431"})
	if err != nil {
		t.Fatalf("resolveEndpoint failed: %v", err)
	}
	if endpoint == nil {
		t.Fatal("Expected an endpoint")
	}
	if endpoint.Port != "COM5" {
		t.Errorf("Expected port COM5, got %q", endpoint.Port)
	}
	if endpoint.Name != "Arduino Uno" {
		t.Errorf("Expected name 'Arduino Uno', got %q", endpoint.Name)
	}
}

func TestResolveEndpointAmbiguous(t *testing.T) {
	records := []DeviceRecord{
		{VendorID: "2341", Caption: "Arduino Uno (/dev/ttyACM0)"},
		{VendorID: "1B4F", Caption: "SparkFun Pro Micro (/dev/ttyACM1)"},
	}
	endpoint, err := resolveEndpoint(records, defaultVendorIDs)
	if !errors.Is(err, ErrAmbiguousDevice) {
		t.Fatalf("Expected ErrAmbiguousDevice, got %v", err)
	}
	if endpoint != nil {
		t.Errorf("Expected no endpoint on ambiguity, got %+v", endpoint)
	}
}

func TestEndpointFromRecord(t *testing.T) {
	tests := []struct {
		caption  string
		wantPort string
		wantName string
	}{
		{"Arduino Uno (COM5)", "COM5", "Arduino Uno"},
		{"Arduino Mega 2560 (/dev/ttyACM0)", "/dev/ttyACM0", "Arduino Mega 2560"},
		// Only the last parenthesised token is the port.
		{"Genuino (rev 3) (COM7)", "COM7", "Genuino (rev 3)"},
	}

	for _, tt := range tests {
		endpoint := endpointFromRecord(DeviceRecord{VendorID: "2341", Caption: tt.caption})
		if endpoint.Port != tt.wantPort {
			t.Errorf("Caption %q: expected port %q, got %q", tt.caption, tt.wantPort, endpoint.Port)
		}
		if endpoint.Name != tt.wantName {
			t.Errorf("Caption %q: expected name %q, got %q", tt.caption, tt.wantName, endpoint.Name)
		}
	}
}
