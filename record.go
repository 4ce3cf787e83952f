package arduino

import "strings"

// Canonical Arduino-class vendor IDs. Every adapter accepts these in
// addition to any IDs supplied at construction.
var defaultVendorIDs = []string{
	"2341", // Arduino SA
	"2A03", // Arduino.org
	"1B4F", // SparkFun
}

// portMarker opens the port token embedded in a record caption, e.g.
// "Arduino Uno (COM5)" or "Arduino Uno (/dev/ttyACM0)".
const portMarker = "("

// DeviceRecord is a read-only snapshot of one plug-and-play device as
// reported by an Enumerator. The adapter never mutates records.
type DeviceRecord struct {
	VendorID  string
	Caption   string
	ErrorCode int
}

// recordMatches reports whether a record is an Arduino-class candidate:
// its vendor ID equals a whitelist entry (case-insensitive), its
// configuration error code says the device is functioning, and its caption
// carries a port token. Malformed records simply do not match.
func recordMatches(rec DeviceRecord, whitelist []string) bool {
	if rec.ErrorCode != 0 {
		return false
	}
	if !strings.Contains(rec.Caption, portMarker) {
		return false
	}
	for _, id := range whitelist {
		if strings.EqualFold(rec.VendorID, id) {
			return true
		}
	}
	return false
}

// mergeVendorIDs unions extra vendor IDs with the canonical defaults,
// dropping duplicates case-insensitively. The defaults always come first.
func mergeVendorIDs(extra []string) []string {
	merged := make([]string, 0, len(defaultVendorIDs)+len(extra))
	seen := make(map[string]struct{}, len(defaultVendorIDs)+len(extra))

	add := func(id string) {
		key := strings.ToUpper(strings.TrimSpace(id))
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		merged = append(merged, key)
	}

	for _, id := range defaultVendorIDs {
		add(id)
	}
	for _, id := range extra {
		add(id)
	}
	return merged
}
