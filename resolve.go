package arduino

import (
	"fmt"
	"strings"
)

// Endpoint identifies the single serial device instance currently bound to
// the adapter. Immutable; rediscovery replaces it wholesale.
type Endpoint struct {
	Port string
	Name string
}

// resolveEndpoint filters records through the vendor whitelist and resolves
// them to at most one endpoint.
//
// Zero matches yield (nil, nil) - that is not an error, it models "device
// unplugged". Exactly one match yields an endpoint derived from the record
// caption. Two or more matches fail with ErrAmbiguousDevice: picking one
// candidate could silently bind to the wrong hardware, so the caller must
// not guess.
func resolveEndpoint(records []DeviceRecord, whitelist []string) (*Endpoint, error) {
	var matched []DeviceRecord
	for _, rec := range records {
		if recordMatches(rec, whitelist) {
			matched = append(matched, rec)
		}
	}

	switch len(matched) {
	case 0:
		return nil, nil
	case 1:
		return endpointFromRecord(matched[0]), nil
	default:
		return nil, fmt.Errorf("%w: %d matching records", ErrAmbiguousDevice, len(matched))
	}
}

// endpointFromRecord derives an endpoint from a matching record. The port
// token is the caption substring following the last port marker, with the
// closing parenthesis stripped. The display name is the caption with the
// port token removed.
func endpointFromRecord(rec DeviceRecord) *Endpoint {
	idx := strings.LastIndex(rec.Caption, portMarker)
	port := rec.Caption[idx+len(portMarker):]
	port = strings.TrimRight(strings.TrimSpace(port), ")")

	name := strings.TrimSpace(rec.Caption[:idx])
	if name == "" {
		name = rec.Caption
	}

	return &Endpoint{Port: port, Name: name}
}
