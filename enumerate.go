package arduino

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// Enumerator lists the currently attached plug-and-play devices. The
// adapter calls it on every discovery pass; implementations should return a
// fresh snapshot each time.
type Enumerator interface {
	Records() ([]DeviceRecord, error)
}

// usbEnumerator is the default Enumerator. It builds device records from
// the USB serial ports the operating system currently reports, including
// their vendor IDs and product strings.
type usbEnumerator struct{}

func (usbEnumerator) Records() ([]DeviceRecord, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}

	var records []DeviceRecord
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}

		product := port.Product
		if product == "" {
			product = "USB Serial Device"
		}

		records = append(records, DeviceRecord{
			VendorID: port.VID,
			Caption:  fmt.Sprintf("%s (%s)", product, port.Name),
		})
	}
	return records, nil
}

// ListDevices returns the current USB serial device snapshot, whitelisted
// or not. Tooling that wants to show everything attached uses this; the
// adapter itself only ever sees records through its configured Enumerator.
func ListDevices() ([]DeviceRecord, error) {
	return usbEnumerator{}.Records()
}
