package arduino

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// usbLocation is the bus/device pair identifying a USB device on the host.
type usbLocation struct {
	Bus    string
	Device string
}

// ResetDevice performs a USB-level reset of the resolved device. This can
// recover a board that is in a hung or unresponsive state.
//
// Requirements:
// - a device must have been resolved by DiscoverDevice
// - the usbreset utility must be installed (from usbutils)
// - appropriate permissions (typically root/sudo)
//
// The adapter must be disconnected first; resetting an open handle leaves
// the transport in an undefined state.
func (a *Adapter) ResetDevice() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrAdapterClosed
	}
	if a.state != StateDisconnected {
		a.mu.Unlock()
		return fmt.Errorf("reset device: disconnect first")
	}
	endpoint := a.endpoint
	a.mu.Unlock()

	if endpoint == nil {
		return fmt.Errorf("reset device: %w", ErrNoDevice)
	}

	loc, err := usbLocationForPort(endpoint.Port)
	if err != nil {
		return err
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	// usbreset expects zero-padded 3-digit bus and device numbers
	usbPath := fmt.Sprintf("%03s/%03s", loc.Bus, loc.Device)
	cmd := exec.Command("usbreset", usbPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}

	// Give the device time to re-enumerate; the change watcher will then
	// trigger a fresh discovery pass.
	time.Sleep(2 * time.Second)

	return nil
}

// usbLocationForPort walks sysfs from a tty device node to the USB device
// that carries it and reads its bus and device numbers.
func usbLocationForPort(port string) (usbLocation, error) {
	name := filepath.Base(port)
	devLink := filepath.Join("/sys/class/tty", name, "device")

	// The tty sits on a USB interface; its parent is the USB device with
	// busnum/devnum attributes.
	iface, err := filepath.EvalSymlinks(devLink)
	if err != nil {
		return usbLocation{}, fmt.Errorf("%w: %v", ErrUSBInfoNotAvailable, err)
	}
	usbDev := filepath.Dir(iface)

	bus, err := readSysfsAttr(usbDev, "busnum")
	if err != nil {
		return usbLocation{}, err
	}
	device, err := readSysfsAttr(usbDev, "devnum")
	if err != nil {
		return usbLocation{}, err
	}
	return usbLocation{Bus: bus, Device: device}, nil
}

func readSysfsAttr(dir, attr string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, attr))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUSBInfoNotAvailable, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}
