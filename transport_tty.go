package arduino

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ttyTransport is the default Transport, driving a Linux serial device
// through termios. The line is configured raw 8N1 with both RTS and DTR
// asserted, which is what resets classic Arduino boards into their
// bootloader handshake.
type ttyTransport struct {
	mu   sync.RWMutex
	path string
	baud int

	fd      int
	open    bool
	signals chan Signal
	done    chan struct{}
}

// NewTTYTransport returns a transport for the serial device at path. It is
// the adapter's default TransportFactory.
func NewTTYTransport(path string, baudRate int) Transport {
	return &ttyTransport{path: path, baud: baudRate, fd: -1}
}

var _ Transport = (*ttyTransport)(nil)

// getBaudRate converts an integer baud rate to the unix constant
func getBaudRate(rate int) (uint32, error) {
	switch rate {
	case 300:
		return unix.B300, nil
	case 600:
		return unix.B600, nil
	case 1200:
		return unix.B1200, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 500000:
		return unix.B500000, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 2000000:
		return unix.B2000000, nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

func (t *ttyTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.open {
		return nil
	}

	fd, err := unix.Open(t.path, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.path, err)
	}

	if err := configureLine(fd, t.baud); err != nil {
		unix.Close(fd)
		return err
	}

	// Assert RTS and DTR so the board knows the host side is up.
	if err := setModemBit(fd, unix.TIOCM_RTS, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("assert RTS: %w", err)
	}
	if err := setModemBit(fd, unix.TIOCM_DTR, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("assert DTR: %w", err)
	}

	t.fd = fd
	t.open = true
	t.signals = make(chan Signal)
	t.done = make(chan struct{})
	go t.watchLine(fd, t.signals, t.done)

	return nil
}

// configureLine sets up the termios state: raw mode, 8N1, VMIN=0 with a
// short VTIME so reads drain whatever is immediately available instead of
// blocking forever.
func configureLine(fd int, baud int) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	termios.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 1 // 100ms

	rate, err := getBaudRate(baud)
	if err != nil {
		return err
	}
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | rate
	termios.Ispeed = rate
	termios.Ospeed = rate

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

func setModemBit(fd int, bit int, state bool) error {
	if state {
		return unix.IoctlSetInt(fd, unix.TIOCMBIS, bit)
	}
	return unix.IoctlSetInt(fd, unix.TIOCMBIC, bit)
}

// watchLine polls the descriptor and reports inbound conditions on the
// signal channel. Sends block until the consumer takes them; poll is
// level-triggered, so an extra DataReady after a drain only causes one
// cheap empty read.
func (t *ttyTransport) watchLine(fd int, signals chan Signal, done chan struct{}) {
	defer close(signals)

	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		select {
		case <-done:
			return
		default:
		}

		fds[0].Revents = 0
		n, err := unix.Poll(fds, 500)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			t.send(signals, done, Signal{Kind: SignalFault, Err: err})
			return
		}
		if n == 0 {
			continue
		}

		switch {
		case fds[0].Revents&(unix.POLLHUP|unix.POLLNVAL) != 0:
			t.send(signals, done, Signal{Kind: SignalEndOfStream})
			return
		case fds[0].Revents&unix.POLLERR != 0:
			t.send(signals, done, Signal{Kind: SignalFault, Err: fmt.Errorf("poll error on %s", t.path)})
			return
		case fds[0].Revents&unix.POLLIN != 0:
			if !t.send(signals, done, Signal{Kind: SignalDataReady}) {
				return
			}
		}
	}
}

func (t *ttyTransport) send(signals chan Signal, done chan struct{}, sig Signal) bool {
	select {
	case signals <- sig:
		return true
	case <-done:
		return false
	}
}

func (t *ttyTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return nil
	}

	close(t.done)
	err := unix.Close(t.fd)
	t.fd = -1
	t.open = false
	if err != nil {
		return fmt.Errorf("close %s: %w", t.path, err)
	}
	return nil
}

func (t *ttyTransport) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.open
}

func (t *ttyTransport) Read(p []byte) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.open {
		return 0, ErrPortNotOpen
	}
	return unix.Read(t.fd, p)
}

func (t *ttyTransport) Write(p []byte) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.open {
		return 0, ErrPortNotOpen
	}
	return unix.Write(t.fd, p)
}

func (t *ttyTransport) Signals() <-chan Signal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.signals
}
