package arduino

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangeWatcher signals that the set of attached devices may have changed.
// The adapter only needs "something changed, re-scan" semantics; the ticks
// carry no payload.
type ChangeWatcher interface {
	Events() <-chan struct{}
	Close() error
}

// Patterns for device names that can belong to an Arduino-class board.
// Classic boards enumerate as USB CDC/ACM devices, clones with separate
// USB-serial bridges as ttyUSB.
var serialDevicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
	regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
}

// devWatcher is the default ChangeWatcher. It watches /dev for serial
// device nodes appearing or disappearing.
type devWatcher struct {
	fs        *fsnotify.Watcher
	events    chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

func newDevWatcher() (*devWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create device watcher: %w", err)
	}
	if err := fs.Add("/dev"); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch /dev: %w", err)
	}

	w := &devWatcher{
		fs:     fs,
		events: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *devWatcher) run() {
	defer close(w.events)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if !isSerialDeviceName(filepath.Base(ev.Name)) {
				continue
			}
			// Coalesce bursts; one pending tick is enough to trigger
			// a re-scan.
			select {
			case w.events <- struct{}{}:
			default:
			}
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

func isSerialDeviceName(name string) bool {
	for _, pattern := range serialDevicePatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

func (w *devWatcher) Events() <-chan struct{} {
	return w.events
}

func (w *devWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}
