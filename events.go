package arduino

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventKind identifies one of the five adapter event streams.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventDataReceived
	EventDataSent
	EventErrorReceived
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventDataReceived:
		return "data-received"
	case EventDataSent:
		return "data-sent"
	case EventErrorReceived:
		return "error-received"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers. Data carries the payload for
// DataReceived and DataSent; Err carries the fault for ErrorReceived.
type Event struct {
	Kind EventKind
	Data string
	Err  error
	Time time.Time
}

// Handler receives events. Delivery is synchronous on whichever goroutine
// raised the event, so handlers must not call back into blocking adapter
// operations (reads in particular).
type Handler func(Event)

// Subscription identifies one registered handler so it can be removed.
type Subscription struct {
	kind EventKind
	id   uint64
}

type subscriber struct {
	id uint64
	fn Handler
}

// dispatcher fans events out to subscribers in registration order. Dispatch
// walks a snapshot of the registry, so handlers may subscribe or
// unsubscribe without disturbing an in-flight delivery.
type dispatcher struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[EventKind][]subscriber
	log    zerolog.Logger
}

func newDispatcher(log zerolog.Logger) *dispatcher {
	return &dispatcher{
		subs: make(map[EventKind][]subscriber),
		log:  log,
	}
}

func (d *dispatcher) subscribe(kind EventKind, fn Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	d.subs[kind] = append(d.subs[kind], subscriber{id: d.nextID, fn: fn})
	return Subscription{kind: kind, id: d.nextID}
}

func (d *dispatcher) unsubscribe(sub Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.subs[sub.kind]
	for i, s := range subs {
		if s.id == sub.id {
			d.subs[sub.kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (d *dispatcher) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	d.mu.Lock()
	subs := make([]subscriber, len(d.subs[ev.Kind]))
	copy(subs, d.subs[ev.Kind])
	d.mu.Unlock()

	for _, s := range subs {
		if ev.Kind == EventErrorReceived {
			// A fault handler that itself fails must not be silenced;
			// let the panic reach whoever triggered the dispatch.
			s.fn(ev)
			continue
		}
		d.deliver(s, ev)
	}
}

func (d *dispatcher) deliver(s subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("event", ev.Kind.String()).
				Uint64("subscriber", s.id).
				Any("panic", r).
				Msg("event handler panicked")
		}
	}()
	s.fn(ev)
}
