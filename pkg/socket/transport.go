package socket

import "sync"

// Event is the value delivered to transport listeners. Message events carry
// the raw payload; error events carry the error. Connect and disconnect
// events carry neither.
type Event struct {
	Payload []byte
	Err     error
}

// Listener wraps a callback registered on a transport. The *Listener pointer
// is the callback's identity: the same listener can be detached from a dying
// transport and re-registered on its replacement without the caller being
// involved.
type Listener struct {
	fn func(Event)
}

// NewListener wraps fn so it can be registered on a transport.
func NewListener(fn func(Event)) *Listener {
	return &Listener{fn: fn}
}

// Transport is the bidirectional socket primitive the facade drives. A
// transport is created paused: it must not dispatch any event before Start
// is called, so that a full listener set can be installed first.
type Transport interface {
	// On registers l for the named native event. Multiple listeners per
	// event are retained in registration order.
	On(event string, l *Listener)

	// RemoveListener detaches the first listener registered for the named
	// event that matches l by identity. Unknown listeners are a no-op.
	RemoveListener(event string, l *Listener)

	// Send writes a payload to the peer. It returns ErrNotConnected when
	// the transport is no longer open.
	Send(payload []byte) error

	// Start begins event dispatch. Calling Start more than once is a
	// no-op.
	Start()

	// Close tears the transport down. A closed transport emits its close
	// event exactly once.
	Close() error
}

// Dialer constructs a transport connected to the given URI. The facade uses
// it both for the initial connection and for every replacement transport
// built during reconnection.
type Dialer func(uri string) (Transport, error)

// emitter is the listener table shared by the transport implementations in
// this package. Dispatch snapshots the listener slice, so a listener removed
// mid-dispatch still receives the event already in flight.
type emitter struct {
	mu        sync.RWMutex
	listeners map[string][]*Listener
}

func newEmitter() emitter {
	return emitter{listeners: make(map[string][]*Listener)}
}

// On registers a listener for a native event name.
func (e *emitter) On(event string, l *Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], l)
}

// RemoveListener detaches the first listener matching l by identity.
func (e *emitter) RemoveListener(event string, l *Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ls := e.listeners[event]
	for i, cur := range ls {
		if cur == l {
			e.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// emit delivers ev to every listener registered for the event, in
// registration order, on the calling goroutine.
func (e *emitter) emit(event string, ev Event) {
	e.mu.RLock()
	ls := make([]*Listener, len(e.listeners[event]))
	copy(ls, e.listeners[event])
	e.mu.RUnlock()

	for _, l := range ls {
		l.fn(ev)
	}
}

// listenerCount reports how many listeners are registered for an event.
func (e *emitter) listenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}
