package flock

import (
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// defaultMaxListeners is the baseline per-event listener ceiling applied to
// every emitter unless overridden by SetMaxListeners. It is bookkeeping
// only, the same number the Node EventEmitter convention this library's
// wire model descends from uses: nothing compares a listener count against
// it, registration never fails, and Emit always delivers to every listener.
const defaultMaxListeners = 10

// listenerFunc is the shape every registered callback is normalized to.
// On the master, from is the ID of the worker whose handle the event was
// dispatched on; on a worker it is always the zero value, since the master
// relays events without their origin.
type listenerFunc func(from WorkerID, data ...any)

type listenerEntry struct {
	id   uint64
	once bool
	fn   listenerFunc
}

// emitter is the minimal ordered event-name -> listener-list primitive
// backing every Handle. It preserves registration order per event and is
// safe for concurrent On/Once/emit/Count calls, since the router goroutine
// and user goroutines both touch a handle's emitter.
type emitter struct {
	byEvent      *xsync.Map[string, *listenerGroup]
	nextID       atomic.Uint64
	maxListeners atomic.Int32
}

type listenerGroup struct {
	mu        sync.Mutex
	listeners []listenerEntry
}

func newEmitter() *emitter {
	e := &emitter{byEvent: xsync.NewMap[string, *listenerGroup]()}
	e.maxListeners.Store(defaultMaxListeners)

	return e
}

// on registers fn under event, returning the listener's sequence ID.
func (e *emitter) on(event string, once bool, fn listenerFunc) uint64 {
	id := e.nextID.Add(1)
	group, _ := e.byEvent.LoadOrStore(event, &listenerGroup{})

	group.mu.Lock()
	group.listeners = append(group.listeners, listenerEntry{id: id, once: once, fn: fn})
	group.mu.Unlock()

	return id
}

// emit invokes every listener registered for event, in registration order,
// removing one-shot listeners after they fire. Safe to call with zero
// listeners registered (a no-op).
func (e *emitter) emit(event string, from WorkerID, data ...any) {
	group, ok := e.byEvent.Load(event)
	if !ok {
		return
	}

	group.mu.Lock()
	fired := append([]listenerEntry(nil), group.listeners...)
	remaining := group.listeners[:0]
	for _, l := range group.listeners {
		if !l.once {
			remaining = append(remaining, l)
		}
	}
	group.listeners = remaining
	group.mu.Unlock()

	for _, l := range fired {
		l.fn(from, data...)
	}
}

// count returns the number of listeners currently registered for event.
func (e *emitter) count(event string) int {
	group, ok := e.byEvent.Load(event)
	if !ok {
		return 0
	}

	group.mu.Lock()
	defer group.mu.Unlock()

	return len(group.listeners)
}

// setMaxListeners adjusts the recorded per-event listener ceiling. It does
// not reject additional registrations and nothing warns when it is passed.
func (e *emitter) setMaxListeners(n int) {
	e.maxListeners.Store(int32(n))
}

func (e *emitter) getMaxListeners() int {
	return int(e.maxListeners.Load())
}
