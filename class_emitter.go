package flock

import (
	"sync"

	"github.com/arloliu/flock/internal/names"
)

// classListener is the callback shape for the class-level facade's On,
// which only ever hands back the Handle for the worker that came online
// or exited.
type classListener func(h *Handle)

// classEmitter backs the class-level "online"/"exit" subscriptions shared
// by Supervisor and Self. Unlike emitter (which is per-worker and keyed by
// arbitrary event name), a classEmitter only ever has two event names, so
// it is kept as two plain slices behind one mutex rather than a map.
type classEmitter struct {
	mu     sync.Mutex
	online []classListener
	exit   []classListener
}

// on registers fn for event, which must be "online" or "exit".
func (c *classEmitter) on(event string, fn classListener) error {
	switch event {
	case names.Online:
		c.mu.Lock()
		c.online = append(c.online, fn)
		c.mu.Unlock()
	case names.Exit:
		c.mu.Lock()
		c.exit = append(c.exit, fn)
		c.mu.Unlock()
	default:
		return ErrReservedEventName
	}

	return nil
}

func (c *classEmitter) fireOnline(h *Handle) {
	c.mu.Lock()
	fns := append([]classListener(nil), c.online...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(h)
	}
}

// count returns the number of registered class-level listeners, the
// baseline contribution to Supervisor.clusterListenerLimit.
func (c *classEmitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.online) + len(c.exit)
}

func (c *classEmitter) fireExit(h *Handle) {
	c.mu.Lock()
	fns := append([]classListener(nil), c.exit...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(h)
	}
}
