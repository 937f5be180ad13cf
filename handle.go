package flock

import (
	"context"
	"sync/atomic"

	"github.com/arloliu/flock/internal/names"
)

// handleOps abstracts the role-dependent delivery mechanics a Handle needs:
// a master-side Handle writes directly to a child's channel, a worker-side
// Handle wraps the same request in an envelope and hands it to the master.
// This is the "dynamic dispatch by role" strategy the Design Notes call
// for, chosen once at construction instead of branching on role in every
// method body.
type handleOps interface {
	emitSelf(id WorkerID, event string, data []any) error
	transmit(to []WorkerID, event string, data []any) error
	broadcast(event string, data []any) error
	exitWorker(id WorkerID) error
	rebootWorker(id WorkerID) error
	getWorkers(ctx context.Context) ([]WorkerInfo, error)
}

// Handle is the per-worker façade: the unit of event subscription and
// emission shared by the master and worker sides. A master holds one
// Handle per registered WorkerID; a worker holds exactly one, for itself.
//
// Handle embeds the minimal emitter primitive directly rather than an
// interface, since there is exactly one concrete implementation and no
// caller ever needs to substitute it.
type Handle struct {
	id        WorkerID
	keepAlive bool
	emitter   *emitter
	ops       handleOps

	state     atomic.Int32
	receivers atomic.Pointer[[]WorkerID]

	onLimitChange func()
}

func newHandle(id WorkerID, keepAlive bool, ops handleOps) *Handle {
	return &Handle{id: id, keepAlive: keepAlive, emitter: newEmitter(), ops: ops}
}

// ID returns the worker's stable, caller-assigned identifier.
func (h *Handle) ID() WorkerID {
	return h.id
}

// KeepAlive reports whether this worker respawns under the same ID on an
// abnormal exit.
func (h *Handle) KeepAlive() bool {
	return h.keepAlive
}

// State returns the worker's current lifecycle state.
func (h *Handle) State() WorkerState {
	return WorkerState(h.state.Load())
}

func (h *Handle) setState(s WorkerState) {
	h.state.Store(int32(s))
}

// On registers fn for event, in addition to any existing listeners. fn is
// called with a worker ID and the positional arguments the emitter carried.
// On a master-side Handle the ID is this handle's worker; on a worker-side
// Handle it is always the zero value, including for events a peer sent.
//
// On accepts any event name, including the lifecycle names: the
// lifecycle controller fires "error"/"exit" directly on a handle's
// emitter, bypassing Emit's reserved-name guard, so a listener registered
// here still observes them even though Emit itself refuses to send them.
func (h *Handle) On(event string, fn func(from WorkerID, data ...any)) {
	h.emitter.on(event, false, fn)
}

// Once registers fn to fire at most once for event, then removes itself.
func (h *Handle) Once(event string, fn func(from WorkerID, data ...any)) {
	h.emitter.on(event, true, fn)
}

// To stores a one-shot set of target worker IDs, consumed by the next
// Emit call (success or reserved-name rejection both clear it). Accepts
// WorkerID, string, *Handle, or a single slice of any of those, flattened.
func (h *Handle) To(targets ...any) *Handle {
	h.receivers.Store(flattenTargets(targets))

	return h
}

func (h *Handle) consumeReceivers() []WorkerID {
	p := h.receivers.Swap(nil)
	if p == nil {
		return nil
	}

	return *p
}

// Emit sends event to this handle's prior To(...) target set, or — absent
// a To(...) call — to this handle's own worker ID (the "self" addressing
// mode: master delivers to the child directly, worker round-trips through
// the master to reach its own master-side listeners).
//
// Returns (false, nil) when event is one of the reserved lifecycle names
// (rejected, no side effect); (false, err) when delivery failed at the
// channel; (true, nil) once the send has been handed to the channel.
// Delivery itself is never acknowledged, matching §7 of the design: this
// is a best-effort enqueue, not a confirmed round trip.
func (h *Handle) Emit(event string, data ...any) (bool, error) {
	to := h.consumeReceivers()
	if names.IsLifecycle(event) {
		return false, nil
	}

	var err error
	if len(to) == 0 {
		err = h.ops.emitSelf(h.id, event, data)
	} else {
		err = h.ops.transmit(to, event, data)
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// Broadcast sends event to every online worker, including the sender when
// called from a worker — the fan-out always round-trips through the
// master, which re-dispatches to every child channel, the originating
// one included.
func (h *Handle) Broadcast(event string, data ...any) (bool, error) {
	h.receivers.Store(nil)
	if names.IsLifecycle(event) {
		return false, nil
	}

	if err := h.ops.broadcast(event, data); err != nil {
		return false, err
	}

	return true, nil
}

// Exit terminates the worker: a master-side Handle kills the child
// process; a worker-side Handle terminates the current process.
func (h *Handle) Exit() error {
	return h.ops.exitWorker(h.id)
}

// Reboot terminates the worker via the reboot sentinel exit code, which
// the lifecycle controller always respawns regardless of keep-alive and
// never surfaces as a user-visible "exit" event.
func (h *Handle) Reboot() error {
	return h.ops.rebootWorker(h.id)
}

// GetWorkers returns the current online worker roster. On the master this
// reads the registry directly; on a worker it is a control-plane round
// trip bounded by ctx.
func (h *Handle) GetWorkers(ctx context.Context) ([]WorkerInfo, error) {
	return h.ops.getWorkers(ctx)
}

// SetMaxListeners adjusts this handle's recorded per-event listener
// ceiling; it never rejects a registration and nothing warns when it is
// passed. A master-constructed Handle also triggers a cluster-wide
// listener limit recompute (onLimitChange).
func (h *Handle) SetMaxListeners(n int) {
	h.emitter.setMaxListeners(n)
	if h.onLimitChange != nil {
		h.onLimitChange()
	}
}

// flattenTargets normalizes a To(...) argument list into a WorkerID slice,
// flattening a single slice argument so both To("a", "b") and
// To([]string{"a","b"}) work.
func flattenTargets(targets []any) *[]WorkerID {
	ids := make([]WorkerID, 0, len(targets))

	var add func(v any)
	add = func(v any) {
		switch t := v.(type) {
		case WorkerID:
			ids = append(ids, t)
		case string:
			ids = append(ids, WorkerID(t))
		case *Handle:
			ids = append(ids, t.id)
		case []WorkerID:
			ids = append(ids, t...)
		case []string:
			for _, s := range t {
				ids = append(ids, WorkerID(s))
			}
		case []*Handle:
			for _, h := range t {
				ids = append(ids, h.id)
			}
		case []any:
			for _, x := range t {
				add(x)
			}
		}
	}

	for _, t := range targets {
		add(t)
	}

	return &ids
}
