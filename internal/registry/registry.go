// Package registry implements the worker registry: the master-side index
// from a stable worker ID to its handle and child process, plus a second
// index from OS PID back to the logical worker, used to resolve inbound
// lifecycle signals and to suppress duplicate online/exit notifications
// across a respawn.
//
// Registry is generic over the concrete handle and child-process types so
// it can be shared between the master side (which tracks a live
// ChildProcess per worker) and the worker side (which tracks only its own
// handle, with a zero-value child), without importing the root package
// and creating an import cycle.
package registry

import (
	"sync/atomic"

	"github.com/arloliu/flock/types"
	"github.com/puzpuzpuz/xsync/v4"
)

// Entry is a single worker's registry record.
type Entry[H any, C any] struct {
	ID        types.WorkerID
	Handle    H
	Child     C
	KeepAlive bool

	state atomic.Int32
}

// State returns the worker's current lifecycle state.
func (e *Entry[H, C]) State() types.WorkerState {
	return types.WorkerState(e.state.Load())
}

func (e *Entry[H, C]) setState(s types.WorkerState) {
	e.state.Store(int32(s))
}

// Registry is a concurrent-safe index of workers, keyed by ID and by OS
// PID. All mutation goes through its methods so the invariants around
// state transitions and PID bookkeeping hold regardless of which
// goroutine (router, controller, or a Handle method called from user
// code) is calling in.
type Registry[H any, C any] struct {
	byID  *xsync.Map[types.WorkerID, *Entry[H, C]]
	byPID *xsync.Map[int, *types.PidRecord]
}

// New creates an empty Registry.
func New[H any, C any]() *Registry[H, C] {
	return &Registry[H, C]{
		byID:  xsync.NewMap[types.WorkerID, *Entry[H, C]](),
		byPID: xsync.NewMap[int, *types.PidRecord](),
	}
}

// Insert records a freshly forked worker in the Connecting state.
//
// Parameters:
//   - id: Stable worker ID
//   - handle: The handle object to associate with id
//   - child: The child process handle (zero value on the worker side)
//   - keepAlive: Whether this worker should be respawned on abnormal exit
//   - pid: The child's OS process ID
//
// Returns:
//   - *Entry[H, C]: The newly inserted entry
func (r *Registry[H, C]) Insert(id types.WorkerID, handle H, child C, keepAlive bool, pid int) *Entry[H, C] {
	entry := &Entry[H, C]{ID: id, Handle: handle, Child: child, KeepAlive: keepAlive}
	entry.setState(types.StateConnecting)
	r.byID.Store(id, entry)
	r.byPID.Store(pid, &types.PidRecord{ID: id, KeepAlive: keepAlive, Reborn: false})

	return entry
}

// MarkOnline transitions id to Online. No-op if id is not registered.
func (r *Registry[H, C]) MarkOnline(id types.WorkerID) {
	if e, ok := r.byID.Load(id); ok {
		e.setState(types.StateOnline)
	}
}

// Remove deletes id from both indexes. Called on a terminal (non-respawning)
// exit.
func (r *Registry[H, C]) Remove(id types.WorkerID, pid int) {
	r.byID.Delete(id)
	r.byPID.Delete(pid)
}

// MoveToPID re-points an existing entry at a freshly forked child after a
// respawn, preserving the Entry itself (and therefore its Handle and the
// handle's listener map) — this is what satisfies the "listener identity
// survives a respawn" invariant.
//
// Parameters:
//   - id: Worker ID being respawned
//   - newChild: The freshly forked child process
//   - oldPID: The previous child's OS PID, removed from the PID index
//   - newPID: The new child's OS PID
//
// Returns:
//   - *Entry[H, C]: The preserved entry, now pointing at newChild
//   - bool: False if id was not already registered
func (r *Registry[H, C]) MoveToPID(id types.WorkerID, newChild C, oldPID, newPID int) (*Entry[H, C], bool) {
	e, ok := r.byID.Load(id)
	if !ok {
		return nil, false
	}

	e.Child = newChild
	e.setState(types.StateConnecting)
	r.byPID.Delete(oldPID)
	r.byPID.Store(newPID, &types.PidRecord{ID: id, KeepAlive: e.KeepAlive, Reborn: true})

	return e, true
}

// Get looks up an entry by worker ID.
func (r *Registry[H, C]) Get(id types.WorkerID) (*Entry[H, C], bool) {
	return r.byID.Load(id)
}

// ByPID looks up the PID record for an OS process ID, used to resolve an
// inbound lifecycle callback (which only knows the PID) back to a worker
// ID.
func (r *Registry[H, C]) ByPID(pid int) (*types.PidRecord, bool) {
	return r.byPID.Load(pid)
}

// Online returns a snapshot of every entry currently in the Online state.
// The snapshot is taken without holding a lock across the registry while
// invoking caller code.
func (r *Registry[H, C]) Online() []*Entry[H, C] {
	var out []*Entry[H, C]
	r.byID.Range(func(_ types.WorkerID, e *Entry[H, C]) bool {
		if e.State() == types.StateOnline {
			out = append(out, e)
		}

		return true
	})

	return out
}

// All returns a snapshot of every registered entry, regardless of state.
func (r *Registry[H, C]) All() []*Entry[H, C] {
	var out []*Entry[H, C]
	r.byID.Range(func(_ types.WorkerID, e *Entry[H, C]) bool {
		out = append(out, e)

		return true
	})

	return out
}

// Len returns the number of registered workers.
func (r *Registry[H, C]) Len() int {
	n := 0
	r.byID.Range(func(_ types.WorkerID, _ *Entry[H, C]) bool {
		n++

		return true
	})

	return n
}
