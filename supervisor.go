package flock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/flock/internal/controller"
	"github.com/arloliu/flock/internal/names"
	"github.com/arloliu/flock/internal/registry"
	"github.com/arloliu/flock/internal/router"
	"github.com/puzpuzpuz/xsync/v4"
)

// masterOps implements handleOps for a master-side Handle: emit/transmit/
// broadcast write directly to the target's child channel instead of
// wrapping the request in a control envelope.
type masterOps struct {
	sup *Supervisor
}

func (o *masterOps) emitSelf(id WorkerID, event string, data []any) error {
	return o.sup.sendToChild(id, event, data)
}

func (o *masterOps) transmit(to []WorkerID, event string, data []any) error {
	return o.sup.transmitTo(to, event, data)
}

func (o *masterOps) broadcast(event string, data []any) error {
	return o.sup.broadcastToAll(event, data)
}

func (o *masterOps) exitWorker(id WorkerID) error {
	entry, ok := o.sup.registry.Get(id)
	if !ok {
		return nil
	}

	return entry.Child.Kill()
}

func (o *masterOps) rebootWorker(id WorkerID) error {
	entry, ok := o.sup.registry.Get(id)
	if !ok {
		return nil
	}

	return entry.Child.Send(newRebootEnvelope())
}

func (o *masterOps) getWorkers(ctx context.Context) ([]WorkerInfo, error) {
	return o.sup.GetWorkers(ctx)
}

// respawnState tracks the per-worker backoff schedule across successive
// keep-alive respawns, and when it was last seen online so a long-lived
// healthy worker doesn't inherit a stale, maxed-out delay from an old
// crash loop (spec.md §9's RespawnResetWindow).
type respawnState struct {
	lastDelay time.Duration
	onlineAt  time.Time
}

// Supervisor is the master-side process: it owns the worker registry, the
// child channels, and the class-level "online"/"exit" façade (C7), and is
// the hub every worker-originated Transmit/Broadcast/GetWorkers request
// routes through (C5). There is deliberately one Supervisor per process,
// constructed explicitly rather than reached through a package-level
// singleton.
type Supervisor struct {
	launcher Launcher
	registry *registry.Registry[*Handle, ChildProcess]

	classEmitter *classEmitter
	opts         commonOptions

	respawns     *xsync.Map[WorkerID, *respawnState]
	receivers    atomic.Pointer[[]WorkerID]
	clusterLimit atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor creates a master-side Supervisor bound to launcher, which
// is responsible for the out-of-scope OS fork/exec of child processes
// (§1). launcher may be nil; Fork then fails with ErrLauncherRequired
// instead of panicking at construction time.
func NewSupervisor(launcher Launcher, opts ...Option) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Supervisor{
		launcher:     launcher,
		registry:     registry.New[*Handle, ChildProcess](),
		classEmitter: &classEmitter{},
		opts:         newCommonOptions(opts...),
		respawns:     xsync.NewMap[WorkerID, *respawnState](),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Role always reports RoleMaster for a Supervisor.
func (s *Supervisor) Role() Role {
	return RoleMaster
}

// Fork starts a new worker under id, keyed for lookup and respawn. id must
// be non-empty and not already registered.
//
// Parameters:
//   - id: Stable worker ID this child will claim
//   - keepAlive: Whether an abnormal exit should respawn this ID
//     automatically rather than being treated as terminal
//
// Returns:
//   - *Handle: The façade for this worker, usable immediately (events sent
//     before the child reports online are simply delivered once it does)
//   - error: ErrLauncherRequired, ErrInvalidWorkerID, ErrDuplicateWorkerID,
//     or a wrapped launcher error
func (s *Supervisor) Fork(id WorkerID, keepAlive bool) (*Handle, error) {
	if s.launcher == nil {
		return nil, ErrLauncherRequired
	}
	if id == "" {
		return nil, ErrInvalidWorkerID
	}
	if _, ok := s.registry.Get(id); ok {
		return nil, ErrDuplicateWorkerID
	}

	handle := newHandle(id, keepAlive, &masterOps{sup: s})
	handle.onLimitChange = s.recomputeClusterLimit

	child, err := s.launcher.Fork(id, s.childEvents(id))
	if err != nil {
		return nil, fmt.Errorf("flock: fork worker %q: %w", id, err)
	}

	s.registry.Insert(id, handle, child, keepAlive, child.PID())
	s.opts.metrics.RecordFork(id, false)
	s.opts.logger.Info("worker forked", "id", id, "keepAlive", keepAlive, "pid", child.PID())
	s.recomputeClusterLimit()

	return handle, nil
}

func (s *Supervisor) childEvents(id WorkerID) ChildProcessEvents {
	return ChildProcessEvents{
		Online:  func() { s.onChildOnline(id) },
		Message: func(v any) { s.onChildMessage(id, v) },
		Exit:    func(code int, hasCode bool, signal string) { s.onChildExit(id, code, hasCode, signal) },
		Error:   func(err error) { s.onChildError(id, err) },
	}
}

func (s *Supervisor) onChildOnline(id WorkerID) {
	entry, ok := s.registry.Get(id)
	if !ok {
		return
	}

	s.registry.MarkOnline(id)
	entry.Handle.setState(StateOnline)
	s.opts.metrics.RecordStateTransition(id, StateConnecting, StateOnline)

	reborn := false
	if rec, ok := s.registry.ByPID(entry.Child.PID()); ok {
		reborn = rec.Reborn
	}

	st, _ := s.respawns.LoadOrStore(id, &respawnState{})
	st.onlineAt = time.Now()

	if err := entry.Child.Send(newOnlineEnvelope(id, entry.KeepAlive)); err != nil {
		s.opts.logger.Error("failed to send online bootstrap", "id", id, "error", err)
	}

	if !reborn {
		s.classEmitter.fireOnline(entry.Handle)
		if err := s.opts.hooks.OnWorkerOnline(s.ctx, id); err != nil {
			s.opts.logger.Warn("OnWorkerOnline hook failed", "id", id, "error", err)
		}
	}

	s.opts.metrics.SetOnlineWorkers(len(s.registry.Online()))
}

func (s *Supervisor) onChildMessage(id WorkerID, v any) {
	env, ok := v.(Envelope)
	if !ok {
		s.opts.logger.Warn("dropping non-envelope child message", "id", id)
		return
	}

	s.handleFromChild(id, env)
}

func (s *Supervisor) onChildExit(id WorkerID, code int, hasCode bool, signal string) {
	entry, ok := s.registry.Get(id)
	if !ok {
		return
	}

	pid := entry.Child.PID()
	s.opts.metrics.RecordExit(id, code, hasCode, signal)

	decision := controller.ClassifyExit(entry.KeepAlive, code, hasCode, signal)
	if decision == controller.DecisionRespawn {
		s.scheduleRespawn(id, entry, pid)
		return
	}

	prevState := entry.State()
	entry.Handle.setState(StateClosed)
	s.registry.Remove(id, pid)
	s.opts.metrics.RecordStateTransition(id, prevState, StateClosed)
	s.opts.metrics.SetOnlineWorkers(len(s.registry.Online()))

	entry.Handle.emitter.emit(names.Exit, id, code, hasCode, signal)
	s.classEmitter.fireExit(entry.Handle)

	if err := s.opts.hooks.OnWorkerExit(s.ctx, id, code, hasCode, signal); err != nil {
		s.opts.logger.Warn("OnWorkerExit hook failed", "id", id, "error", err)
	}
}

func (s *Supervisor) onChildError(id WorkerID, err error) {
	s.opts.metrics.RecordChannelError(id)

	if entry, ok := s.registry.Get(id); ok {
		entry.Handle.emitter.emit(names.Error, id, err)
	}

	if hookErr := s.opts.hooks.OnError(s.ctx, err); hookErr != nil {
		s.opts.logger.Warn("OnError hook failed", "error", hookErr)
	}
}

// scheduleRespawn re-forks id after a full-jitter backoff delay, moving
// the preserved Handle (and therefore its listener map, untouched) onto
// the new child's PID record.
func (s *Supervisor) scheduleRespawn(id WorkerID, entry *registry.Entry[*Handle, ChildProcess], oldPID int) {
	st, _ := s.respawns.LoadOrStore(id, &respawnState{})

	backoff := controller.NewBackoff(s.opts.config.RespawnBackoffMin, s.opts.config.RespawnBackoffMax)
	prevDelay := st.lastDelay
	if time.Since(st.onlineAt) > s.opts.config.RespawnResetWindow {
		prevDelay = 0
	}
	delay := backoff.Next(prevDelay)
	st.lastDelay = delay

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}

		child, err := s.launcher.Fork(id, s.childEvents(id))
		if err != nil {
			s.opts.logger.Error("respawn failed", "id", id, "error", err)
			if hookErr := s.opts.hooks.OnError(s.ctx, err); hookErr != nil {
				s.opts.logger.Warn("OnError hook failed", "error", hookErr)
			}

			return
		}

		if _, ok := s.registry.MoveToPID(id, child, oldPID, child.PID()); ok {
			entry.Handle.setState(StateConnecting)
			s.opts.metrics.RecordFork(id, true)
			s.opts.logger.Info("worker respawned", "id", id, "pid", child.PID())
		}
	}()
}

// On registers fn for the class-level "online" or "exit" lifecycle event;
// any other name returns ErrReservedEventName. A respawned worker does not
// fire "online" again (it is not a new birth) and keep-alive respawns do
// not fire "exit" at all.
func (s *Supervisor) On(event string, fn func(h *Handle)) error {
	if err := s.classEmitter.on(event, fn); err != nil {
		return err
	}

	s.recomputeClusterLimit()

	return nil
}

// ClusterListenerLimit returns the last computed cluster-wide listener
// ceiling: baseline + Σ handle.limits, per spec.md §5's max-listeners
// coordination. It is recomputed whenever a class-level "online"/"exit"
// listener is registered or a Handle's SetMaxListeners changes.
func (s *Supervisor) ClusterListenerLimit() int {
	return int(s.clusterLimit.Load())
}

func (s *Supervisor) recomputeClusterLimit() {
	s.clusterLimit.Store(int64(s.clusterListenerLimit()))
}

// clusterListenerLimit sums every registered worker's per-handle listener
// ceiling on top of the baseline contributed by the class-level
// "online"/"exit" subscriptions.
func (s *Supervisor) clusterListenerLimit() int {
	total := s.classEmitter.count()
	for _, entry := range s.registry.All() {
		total += entry.Handle.emitter.getMaxListeners()
	}

	return total
}

// Get looks up the Handle for id, if registered (in any state).
func (s *Supervisor) Get(id WorkerID) (*Handle, bool) {
	entry, ok := s.registry.Get(id)
	if !ok {
		return nil, false
	}

	return entry.Handle, true
}

// Workers returns a snapshot of every handle currently online.
func (s *Supervisor) Workers() []*Handle {
	entries := s.registry.Online()
	out := make([]*Handle, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Handle)
	}

	return out
}

// To stores a one-shot target set for the next class-level Emit, mirroring
// Handle.To at the class level.
func (s *Supervisor) To(targets ...any) *Supervisor {
	s.receivers.Store(flattenTargets(targets))

	return s
}

func (s *Supervisor) consumeReceivers() []WorkerID {
	p := s.receivers.Swap(nil)
	if p == nil {
		return nil
	}

	return *p
}

// Emit delivers event to the worker IDs set by a prior To(...) call.
// Returns (false, nil) if event is reserved or if To(...) was never
// called (there is no meaningful "self" target at class level).
func (s *Supervisor) Emit(event string, data ...any) (bool, error) {
	to := s.consumeReceivers()
	if names.IsLifecycle(event) || len(to) == 0 {
		return false, nil
	}

	if err := s.transmitTo(to, event, data); err != nil {
		return false, err
	}

	return true, nil
}

// Broadcast fans event out to every online worker.
func (s *Supervisor) Broadcast(event string, data ...any) (bool, error) {
	s.receivers.Store(nil)
	if names.IsLifecycle(event) {
		return false, nil
	}

	if err := s.broadcastToAll(event, data); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Supervisor) sendToChild(id WorkerID, event string, data []any) error {
	entry, ok := s.registry.Get(id)
	if !ok {
		s.opts.metrics.RecordEmit(event, false)

		return nil
	}

	s.opts.metrics.RecordEmit(event, true)

	return entry.Child.Send(newUserEnvelope("", event, data))
}

func (s *Supervisor) transmitTo(to []WorkerID, event string, data []any) error {
	var firstErr error
	for _, id := range to {
		if err := s.sendToChild(id, event, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (s *Supervisor) broadcastToAll(event string, data []any) error {
	entries := s.registry.Online()

	var firstErr error
	for _, e := range entries {
		if err := e.Child.Send(newUserEnvelope("", event, data)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.opts.metrics.RecordBroadcast(event, len(entries))

	return firstErr
}

// GetWorkers returns the current online worker roster. Unlike the worker
// side, this never leaves the process: the registry is the single source
// of truth, so there is no control-plane round trip to wait on.
func (s *Supervisor) GetWorkers(ctx context.Context) ([]WorkerInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := s.registry.Online()
	out := make([]WorkerInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, WorkerInfo{ID: e.ID, KeepAlive: e.KeepAlive, State: e.State()})
	}

	return out, nil
}

// Shutdown kills every registered child and waits for in-flight respawn
// goroutines to exit, bounded by ctx and by Config.ShutdownTimeout.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.cancel()

	ctx, cancel := context.WithTimeout(ctx, s.opts.config.ShutdownTimeout)
	defer cancel()

	for _, e := range s.registry.All() {
		if e.Child != nil {
			if err := e.Child.Kill(); err != nil {
				s.opts.logger.Warn("failed to kill worker during shutdown", "id", e.ID, "error", err)
			}
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleFromChild is the master-side inbound demultiplex (C5): every
// envelope a child sends up its channel lands here, tagged by kind rather
// than by sentinel event-name strings.
func (s *Supervisor) handleFromChild(fromID WorkerID, env Envelope) {
	switch router.ClassifyFromChild(env) {
	case router.ActionTransmit:
		if err := s.transmitTo(env.To, env.Event, env.Data); err != nil {
			s.opts.logger.Warn("transmit relay failed", "from", fromID, "error", err)
		}
	case router.ActionBroadcast:
		if err := s.broadcastToAll(env.Event, env.Data); err != nil {
			s.opts.logger.Warn("broadcast relay failed", "from", fromID, "error", err)
		}
	case router.ActionGetWorkersReq:
		s.respondGetWorkers(fromID, env.RequestID)
	case router.ActionUserEvent:
		s.dispatchUserEvent(fromID, env.Event, env.Data)
	case router.ActionIgnore, router.ActionOnline, router.ActionGetWorkersResp, router.ActionReboot:
		// Not meaningful on the master's inbound side.
	}
}

func (s *Supervisor) dispatchUserEvent(id WorkerID, event string, data []any) {
	entry, ok := s.registry.Get(id)
	if !ok {
		return
	}

	entry.Handle.emitter.emit(event, id, data...)
}

func (s *Supervisor) respondGetWorkers(fromID WorkerID, requestID string) {
	start := time.Now()

	entry, ok := s.registry.Get(fromID)
	if !ok {
		return
	}

	workers, _ := s.GetWorkers(s.ctx)
	if err := entry.Child.Send(newGetWorkersRespEnvelope(requestID, workers)); err != nil {
		s.opts.logger.Warn("get-workers response failed", "to", fromID, "error", err)
	}
	s.opts.metrics.ObserveGetWorkersLatency(time.Since(start).Seconds())
}
