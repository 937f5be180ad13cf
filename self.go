package flock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/arloliu/flock/internal/controller"
	"github.com/arloliu/flock/internal/names"
	"github.com/arloliu/flock/internal/router"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
)

// Exiter terminates the current process. The default, osExiter, calls
// os.Exit; tests inject a fake that records the call and unwinds the
// worker goroutine instead of killing the test binary.
type Exiter interface {
	Exit(code int)
}

type osExiter struct{}

func (osExiter) Exit(code int) { os.Exit(code) } //nolint:revive // intentional process exit

// workerOps implements handleOps for a worker-side Handle: every
// operation wraps its request in an envelope and hands it to the single
// MasterChannel, since a worker has no direct channel to its peers.
type workerOps struct {
	self *Self
}

func (o *workerOps) emitSelf(id WorkerID, event string, data []any) error {
	if id == o.self.id {
		return o.self.channel.Send(newUserEnvelope(o.self.id, event, data))
	}

	return o.transmit([]WorkerID{id}, event, data)
}

func (o *workerOps) transmit(to []WorkerID, event string, data []any) error {
	return o.self.channel.Send(newTransmitEnvelope(o.self.id, to, event, data))
}

func (o *workerOps) broadcast(event string, data []any) error {
	return o.self.channel.Send(newBroadcastEnvelope(o.self.id, event, data))
}

func (o *workerOps) exitWorker(WorkerID) error {
	o.self.opts.exiter.Exit(0)

	return nil
}

func (o *workerOps) rebootWorker(WorkerID) error {
	o.self.opts.exiter.Exit(controller.RebootExitCode)

	return nil
}

func (o *workerOps) getWorkers(ctx context.Context) ([]WorkerInfo, error) {
	return o.self.GetWorkers(ctx)
}

// Self is the worker-side process: it owns exactly one Handle (for its
// own ID), the class-level "online"/"exit" façade (C7), and the
// worker-side inbound demultiplex (C5) the host program feeds every
// message the real transport delivers into via HandleInbound.
//
// Unlike the master, a worker's own ID is known up front — it is the out
// -of-scope host program's job to tell a freshly forked child which ID it
// claims (e.g. an argv or environment variable set by the Launcher), the
// same way deciding master-vs-worker role (C1) is the host's job.
type Self struct {
	id      WorkerID
	channel MasterChannel
	opts    commonOptions

	handle       *Handle
	classEmitter *classEmitter

	onlineOnce  sync.Once
	isOnline    atomic.Bool
	onlineReady chan struct{}

	pending *xsync.Map[string, chan []WorkerInfo]
}

// NewSelf creates a worker-side Self for id, communicating with the
// master over channel.
func NewSelf(id WorkerID, channel MasterChannel, opts ...Option) *Self {
	w := &Self{
		id:           id,
		channel:      channel,
		opts:         newCommonOptions(opts...),
		classEmitter: &classEmitter{},
		onlineReady:  make(chan struct{}),
		pending:      xsync.NewMap[string, chan []WorkerInfo](),
	}
	w.handle = newHandle(id, false, &workerOps{self: w})

	return w
}

// Role always reports RoleWorker for a Self.
func (w *Self) Role() Role {
	return RoleWorker
}

// HandleInbound feeds a single envelope the host program received from
// the master into the worker-side demultiplex (C5). Call it once per
// message, in delivery order.
func (w *Self) HandleInbound(env Envelope) {
	switch router.ClassifyFromMaster(env) {
	case router.ActionUserEvent:
		w.handle.emitter.emit(env.Event, "", env.Data...)
	case router.ActionOnline:
		w.onOnline(env)
	case router.ActionGetWorkersResp:
		w.resolvePending(env.RequestID, env.Workers)
	case router.ActionReboot:
		w.opts.exiter.Exit(controller.RebootExitCode)
	case router.ActionIgnore, router.ActionTransmit, router.ActionBroadcast, router.ActionGetWorkersReq:
		// Not meaningful on the worker's inbound side.
	}
}

func (w *Self) onOnline(env Envelope) {
	w.onlineOnce.Do(func() {
		w.handle.keepAlive = env.KeepAlive
		w.handle.setState(StateOnline)
		w.isOnline.Store(true)
		close(w.onlineReady)
		w.opts.metrics.SetOnlineWorkers(1)

		w.classEmitter.fireOnline(w.handle)
		if err := w.opts.hooks.OnWorkerOnline(context.Background(), w.id); err != nil {
			w.opts.logger.Warn("OnWorkerOnline hook failed", "id", w.id, "error", err)
		}
	})
}

// On registers fn for the class-level "online" or "exit" lifecycle event.
// "online" fires immediately (on a new goroutine) if the bootstrap
// envelope has already arrived by the time On is called. A master-side
// Supervisor.On("online", …), by contrast, only observes workers that come
// online after it is registered.
func (w *Self) On(event string, fn func(h *Handle)) error {
	if event == names.Online && w.isOnline.Load() {
		go fn(w.handle)

		return nil
	}

	return w.classEmitter.on(event, fn)
}

// GetWorker resolves to this worker's own Handle once the master's
// bootstrap "online" envelope has arrived. This replaces the source's
// undefined this.getChannel(resolve) call (spec §9 Open Question a,
// treated as a bug): GetWorker defers on the same signal GetWorkers does.
func (w *Self) GetWorker(ctx context.Context) (*Handle, error) {
	select {
	case <-w.onlineReady:
		return w.handle, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetWorkers issues a control-plane round trip to the master and returns
// the current online worker roster, deferring until this worker has
// itself come online.
func (w *Self) GetWorkers(ctx context.Context) ([]WorkerInfo, error) {
	select {
	case <-w.onlineReady:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithTimeout(ctx, w.opts.config.GetWorkersTimeout)
	defer cancel()

	reqID := uuid.NewString()
	respCh := make(chan []WorkerInfo, 1)
	w.pending.Store(reqID, respCh)
	defer w.pending.Delete(reqID)

	if err := w.channel.Send(newGetWorkersReqEnvelope(w.id, reqID)); err != nil {
		return nil, err
	}

	select {
	case workers := <-respCh:
		return workers, nil
	case <-ctx.Done():
		return nil, ErrGetWorkersTimeout
	}
}

func (w *Self) resolvePending(requestID string, workers []WorkerInfo) {
	if ch, ok := w.pending.LoadAndDelete(requestID); ok {
		ch <- workers
	}
}
