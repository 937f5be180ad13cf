// Package testutil provides an in-memory fake Launcher/ChildProcess/
// MasterChannel pair, letting integration tests exercise a full master+worker
// round trip without forking a real OS process — the direct analogue of the
// teacher's embedded-NATS test harness, adapted to this module's collaborator
// seams (flock.Launcher, flock.ChildProcess, flock.MasterChannel) instead of
// a JetStream connection.
package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/flock"
)

// FakeLauncher is a flock.Launcher that spawns in-process FakeLinks instead
// of real child processes. Each Fork call creates a new link under the
// requested WorkerID, replacing any prior link for the same ID (mirroring a
// real respawn, which always gets a fresh PID).
type FakeLauncher struct {
	mu      sync.Mutex
	nextPID int
	links   map[flock.WorkerID]*FakeLink
}

var _ flock.Launcher = (*FakeLauncher)(nil)

// NewFakeLauncher creates an empty FakeLauncher.
func NewFakeLauncher() *FakeLauncher {
	return &FakeLauncher{links: make(map[flock.WorkerID]*FakeLink)}
}

// Fork creates a new FakeLink for id, recording the supervisor-provided
// events so the link's Kill/SimulateExit/SignalOnline methods can drive them.
func (l *FakeLauncher) Fork(id flock.WorkerID, events flock.ChildProcessEvents) (flock.ChildProcess, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextPID++
	link := &FakeLink{
		id:       id,
		pid:      l.nextPID,
		events:   events,
		toWorker: make(chan flock.Envelope, 64),
		done:     make(chan struct{}),
	}
	l.links[id] = link

	return link, nil
}

// Link returns the most recently forked link for id.
func (l *FakeLauncher) Link(id flock.WorkerID) (*FakeLink, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	link, ok := l.links[id]

	return link, ok
}

// FakeLink is both the master-side flock.ChildProcess and the source of a
// worker-side flock.MasterChannel for one forked worker. Master->worker
// traffic is queued on an internal buffered channel and delivered in order
// by Run; worker->master traffic calls straight into the events the
// Supervisor registered at Fork time, exactly like a real Launcher's
// Message callback.
type FakeLink struct {
	id  flock.WorkerID
	pid int

	events   flock.ChildProcessEvents
	toWorker chan flock.Envelope

	killed atomic.Bool
	done   chan struct{}
	once   sync.Once
}

var _ flock.ChildProcess = (*FakeLink)(nil)

// PID returns this link's synthetic process ID.
func (l *FakeLink) PID() int { return l.pid }

// Send queues v (a flock.Envelope) for worker-side delivery, preserving send
// order the way a real per-child channel must (spec.md §4.2).
func (l *FakeLink) Send(v any) error {
	env, ok := v.(flock.Envelope)
	if !ok {
		return fmt.Errorf("testutil: unsupported message type %T", v)
	}

	select {
	case l.toWorker <- env:
		return nil
	case <-l.done:
		return flock.ErrChannelClosed
	}
}

// Kill simulates an OS-level SIGKILL: it marks the link dead and reports the
// exit asynchronously, exactly as a real Launcher does after the signal is
// delivered and the process actually terminates.
func (l *FakeLink) Kill() error {
	if !l.killed.CompareAndSwap(false, true) {
		return nil
	}

	go l.SimulateExit(0, false, "SIGKILL")

	return nil
}

// SignalOnline invokes the master's Online callback, as if the child had
// just reported readiness.
func (l *FakeLink) SignalOnline() {
	if l.events.Online != nil {
		l.events.Online()
	}
}

// SimulateExit invokes the master's Exit callback and stops delivering
// queued master->worker messages.
func (l *FakeLink) SimulateExit(code int, hasCode bool, signal string) {
	l.once.Do(func() { close(l.done) })

	if l.events.Exit != nil {
		l.events.Exit(code, hasCode, signal)
	}
}

// SimulateError invokes the master's Error callback.
func (l *FakeLink) SimulateError(err error) {
	if l.events.Error != nil {
		l.events.Error(err)
	}
}

// WorkerChannel returns the flock.MasterChannel a worker-side Self sends
// through. Every Send call invokes the master's Message callback directly,
// in-process, the way a real channel's read loop would upon decoding a frame.
func (l *FakeLink) WorkerChannel() flock.MasterChannel {
	return fakeWorkerChannel{link: l}
}

// Run delivers queued master->worker envelopes to self.HandleInbound, in
// order, until the link's Exit is simulated. Call once per link, typically
// right after constructing the paired Self.
func (l *FakeLink) Run(self *flock.Self) {
	go func() {
		for {
			select {
			case env := <-l.toWorker:
				self.HandleInbound(env)
			case <-l.done:
				return
			}
		}
	}()
}

type fakeWorkerChannel struct {
	link *FakeLink
}

var _ flock.MasterChannel = fakeWorkerChannel{}

func (c fakeWorkerChannel) Send(v any) error {
	env, ok := v.(flock.Envelope)
	if !ok {
		return fmt.Errorf("testutil: unsupported message type %T", v)
	}

	if c.link.events.Message != nil {
		c.link.events.Message(env)
	}

	return nil
}
