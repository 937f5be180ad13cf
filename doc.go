// Package flock provides a process-pool supervisor and cross-process event
// bus for managing a fleet of forked worker processes from a single master
// process.
//
// Flock lets a master process fork, supervise, and talk to a pool of named
// worker processes over a duplex channel, without requiring any external
// coordination service. Each worker claims a stable, caller-assigned ID,
// reports online once ready, and can be kept alive across crashes or allowed
// to exit permanently. The master can emit events to one worker, broadcast
// to every online worker, and query the current roster.
//
// # Quick Start
//
// Basic usage with default settings:
//
//	import (
//	    "github.com/arloliu/flock"
//	    "github.com/arloliu/flock/internal/launchers"
//	)
//
//	sup := flock.NewSupervisor(launchers.NewExecLauncher("./worker", ""))
//
//	sup.On("online", func(h *flock.Handle) {
//	    h.On("tick", func(from flock.WorkerID, data ...any) {
//	        log.Printf("tick from %s: %v", from, data)
//	    })
//	})
//
//	if _, err := sup.Fork("worker-0", true); err != nil {
//	    log.Fatal(err)
//	}
//	defer sup.Shutdown(context.Background())
//
// On the worker side, the same process image calls into Self, feeding it
// every envelope the transport delivers:
//
//	channel := launchers.NewChildChannel(os.Stdout)
//	self := flock.NewSelf(flock.WorkerID(os.Getenv("FLOCK_WORKER_ID")), channel)
//	self.On("online", func(h *flock.Handle) {
//	    h.On("tick", func(from flock.WorkerID, data ...any) { /* ... */ })
//	})
//	go launchers.ReadLoop(os.Stdin, self.HandleInbound)
//	channel.SignalOnline()
//
// # Key Features
//
//   - Stable Worker IDs: workers are addressed by a caller-assigned ID, not
//     a PID or array index
//   - Lifecycle Supervision: fork, online handshake, crash detection, and
//     keep-alive respawn with backoff
//   - Event Routing: per-worker transmit, fleet-wide broadcast, and a
//     request/response GetWorkers control operation
//   - Reserved Event Guard: the "online", "error", and "exit" lifecycle
//     names can never be used as user event names
//   - Graceful Reboot: a worker can ask to be respawned via a distinguished
//     exit code rather than being treated as a crash
//
// # Architecture
//
// A worker progresses through a small state machine:
//
//	Connecting -> Online -> Closed
//
// The master (Supervisor) owns the registry of known workers and the
// routing of envelopes between them; the worker (Self) owns its own
// listener map and the handshake with the master. Both sides share the
// same Handle façade for emitting, listening, and querying.
//
// # Advanced Usage
//
// Custom launcher and hooks:
//
//	import "github.com/arloliu/flock"
//
//	hooks := flock.Hooks{
//	    OnWorkerExit: func(ctx context.Context, id flock.WorkerID, code int, hasCode bool, signal string) error {
//	        // Handle an unexpected exit
//	        return nil
//	    },
//	}
//
//	sup := flock.NewSupervisor(launcher,
//	    flock.WithHooks(hooks),
//	    flock.WithMetrics(metrics.NewPrometheus(nil, "flock")),
//	)
package flock
