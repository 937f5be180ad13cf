package types

import "context"

// Hooks defines optional callbacks for master-side worker lifecycle events.
//
// All hooks are optional. They are called synchronously, on the goroutine
// that delivered the lifecycle callback, so a slow hook delays the rest of
// that callback's handling. On the master, hooks receive the supervisor's
// lifecycle context, which is cancelled during shutdown.
//
// IMPORTANT: Hook execution behavior:
//   - Hook errors are logged but don't fail the triggering operation
//   - Make hooks idempotent; a respawn can in principle race a shutdown
//
// Example:
//
//	hooks := &flock.Hooks{
//	    OnWorkerExit: func(ctx context.Context, id flock.WorkerID, code int, hasCode bool, signal string) error {
//	        log.Printf("worker %s exited: code=%v signal=%q", id, code, signal)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnWorkerOnline is called the first time a worker with the given ID
	// reports online. A respawn under the same ID does not fire this again.
	OnWorkerOnline func(ctx context.Context, id WorkerID) error

	// OnWorkerExit is called when a worker's final (non-respawning) exit is
	// observed. Never called for an exit that triggers a keep-alive respawn
	// or a reboot.
	OnWorkerExit func(ctx context.Context, id WorkerID, code int, hasCode bool, signal string) error

	// OnError is called when a recoverable channel or routing error occurs.
	OnError func(ctx context.Context, err error) error
}
