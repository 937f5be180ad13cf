package types

import "errors"

// Sentinel errors shared by the root flock package and its internal
// packages. Declared here, rather than in the root package, so internal
// packages (router, controller, registry) can return and wrap them
// without importing the root package.
var (
	// ErrLauncherRequired is returned by Supervisor.Fork when the
	// Supervisor was constructed with a nil Launcher.
	ErrLauncherRequired = errors.New("flock: launcher is required")

	// ErrInvalidWorkerID is returned when a worker ID is empty or otherwise
	// malformed.
	ErrInvalidWorkerID = errors.New("flock: invalid worker ID")

	// ErrDuplicateWorkerID is returned when Fork is called with an ID that
	// is already registered, in any state.
	ErrDuplicateWorkerID = errors.New("flock: worker ID already in use")

	// ErrReservedEventName is returned by the class-level On
	// (Supervisor.On, Self.On) for any event name other than "online" or
	// "exit". Emitting a reserved lifecycle name is not an error: Emit and
	// Broadcast return (false, nil) instead.
	ErrReservedEventName = errors.New("flock: reserved event name")

	// ErrChannelClosed is returned when an operation is attempted on a
	// worker whose channel has already been torn down.
	ErrChannelClosed = errors.New("flock: channel closed")

	// ErrGetWorkersTimeout is returned when a worker-side GetWorkers request
	// does not receive a response within Config.GetWorkersTimeout.
	ErrGetWorkersTimeout = errors.New("flock: get-workers request timed out")
)
