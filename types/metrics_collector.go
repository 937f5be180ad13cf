package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations must be non-blocking and safe for concurrent use; all
// methods are called from the router and lifecycle controller goroutines.
//
// This interface composes smaller, domain-focused interfaces for modularity,
// the way the teacher library composes ManagerMetrics/CalculatorMetrics/etc.
type MetricsCollector interface {
	RegistryMetrics
	RoutingMetrics
}

// RegistryMetrics covers worker-count and lifecycle events.
type RegistryMetrics interface {
	// RecordFork records a new worker fork (reborn=false) or respawn
	// (reborn=true) attempt for the given ID.
	RecordFork(id WorkerID, reborn bool)

	// RecordStateTransition records a worker state transition.
	RecordStateTransition(id WorkerID, from, to WorkerState)

	// RecordExit records a worker's exit. It is called for every exit,
	// before the exit is classified as a respawn or a terminal exit.
	RecordExit(id WorkerID, code int, hasCode bool, signal string)

	// SetOnlineWorkers sets the current count of online workers (gauge).
	SetOnlineWorkers(count int)
}

// RoutingMetrics covers emit/broadcast/control-plane traffic.
type RoutingMetrics interface {
	// RecordEmit records a master-side send of a user event to one worker,
	// tagged by whether it was accepted: accepted is false when the target
	// ID is not registered and nothing was sent. Reserved names are
	// rejected before this is called.
	RecordEmit(event string, accepted bool)

	// RecordBroadcast records a broadcast fan-out, with the number of
	// targets it reached.
	RecordBroadcast(event string, targets int)

	// RecordChannelError records a channel-level send/receive error.
	RecordChannelError(id WorkerID)

	// ObserveGetWorkersLatency observes how long, in seconds, the master
	// took to build and send its response to a worker's GetWorkers request.
	ObserveGetWorkersLatency(seconds float64)
}
