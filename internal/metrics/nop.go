package metrics

import "github.com/arloliu/flock/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	m := metrics.NewNop()
//	sup := flock.NewSupervisor(launcher, flock.WithMetrics(m))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordFork discards the fork/respawn metric.
func (n *NopMetrics) RecordFork(_ types.WorkerID, _ bool) {}

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ types.WorkerID, _, _ types.WorkerState) {}

// RecordExit discards the exit classification metric.
func (n *NopMetrics) RecordExit(_ types.WorkerID, _ int, _ bool, _ string) {}

// SetOnlineWorkers discards the online-worker gauge.
func (n *NopMetrics) SetOnlineWorkers(_ int) {}

// RecordEmit discards the emit counter.
func (n *NopMetrics) RecordEmit(_ string, _ bool) {}

// RecordBroadcast discards the broadcast counter.
func (n *NopMetrics) RecordBroadcast(_ string, _ int) {}

// RecordChannelError discards the channel error counter.
func (n *NopMetrics) RecordChannelError(_ types.WorkerID) {}

// ObserveGetWorkersLatency discards the control round-trip histogram.
func (n *NopMetrics) ObserveGetWorkersLatency(_ float64) {}
