package metrics

import (
	"sync"

	"github.com/arloliu/flock/types"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
type PrometheusCollector struct {
	*NopMetrics

	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	forkTotal          *prometheus.CounterVec
	stateTransitions   *prometheus.CounterVec
	exitTotal          *prometheus.CounterVec
	onlineWorkers      prometheus.Gauge
	emitTotal          *prometheus.CounterVec
	broadcastTotal     *prometheus.CounterVec
	broadcastTargets   prometheus.Histogram
	channelErrorTotal  *prometheus.CounterVec
	getWorkersLatency  prometheus.Histogram
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "flock" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "flock"
	}

	return &PrometheusCollector{NopMetrics: NewNop(), reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.forkTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "fork_total",
			Help:      "Total worker fork attempts by whether they were respawns.",
		}, []string{"reborn"})

		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "state_transitions_total",
			Help:      "Total worker state transitions by from/to state.",
		}, []string{"from", "to"})

		p.exitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "exit_total",
			Help:      "Total worker exits by signal presence.",
		}, []string{"signaled"})

		p.onlineWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "online_workers",
			Help:      "Current number of online workers.",
		})

		p.emitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "router",
			Name:      "emit_total",
			Help:      "Total user event emit attempts by acceptance.",
		}, []string{"accepted"})

		p.broadcastTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "router",
			Name:      "broadcast_total",
			Help:      "Total broadcast fan-outs by event name.",
		}, []string{"event"})

		p.broadcastTargets = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "router",
			Name:      "broadcast_targets",
			Help:      "Distribution of target counts per broadcast.",
			Buckets:   prometheus.LinearBuckets(0, 4, 10),
		})

		p.channelErrorTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "router",
			Name:      "channel_error_total",
			Help:      "Total channel send/receive errors by worker ID.",
		}, []string{"worker_id"})

		p.getWorkersLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "router",
			Name:      "get_workers_latency_seconds",
			Help:      "Master-side time to build and send a GetWorkers response.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		})

		p.reg.MustRegister(p.forkTotal)
		p.reg.MustRegister(p.stateTransitions)
		p.reg.MustRegister(p.exitTotal)
		p.reg.MustRegister(p.onlineWorkers)
		p.reg.MustRegister(p.emitTotal)
		p.reg.MustRegister(p.broadcastTotal)
		p.reg.MustRegister(p.broadcastTargets)
		p.reg.MustRegister(p.channelErrorTotal)
		p.reg.MustRegister(p.getWorkersLatency)
	})
}

// RecordFork records a new worker fork or respawn attempt.
func (p *PrometheusCollector) RecordFork(_ types.WorkerID, reborn bool) {
	p.ensureRegistered()
	p.forkTotal.WithLabelValues(boolLabel(reborn)).Inc()
}

// RecordStateTransition records a worker state transition.
func (p *PrometheusCollector) RecordStateTransition(_ types.WorkerID, from, to types.WorkerState) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordExit records a worker exit, whether or not it leads to a respawn.
func (p *PrometheusCollector) RecordExit(_ types.WorkerID, _ int, _ bool, signal string) {
	p.ensureRegistered()
	p.exitTotal.WithLabelValues(boolLabel(signal != "")).Inc()
}

// SetOnlineWorkers sets the current count of online workers.
func (p *PrometheusCollector) SetOnlineWorkers(count int) {
	p.ensureRegistered()
	p.onlineWorkers.Set(float64(count))
}

// RecordEmit records a user-event emit attempt.
func (p *PrometheusCollector) RecordEmit(_ string, accepted bool) {
	p.ensureRegistered()
	p.emitTotal.WithLabelValues(boolLabel(accepted)).Inc()
}

// RecordBroadcast records a broadcast fan-out and its target count.
func (p *PrometheusCollector) RecordBroadcast(event string, targets int) {
	p.ensureRegistered()
	p.broadcastTotal.WithLabelValues(event).Inc()
	p.broadcastTargets.Observe(float64(targets))
}

// RecordChannelError records a channel-level send/receive error.
func (p *PrometheusCollector) RecordChannelError(id types.WorkerID) {
	p.ensureRegistered()
	p.channelErrorTotal.WithLabelValues(string(id)).Inc()
}

// ObserveGetWorkersLatency observes the master-side handling time of a GetWorkers request.
func (p *PrometheusCollector) ObserveGetWorkersLatency(seconds float64) {
	p.ensureRegistered()
	p.getWorkersLatency.Observe(seconds)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
