package flock

import (
	"time"

	"github.com/arloliu/flock/internal/hooks"
	"github.com/arloliu/flock/internal/logger"
	"github.com/arloliu/flock/internal/metrics"
)

// Option configures a Supervisor or Self with optional dependencies.
type Option func(*commonOptions)

// commonOptions holds optional configuration shared by Supervisor and Self.
type commonOptions struct {
	config  Config
	hooks   Hooks
	metrics MetricsCollector
	logger  Logger
	exiter  Exiter
}

// WithConfig sets the full Config, overriding individual timeout/backoff
// options applied before it and providing defaults for ones applied after.
//
// Parameters:
//   - cfg: Config to use as the baseline
//
// Returns:
//   - Option: Functional option for NewSupervisor or NewSelf
//
// Example:
//
//	sup := flock.NewSupervisor(launcher, flock.WithConfig(flock.TestConfig()))
func WithConfig(cfg Config) Option {
	return func(o *commonOptions) {
		o.config = cfg
	}
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewSupervisor or NewSelf
//
// Example:
//
//	hooks := flock.Hooks{
//	    OnWorkerExit: func(ctx context.Context, id flock.WorkerID, code int, hasCode bool, signal string) error {
//	        return handleExit(id, code)
//	    },
//	}
//	sup := flock.NewSupervisor(launcher, flock.WithHooks(hooks))
func WithHooks(hooks Hooks) Option {
	return func(o *commonOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewSupervisor or NewSelf
//
// Example:
//
//	collector := metrics.NewPrometheus(nil, "flock")
//	sup := flock.NewSupervisor(launcher, flock.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *commonOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation
//
// Returns:
//   - Option: Functional option for NewSupervisor or NewSelf
//
// Example:
//
//	logger := logging.NewSlogDefault()
//	sup := flock.NewSupervisor(launcher, flock.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *commonOptions) {
		o.logger = logger
	}
}

// WithShutdownTimeout bounds how long Supervisor.Shutdown waits for
// in-flight respawn goroutines to exit before returning.
//
// Parameters:
//   - d: Maximum duration to wait during Shutdown
//
// Returns:
//   - Option: Functional option for NewSupervisor or NewSelf
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *commonOptions) {
		o.config.ShutdownTimeout = d
	}
}

// WithGetWorkersTimeout bounds how long a worker-side GetWorkers waits for
// the master's response before returning ErrGetWorkersTimeout.
//
// Parameters:
//   - d: Maximum duration to wait for a control-plane round trip
//
// Returns:
//   - Option: Functional option for NewSupervisor or NewSelf
func WithGetWorkersTimeout(d time.Duration) Option {
	return func(o *commonOptions) {
		o.config.GetWorkersTimeout = d
	}
}

// WithExiter overrides how a Self terminates itself on Exit/Reboot. The
// default calls os.Exit; tests inject a fake that records the call instead
// of killing the test binary. Has no effect on a Supervisor.
//
// Parameters:
//   - e: Exiter implementation
//
// Returns:
//   - Option: Functional option for NewSelf
func WithExiter(e Exiter) Option {
	return func(o *commonOptions) {
		o.exiter = e
	}
}

// newCommonOptions applies opts over DefaultConfig and SetDefaults,
// returning the resolved options with a non-nil Hooks/MetricsCollector/
// Logger/Exiter so callers never need nil checks.
func newCommonOptions(opts ...Option) commonOptions {
	o := commonOptions{config: DefaultConfig(), hooks: hooks.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	SetDefaults(&o.config)

	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}
	if o.exiter == nil {
		o.exiter = osExiter{}
	}
	if o.hooks.OnWorkerOnline == nil || o.hooks.OnWorkerExit == nil || o.hooks.OnError == nil {
		nop := hooks.NewNop()
		if o.hooks.OnWorkerOnline == nil {
			o.hooks.OnWorkerOnline = nop.OnWorkerOnline
		}
		if o.hooks.OnWorkerExit == nil {
			o.hooks.OnWorkerExit = nop.OnWorkerExit
		}
		if o.hooks.OnError == nil {
			o.hooks.OnError = nop.OnError
		}
	}

	return o
}
