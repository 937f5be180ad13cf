package flock

import (
	"fmt"
	"time"
)

// Config is the configuration for a Supervisor.
//
// All duration fields accept standard Go duration values.
type Config struct {
	// OnlineTimeout is defaulted and validated, but the Supervisor does not
	// read it: a forked worker stays Connecting until it reports online,
	// with no deadline, and a fork is never failed for being slow.
	// Recommended: 10 seconds.
	OnlineTimeout time.Duration `yaml:"onlineTimeout"`

	// ShutdownTimeout is the maximum time Supervisor.Shutdown waits for
	// background respawn goroutines to exit before returning.
	// Recommended: 10 seconds.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// GetWorkersTimeout is the maximum time a worker-side GetWorkers request
	// waits for the master's response before returning ErrGetWorkersTimeout.
	// GetWorker is bounded only by its ctx.
	// Recommended: 5 seconds.
	GetWorkersTimeout time.Duration `yaml:"getWorkersTimeout"`

	// RespawnBackoffMin is the initial delay before respawning a worker
	// that exited under keep-alive, or on the reboot sentinel.
	// Recommended: 100 milliseconds.
	RespawnBackoffMin time.Duration `yaml:"respawnBackoffMin"`

	// RespawnBackoffMax caps the exponential respawn backoff delay.
	// Recommended: 30 seconds.
	RespawnBackoffMax time.Duration `yaml:"respawnBackoffMax"`

	// RespawnResetWindow is how long a worker must stay online before its
	// respawn backoff resets to RespawnBackoffMin. Without this, a worker
	// that is healthy for hours but then crashes once would otherwise
	// inherit a stale, maxed-out backoff from an earlier crash loop.
	// Recommended: 60 seconds.
	RespawnResetWindow time.Duration `yaml:"respawnResetWindow"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		OnlineTimeout:      10 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		GetWorkersTimeout:  5 * time.Second,
		RespawnBackoffMin:  100 * time.Millisecond,
		RespawnBackoffMax:  30 * time.Second,
		RespawnResetWindow: 60 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.OnlineTimeout == 0 {
		cfg.OnlineTimeout = defaults.OnlineTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.GetWorkersTimeout == 0 {
		cfg.GetWorkersTimeout = defaults.GetWorkersTimeout
	}
	if cfg.RespawnBackoffMin == 0 {
		cfg.RespawnBackoffMin = defaults.RespawnBackoffMin
	}
	if cfg.RespawnBackoffMax == 0 {
		cfg.RespawnBackoffMax = defaults.RespawnBackoffMax
	}
	if cfg.RespawnResetWindow == 0 {
		cfg.RespawnResetWindow = defaults.RespawnResetWindow
	}
}

// Validate checks configuration constraints and returns an error for
// invalid values.
//
// Hard Validation Rules:
//   - OnlineTimeout, ShutdownTimeout, GetWorkersTimeout must be > 0
//   - RespawnBackoffMin must be > 0
//   - RespawnBackoffMax must be >= RespawnBackoffMin
//
// Returns:
//   - error: Validation error with clear explanation, nil if valid
func (cfg *Config) Validate() error {
	if cfg.OnlineTimeout <= 0 {
		return fmt.Errorf("OnlineTimeout must be > 0, got %v", cfg.OnlineTimeout)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("ShutdownTimeout must be > 0, got %v", cfg.ShutdownTimeout)
	}
	if cfg.GetWorkersTimeout <= 0 {
		return fmt.Errorf("GetWorkersTimeout must be > 0, got %v", cfg.GetWorkersTimeout)
	}
	if cfg.RespawnBackoffMin <= 0 {
		return fmt.Errorf("RespawnBackoffMin must be > 0, got %v", cfg.RespawnBackoffMin)
	}
	if cfg.RespawnBackoffMax < cfg.RespawnBackoffMin {
		return fmt.Errorf(
			"RespawnBackoffMax (%v) must be >= RespawnBackoffMin (%v)",
			cfg.RespawnBackoffMax, cfg.RespawnBackoffMin,
		)
	}
	if cfg.RespawnResetWindow <= 0 {
		return fmt.Errorf("RespawnResetWindow must be > 0, got %v", cfg.RespawnResetWindow)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for
// non-recommended values.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.OnlineTimeout < time.Second {
		logger.Warn(
			"OnlineTimeout is very short",
			"onlineTimeout", cfg.OnlineTimeout,
			"recommended", "10s or higher",
		)
	}

	if cfg.RespawnBackoffMax < 5*time.Second {
		logger.Warn(
			"RespawnBackoffMax is low, a crash-looping worker may be respawned too aggressively",
			"respawnBackoffMax", cfg.RespawnBackoffMax,
			"recommended", "30s or higher",
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Test timings are 10-150x faster than production defaults to enable
// rapid iteration without sacrificing test coverage. Use DefaultConfig()
// for production deployments.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := flock.TestConfig()
//	sup := flock.NewSupervisor(launcher, flock.WithConfig(cfg))
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.OnlineTimeout = 200 * time.Millisecond
	cfg.ShutdownTimeout = 200 * time.Millisecond
	cfg.GetWorkersTimeout = 200 * time.Millisecond
	cfg.RespawnBackoffMin = 10 * time.Millisecond
	cfg.RespawnBackoffMax = 200 * time.Millisecond
	cfg.RespawnResetWindow = 500 * time.Millisecond

	return cfg
}
