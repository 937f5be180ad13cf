// Package controller implements the worker lifecycle state machine: exit
// classification (respawn vs terminal) and the respawn backoff schedule.
// It is a pure decision layer — it never forks a process or touches the
// registry directly; the root package calls into it and then acts on the
// returned decision.
package controller

import (
	"math/rand/v2"
	"time"

	"github.com/arloliu/flock/types"
)

// RebootExitCode is the exit code a worker uses to request a graceful
// respawn, as opposed to an ordinary crash. A worker exiting with this
// code is always respawned, regardless of its keep-alive setting.
const RebootExitCode = 826

// Decision is the outcome of classifying a child's exit.
type Decision int

const (
	// DecisionTerminal means the worker is done: remove it from the
	// registry and fire the user-visible "exit" event.
	DecisionTerminal Decision = iota

	// DecisionRespawn means fork a replacement child under the same ID,
	// without firing "exit".
	DecisionRespawn
)

// transitions is the validated WorkerState transition table, following the
// same validated-transition-table idiom the teacher's assignment state
// machine uses for its own state enum.
var transitions = map[types.WorkerState][]types.WorkerState{
	types.StateConnecting: {types.StateOnline, types.StateClosed},
	types.StateOnline:     {types.StateConnecting, types.StateClosed},
	types.StateClosed:     {},
}

// ValidTransition reports whether moving from `from` to `to` is allowed.
func ValidTransition(from, to types.WorkerState) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// ClassifyExit decides whether a child's exit should trigger a respawn or
// is terminal.
//
// Rules, in order:
//   - hasCode && code == RebootExitCode: always respawn (graceful reboot).
//   - keepAlive && (hasCode && code != 0, or signal == "SIGKILL"): respawn.
//   - otherwise: terminal.
func ClassifyExit(keepAlive bool, code int, hasCode bool, signal string) Decision {
	if hasCode && code == RebootExitCode {
		return DecisionRespawn
	}
	if keepAlive && ((hasCode && code != 0) || signal == "SIGKILL") {
		return DecisionRespawn
	}

	return DecisionTerminal
}

// Backoff computes successive respawn delays using a full-jitter
// exponential backoff, adapted from the same algorithm the teacher uses
// to pace JetStream control-plane retries, repurposed here to throttle a
// worker crash-loop instead.
type Backoff struct {
	min time.Duration
	max float64
}

// NewBackoff creates a Backoff bounded to [min, max].
func NewBackoff(min, max time.Duration) *Backoff {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}

	return &Backoff{min: min, max: float64(max)}
}

// Next returns the delay to wait before the next respawn attempt, given
// the previous delay used (0 for the first attempt).
func (b *Backoff) Next(prev time.Duration) time.Duration {
	if prev <= 0 {
		return b.min
	}

	maxDuration := float64(prev)*2 - float64(b.min)
	if maxDuration <= 0 {
		return b.min
	}

	jitter := rand.Int64N(int64(maxDuration)) //nolint:gosec // non-crypto backoff jitter
	next := b.min + time.Duration(jitter)
	if next > time.Duration(b.max) {
		return time.Duration(b.max)
	}

	return next
}
