package flock

import "github.com/arloliu/flock/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the
// `types` subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing internal
// packages to depend on `types` without depending on the root `flock`
// package, while still providing a convenient `flock.WorkerID`,
// `flock.Logger`, etc. for users.
type (
	WorkerID    = types.WorkerID
	WorkerState = types.WorkerState
	WorkerInfo  = types.WorkerInfo
	Envelope    = types.Envelope
)

// Re-export interfaces from the internal types package for convenience.
type (
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export EnvelopeKind and its constants from the internal types package.
type EnvelopeKind = types.EnvelopeKind

const (
	EnvelopeUser           = types.EnvelopeUser
	EnvelopeOnline         = types.EnvelopeOnline
	EnvelopeTransmit       = types.EnvelopeTransmit
	EnvelopeBroadcast      = types.EnvelopeBroadcast
	EnvelopeGetWorkersReq  = types.EnvelopeGetWorkersReq
	EnvelopeGetWorkersResp = types.EnvelopeGetWorkersResp
	EnvelopeReboot         = types.EnvelopeReboot
)

// Re-export WorkerState constants from the internal types package.
const (
	StateConnecting = types.StateConnecting
	StateOnline     = types.StateOnline
	StateClosed     = types.StateClosed
)
