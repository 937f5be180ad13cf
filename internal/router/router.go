// Package router classifies inbound envelopes into the action the caller
// (the master-side Supervisor or the worker-side Self) must perform. It is
// a pure decision layer — deliberately ignorant of the registry, handles,
// or the channel — so the dispatch switch itself is covered by table-driven
// tests independent of any transport.
package router

import "github.com/arloliu/flock/types"

// Action identifies what the caller should do with a classified envelope.
type Action int

const (
	// ActionIgnore means the envelope kind is not meaningful on this side
	// and should be dropped.
	ActionIgnore Action = iota

	// ActionTransmit: re-emit Event/Data to the worker IDs in To.
	ActionTransmit

	// ActionBroadcast: re-emit Event/Data to every online worker.
	ActionBroadcast

	// ActionGetWorkersReq: respond to From with a roster snapshot.
	ActionGetWorkersReq

	// ActionUserEvent: dispatch Event/Data as a user event on the handle
	// identified by From (master side) or on the local emitter (worker
	// side).
	ActionUserEvent

	// ActionOnline: materialize the local handle and mark it online
	// (worker side only).
	ActionOnline

	// ActionGetWorkersResp: resolve the pending request matched by
	// RequestID (worker side only).
	ActionGetWorkersResp

	// ActionReboot: terminate with the reboot sentinel exit code (worker
	// side only).
	ActionReboot
)

// ClassifyFromChild decides what the master should do with an envelope
// received from a child, per the master-side inbound demultiplex rules.
func ClassifyFromChild(env types.Envelope) Action {
	switch env.Kind {
	case types.EnvelopeTransmit:
		return ActionTransmit
	case types.EnvelopeBroadcast:
		return ActionBroadcast
	case types.EnvelopeGetWorkersReq:
		return ActionGetWorkersReq
	case types.EnvelopeUser:
		return ActionUserEvent
	default:
		return ActionIgnore
	}
}

// ClassifyFromMaster decides what a worker should do with an envelope
// received from the master, per the worker-side inbound demultiplex rules.
func ClassifyFromMaster(env types.Envelope) Action {
	switch env.Kind {
	case types.EnvelopeUser:
		return ActionUserEvent
	case types.EnvelopeOnline:
		return ActionOnline
	case types.EnvelopeGetWorkersResp:
		return ActionGetWorkersResp
	case types.EnvelopeReboot:
		return ActionReboot
	default:
		return ActionIgnore
	}
}
