package flock

import "github.com/arloliu/flock/types"

// Re-export sentinel errors from the internal types package so callers can
// write flock.ErrChannelClosed instead of reaching into the types subpackage.
var (
	ErrLauncherRequired  = types.ErrLauncherRequired
	ErrInvalidWorkerID   = types.ErrInvalidWorkerID
	ErrDuplicateWorkerID = types.ErrDuplicateWorkerID
	ErrReservedEventName = types.ErrReservedEventName
	ErrChannelClosed     = types.ErrChannelClosed
	ErrGetWorkersTimeout = types.ErrGetWorkersTimeout
)
