package hooks

import (
	"context"

	"github.com/arloliu/flock/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, types.WorkerID) error                            = (*NopHooks)(nil).OnWorkerOnline
	_ func(context.Context, types.WorkerID, int, bool, string) error         = (*NopHooks)(nil).OnWorkerExit
	_ func(context.Context, error) error                                     = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnWorkerOnline: h.OnWorkerOnline,
		OnWorkerExit:   h.OnWorkerExit,
		OnError:        h.OnError,
	}
}

// OnWorkerOnline is a no-op implementation.
func (h *NopHooks) OnWorkerOnline(ctx context.Context, id types.WorkerID) error {
	return nil
}

// OnWorkerExit is a no-op implementation.
func (h *NopHooks) OnWorkerExit(ctx context.Context, id types.WorkerID, code int, hasCode bool, signal string) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(ctx context.Context, err error) error {
	return nil
}
