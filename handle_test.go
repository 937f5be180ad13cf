package flock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeHandleOps struct {
	emitSelfTo    WorkerID
	emitEvent     string
	emitData      []any
	transmitTo    []WorkerID
	transmitEvent string
	broadcastEvt  string
	exited        []WorkerID
	rebooted      []WorkerID
	err           error
}

func (f *fakeHandleOps) emitSelf(id WorkerID, event string, data []any) error {
	f.emitSelfTo = id
	f.emitEvent = event
	f.emitData = data

	return f.err
}

func (f *fakeHandleOps) transmit(to []WorkerID, event string, data []any) error {
	f.transmitTo = to
	f.transmitEvent = event
	f.emitData = data

	return f.err
}

func (f *fakeHandleOps) broadcast(event string, data []any) error {
	f.broadcastEvt = event

	return f.err
}

func (f *fakeHandleOps) exitWorker(id WorkerID) error {
	f.exited = append(f.exited, id)

	return f.err
}

func (f *fakeHandleOps) rebootWorker(id WorkerID) error {
	f.rebooted = append(f.rebooted, id)

	return f.err
}

func (f *fakeHandleOps) getWorkers(context.Context) ([]WorkerInfo, error) {
	return nil, f.err
}

func TestHandle_Emit_DefaultsToSelf(t *testing.T) {
	ops := &fakeHandleOps{}
	h := newHandle("a", false, ops)

	ok, err := h.Emit("tick", 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, WorkerID("a"), ops.emitSelfTo)
	require.Equal(t, "tick", ops.emitEvent)
	require.Equal(t, []any{1}, ops.emitData)
}

func TestHandle_Emit_WithTo_Transmits(t *testing.T) {
	ops := &fakeHandleOps{}
	h := newHandle("a", false, ops)

	ok, err := h.To("b", "c").Emit("tick")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []WorkerID{"b", "c"}, ops.transmitTo)
	require.Equal(t, "tick", ops.transmitEvent)
}

func TestHandle_To_IsOneShot(t *testing.T) {
	ops := &fakeHandleOps{}
	h := newHandle("a", false, ops)

	h.To("b")
	_, err := h.Emit("first")
	require.NoError(t, err)
	require.Equal(t, []WorkerID{"b"}, ops.transmitTo)

	ops.transmitTo = nil
	ops.emitSelfTo = ""
	_, err = h.Emit("second")
	require.NoError(t, err)
	require.Nil(t, ops.transmitTo, "receiver set must not survive a second Emit")
	require.Equal(t, WorkerID("a"), ops.emitSelfTo)
}

func TestHandle_Emit_RejectsReservedNames(t *testing.T) {
	ops := &fakeHandleOps{}
	h := newHandle("a", false, ops)

	for _, name := range []string{"online", "error", "exit"} {
		ok, err := h.Emit(name)
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.Empty(t, ops.emitEvent)
}

func TestHandle_Emit_ReservedName_StillClearsReceivers(t *testing.T) {
	ops := &fakeHandleOps{}
	h := newHandle("a", false, ops)

	h.To("b")
	ok, err := h.Emit("online")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = h.Emit("tick")
	require.NoError(t, err)
	require.Equal(t, WorkerID("a"), ops.emitSelfTo, "receiver set from before the rejected Emit must not leak")
}

func TestHandle_Emit_PropagatesError(t *testing.T) {
	ops := &fakeHandleOps{err: errors.New("boom")}
	h := newHandle("a", false, ops)

	ok, err := h.Emit("tick")
	require.Error(t, err)
	require.False(t, ok)
}

func TestHandle_Broadcast_RejectsReservedNames(t *testing.T) {
	ops := &fakeHandleOps{}
	h := newHandle("a", false, ops)

	ok, err := h.Broadcast("exit")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, ops.broadcastEvt)
}

func TestHandle_Broadcast_ClearsAnyPendingTo(t *testing.T) {
	ops := &fakeHandleOps{}
	h := newHandle("a", false, ops)

	h.To("b")
	_, err := h.Broadcast("news")
	require.NoError(t, err)
	require.Equal(t, "news", ops.broadcastEvt)

	_, err = h.Emit("tick")
	require.NoError(t, err)
	require.Equal(t, WorkerID("a"), ops.emitSelfTo)
}

func TestHandle_Exit_And_Reboot_DelegateToOps(t *testing.T) {
	ops := &fakeHandleOps{}
	h := newHandle("a", false, ops)

	require.NoError(t, h.Exit())
	require.NoError(t, h.Reboot())
	require.Equal(t, []WorkerID{"a"}, ops.exited)
	require.Equal(t, []WorkerID{"a"}, ops.rebooted)
}

func TestFlattenTargets(t *testing.T) {
	hb := newHandle("b", false, nil)
	got := *flattenTargets([]any{"a", WorkerID("b"), hb, []string{"c", "d"}, []WorkerID{"e"}, []*Handle{hb}})
	require.Equal(t, []WorkerID{"a", "b", "b", "c", "d", "e", "b"}, got)
}

func TestHandle_SetMaxListeners_InvokesCallback(t *testing.T) {
	h := newHandle("a", false, &fakeHandleOps{})

	var called bool
	h.onLimitChange = func() { called = true }
	h.SetMaxListeners(5)

	require.True(t, called)
	require.Equal(t, 5, h.emitter.getMaxListeners())
}
