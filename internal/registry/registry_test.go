package registry

import (
	"testing"

	"github.com/arloliu/flock/types"
	"github.com/stretchr/testify/require"
)

type fakeChild struct{ pid int }

func TestRegistry_InsertAndGet(t *testing.T) {
	r := New[string, *fakeChild]()

	entry := r.Insert(types.WorkerID("w-0"), "handle-0", &fakeChild{pid: 100}, true, 100)
	require.Equal(t, types.StateConnecting, entry.State())

	got, ok := r.Get(types.WorkerID("w-0"))
	require.True(t, ok)
	require.Same(t, entry, got)
	require.Equal(t, "handle-0", got.Handle)

	pidRec, ok := r.ByPID(100)
	require.True(t, ok)
	require.Equal(t, types.WorkerID("w-0"), pidRec.ID)
	require.True(t, pidRec.KeepAlive)
	require.False(t, pidRec.Reborn)
}

func TestRegistry_MarkOnline(t *testing.T) {
	r := New[string, *fakeChild]()
	r.Insert(types.WorkerID("w-0"), "handle-0", &fakeChild{pid: 1}, false, 1)

	r.MarkOnline(types.WorkerID("w-0"))

	entry, ok := r.Get(types.WorkerID("w-0"))
	require.True(t, ok)
	require.Equal(t, types.StateOnline, entry.State())
}

func TestRegistry_MarkOnline_UnknownID(t *testing.T) {
	r := New[string, *fakeChild]()
	require.NotPanics(t, func() {
		r.MarkOnline(types.WorkerID("missing"))
	})
}

func TestRegistry_Remove(t *testing.T) {
	r := New[string, *fakeChild]()
	r.Insert(types.WorkerID("w-0"), "handle-0", &fakeChild{pid: 1}, false, 1)

	r.Remove(types.WorkerID("w-0"), 1)

	_, ok := r.Get(types.WorkerID("w-0"))
	require.False(t, ok)
	_, ok = r.ByPID(1)
	require.False(t, ok)
}

func TestRegistry_MoveToPID_PreservesEntry(t *testing.T) {
	r := New[string, *fakeChild]()
	original := r.Insert(types.WorkerID("w-0"), "handle-0", &fakeChild{pid: 1}, true, 1)
	r.MarkOnline(types.WorkerID("w-0"))

	moved, ok := r.MoveToPID(types.WorkerID("w-0"), &fakeChild{pid: 2}, 1, 2)
	require.True(t, ok)
	require.Same(t, original, moved)
	require.Equal(t, types.StateConnecting, moved.State())
	require.Equal(t, 2, moved.Child.pid)

	_, ok = r.ByPID(1)
	require.False(t, ok)

	rec, ok := r.ByPID(2)
	require.True(t, ok)
	require.True(t, rec.Reborn)
	require.True(t, rec.KeepAlive)
}

func TestRegistry_MoveToPID_UnknownID(t *testing.T) {
	r := New[string, *fakeChild]()
	_, ok := r.MoveToPID(types.WorkerID("missing"), &fakeChild{pid: 2}, 1, 2)
	require.False(t, ok)
}

func TestRegistry_Online(t *testing.T) {
	r := New[string, *fakeChild]()
	r.Insert(types.WorkerID("w-0"), "h0", &fakeChild{pid: 1}, false, 1)
	r.Insert(types.WorkerID("w-1"), "h1", &fakeChild{pid: 2}, false, 2)
	r.MarkOnline(types.WorkerID("w-0"))

	online := r.Online()
	require.Len(t, online, 1)
	require.Equal(t, types.WorkerID("w-0"), online[0].ID)
}

func TestRegistry_Len(t *testing.T) {
	r := New[string, *fakeChild]()
	require.Equal(t, 0, r.Len())

	r.Insert(types.WorkerID("w-0"), "h0", &fakeChild{pid: 1}, false, 1)
	r.Insert(types.WorkerID("w-1"), "h1", &fakeChild{pid: 2}, false, 2)
	require.Equal(t, 2, r.Len())

	r.Remove(types.WorkerID("w-0"), 1)
	require.Equal(t, 1, r.Len())
}
