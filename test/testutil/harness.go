package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/flock"
)

// SpawnWorker forks id on sup through launcher, wires a flock.Self to the
// resulting FakeLink, and blocks until the worker's online handshake has
// completed on both sides — the fixture every integration test starts from.
func SpawnWorker(
	t *testing.T,
	sup *flock.Supervisor,
	launcher *FakeLauncher,
	id flock.WorkerID,
	keepAlive bool,
	selfOpts ...flock.Option,
) (*flock.Handle, *flock.Self, *FakeLink) {
	t.Helper()

	handle, err := sup.Fork(id, keepAlive)
	require.NoError(t, err)

	link, ok := launcher.Link(id)
	require.True(t, ok, "launcher has no link for %q right after Fork", id)

	self := flock.NewSelf(id, link.WorkerChannel(), selfOpts...)
	link.Run(self)
	link.SignalOnline()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = self.GetWorker(ctx)
	require.NoError(t, err, "worker %q did not come online", id)

	return handle, self, link
}

// AwaitOnline blocks until fn reports true or the timeout elapses, polling
// at a short fixed interval. Used for observing master-side state (registry
// membership, listener counts) that has no dedicated wait channel.
func AwaitOnline(t *testing.T, timeout time.Duration, fn func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return true
		}

		time.Sleep(2 * time.Millisecond)
	}

	return fn()
}
