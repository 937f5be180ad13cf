package flock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUserEnvelope(t *testing.T) {
	env := newUserEnvelope("a", "hello", []any{1, "x"})
	require.Equal(t, EnvelopeUser, env.Kind)
	require.Equal(t, WorkerID("a"), env.From)
	require.Equal(t, "hello", env.Event)
	require.Equal(t, []any{1, "x"}, env.Data)
}

func TestNewOnlineEnvelope(t *testing.T) {
	env := newOnlineEnvelope("a", true)
	require.Equal(t, EnvelopeOnline, env.Kind)
	require.Equal(t, WorkerID("a"), env.From)
	require.True(t, env.KeepAlive)
}

func TestNewTransmitEnvelope(t *testing.T) {
	env := newTransmitEnvelope("a", []WorkerID{"b", "c"}, "ping", []any{42})
	require.Equal(t, EnvelopeTransmit, env.Kind)
	require.Equal(t, WorkerID("a"), env.From)
	require.Equal(t, []WorkerID{"b", "c"}, env.To)
	require.Equal(t, "ping", env.Event)
	require.Equal(t, []any{42}, env.Data)
}

func TestNewBroadcastEnvelope(t *testing.T) {
	env := newBroadcastEnvelope("a", "news", []any{7})
	require.Equal(t, EnvelopeBroadcast, env.Kind)
	require.Equal(t, WorkerID("a"), env.From)
	require.Equal(t, "news", env.Event)
}

func TestGetWorkersEnvelopes(t *testing.T) {
	req := newGetWorkersReqEnvelope("a", "req-1")
	require.Equal(t, EnvelopeGetWorkersReq, req.Kind)
	require.Equal(t, "req-1", req.RequestID)

	workers := []WorkerInfo{{ID: "a", KeepAlive: true, State: StateOnline}}
	resp := newGetWorkersRespEnvelope("req-1", workers)
	require.Equal(t, EnvelopeGetWorkersResp, resp.Kind)
	require.Equal(t, "req-1", resp.RequestID)
	require.Equal(t, workers, resp.Workers)
}

func TestNewRebootEnvelope(t *testing.T) {
	env := newRebootEnvelope()
	require.Equal(t, EnvelopeReboot, env.Kind)
}
