package router

import (
	"testing"

	"github.com/arloliu/flock/types"
	"github.com/stretchr/testify/require"
)

func TestClassifyFromChild(t *testing.T) {
	cases := []struct {
		kind types.EnvelopeKind
		want Action
	}{
		{types.EnvelopeTransmit, ActionTransmit},
		{types.EnvelopeBroadcast, ActionBroadcast},
		{types.EnvelopeGetWorkersReq, ActionGetWorkersReq},
		{types.EnvelopeUser, ActionUserEvent},
		{types.EnvelopeOnline, ActionIgnore},
		{types.EnvelopeGetWorkersResp, ActionIgnore},
		{types.EnvelopeReboot, ActionIgnore},
	}

	for _, c := range cases {
		got := ClassifyFromChild(types.Envelope{Kind: c.kind})
		require.Equal(t, c.want, got, "kind=%v", c.kind)
	}
}

func TestClassifyFromMaster(t *testing.T) {
	cases := []struct {
		kind types.EnvelopeKind
		want Action
	}{
		{types.EnvelopeUser, ActionUserEvent},
		{types.EnvelopeOnline, ActionOnline},
		{types.EnvelopeGetWorkersResp, ActionGetWorkersResp},
		{types.EnvelopeReboot, ActionReboot},
		{types.EnvelopeTransmit, ActionIgnore},
		{types.EnvelopeBroadcast, ActionIgnore},
		{types.EnvelopeGetWorkersReq, ActionIgnore},
	}

	for _, c := range cases {
		got := ClassifyFromMaster(types.Envelope{Kind: c.kind})
		require.Equal(t, c.want, got, "kind=%v", c.kind)
	}
}
