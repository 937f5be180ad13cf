package names

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsLifecycle(t *testing.T) {
	cases := []struct {
		event string
		want  bool
	}{
		{"online", true},
		{"error", true},
		{"exit", true},
		{"tick", false},
		{"", false},
		{"Online", false},
	}

	for _, c := range cases {
		require.Equal(t, c.want, IsLifecycle(c.event), "event=%q", c.event)
	}
}
