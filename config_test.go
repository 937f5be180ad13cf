package flock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 10*time.Second, cfg.OnlineTimeout)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 5*time.Second, cfg.GetWorkersTimeout)
	require.Equal(t, 100*time.Millisecond, cfg.RespawnBackoffMin)
	require.Equal(t, 30*time.Second, cfg.RespawnBackoffMax)
	require.Equal(t, 60*time.Second, cfg.RespawnResetWindow)
}

func TestSetDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		require.Equal(t, 10*time.Second, cfg.OnlineTimeout)
		require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
		require.Equal(t, 5*time.Second, cfg.GetWorkersTimeout)
		require.Equal(t, 100*time.Millisecond, cfg.RespawnBackoffMin)
		require.Equal(t, 30*time.Second, cfg.RespawnBackoffMax)
		require.Equal(t, 60*time.Second, cfg.RespawnResetWindow)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			OnlineTimeout:      20 * time.Second,
			ShutdownTimeout:    20 * time.Second,
			GetWorkersTimeout:  15 * time.Second,
			RespawnBackoffMin:  200 * time.Millisecond,
			RespawnBackoffMax:  60 * time.Second,
			RespawnResetWindow: 90 * time.Second,
		}
		SetDefaults(&cfg)

		require.Equal(t, 20*time.Second, cfg.OnlineTimeout)
		require.Equal(t, 20*time.Second, cfg.ShutdownTimeout)
		require.Equal(t, 15*time.Second, cfg.GetWorkersTimeout)
		require.Equal(t, 200*time.Millisecond, cfg.RespawnBackoffMin)
		require.Equal(t, 60*time.Second, cfg.RespawnBackoffMax)
		require.Equal(t, 90*time.Second, cfg.RespawnResetWindow)
	})

	t.Run("applies partial defaults", func(t *testing.T) {
		cfg := Config{
			OnlineTimeout: 15 * time.Second,
		}
		SetDefaults(&cfg)

		require.Equal(t, 15*time.Second, cfg.OnlineTimeout)
		require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
		require.Equal(t, 5*time.Second, cfg.GetWorkersTimeout)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid default config", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("rejects non-positive timeouts", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OnlineTimeout = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects backoff max below min", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RespawnBackoffMin = time.Second
		cfg.RespawnBackoffMax = 500 * time.Millisecond
		require.Error(t, cfg.Validate())
	})
}

func TestConfig_YAML(t *testing.T) {
	yamlConfig := `
onlineTimeout: 15s
shutdownTimeout: 15s
getWorkersTimeout: 8s
respawnBackoffMin: 200ms
respawnBackoffMax: 45s
respawnResetWindow: 90s
`

	var cfg Config
	err := yaml.Unmarshal([]byte(yamlConfig), &cfg)
	require.NoError(t, err)

	require.Equal(t, 15*time.Second, cfg.OnlineTimeout)
	require.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 8*time.Second, cfg.GetWorkersTimeout)
	require.Equal(t, 200*time.Millisecond, cfg.RespawnBackoffMin)
	require.Equal(t, 45*time.Second, cfg.RespawnBackoffMax)
	require.Equal(t, 90*time.Second, cfg.RespawnResetWindow)
}

func TestConfig_DefaultsWithPartialYAML(t *testing.T) {
	yamlConfig := `
onlineTimeout: 20s
`

	var cfg Config
	err := yaml.Unmarshal([]byte(yamlConfig), &cfg)
	require.NoError(t, err)

	SetDefaults(&cfg)

	require.Equal(t, 20*time.Second, cfg.OnlineTimeout)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 5*time.Second, cfg.GetWorkersTimeout)
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	require.NoError(t, cfg.Validate())
	require.Less(t, cfg.OnlineTimeout, DefaultConfig().OnlineTimeout)
	require.Less(t, cfg.RespawnBackoffMax, DefaultConfig().RespawnBackoffMax)
}
