// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8000", cfg.ServerURL)
	assert.Equal(t, "lobby1", cfg.LobbyID)
	assert.Equal(t, 10*time.Second, cfg.Session.DialTimeout)
	assert.Equal(t, 5*time.Second, cfg.Session.WriteTimeout)
	assert.Equal(t, time.Duration(0), cfg.Session.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Session.PingInterval)
	assert.Equal(t, 64, cfg.Session.EventBuffer)
	assert.Equal(t, int64(1<<20), cfg.Session.MaxFrameSize)
	assert.Empty(t, cfg.Audit.RedisAddr)
	assert.Equal(t, "ratscrew_audit", cfg.Audit.List)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RATSCREW_SERVER_URL", "ws://game.example:9000")
	t.Setenv("RATSCREW_LOBBY", "L1")
	t.Setenv("RATSCREW_PLAYER", "Alice")
	t.Setenv("RATSCREW_READ_TIMEOUT", "90s")
	t.Setenv("AUDIT_REDIS_ADDR", "localhost:6379")
	t.Setenv("RATSCREW_MAX_FRAME_SIZE", "4194304")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ws://game.example:9000", cfg.ServerURL)
	assert.Equal(t, "L1", cfg.LobbyID)
	assert.Equal(t, "Alice", cfg.PlayerName)
	assert.Equal(t, 90*time.Second, cfg.Session.ReadTimeout)
	assert.Equal(t, "localhost:6379", cfg.Audit.RedisAddr)
	assert.Equal(t, int64(4<<20), cfg.Session.MaxFrameSize)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
server-url: ws://yaml.example:8000
lobby-id: yaml-lobby
session:
  dial-timeout: 3s
  ping-interval: 15s
bot:
  slap-chance: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://yaml.example:8000", cfg.ServerURL)
	assert.Equal(t, "yaml-lobby", cfg.LobbyID)
	assert.Equal(t, 3*time.Second, cfg.Session.DialTimeout)
	assert.Equal(t, 15*time.Second, cfg.Session.PingInterval)
	assert.Equal(t, 0.25, cfg.Bot.SlapChance)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Session.EventBuffer = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Session.MaxFrameSize = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Bot.SlapChance = 1.5
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Session.DialTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Bot.MinDelay = time.Second
	cfg.Bot.MaxDelay = time.Millisecond
	assert.Error(t, cfg.Validate())
}
