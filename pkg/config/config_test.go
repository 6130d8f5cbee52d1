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

	assert.Equal(t, []string{"localhost:9042"}, cfg.Scylla.Hosts)
	assert.Equal(t, "guestline", cfg.Scylla.Keyspace)
	assert.Equal(t, "chat-commands", cfg.Kafka.CommandsTopic)
	assert.Equal(t, "chat-changes", cfg.Kafka.ChangesTopic)
	assert.Equal(t, ":8080", cfg.Gateway.Addr)
	assert.Equal(t, ":8081", cfg.API.Addr)
	assert.Equal(t, 30*time.Second, cfg.Presence.HeartbeatInterval)
	assert.Equal(t, 2*time.Minute, cfg.Presence.OnlineWindow)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scylla:
  keyspace: chat_test
kafka:
  brokers: ["broker-1:9092", "broker-2:9092"]
presence:
  online_window: 5m
auth:
  admin_username: operator
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "chat_test", cfg.Scylla.Keyspace)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.Presence.OnlineWindow)
	assert.Equal(t, "operator", cfg.Auth.AdminUsername)

	// Untouched sections keep their defaults.
	assert.Equal(t, "chat-commands", cfg.Kafka.CommandsTopic)
	assert.Equal(t, 30*time.Second, cfg.Presence.HeartbeatInterval)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GUESTLINE_SCYLLA_KEYSPACE", "from_env")
	t.Setenv("GUESTLINE_REDIS_ADDR", "redis-host:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Scylla.Keyspace)
	assert.Equal(t, "redis-host:6379", cfg.Redis.Addr)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scylla: [not: valid"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
