// ABOUTME: Tests for config loading: YAML parsing, env expansion, durations
// ABOUTME: and validation failures

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
gateway:
  url: wss://gateway.example.com/ws/gateway
  token: secret-token
  request_timeout: 45s
  handshake_timeout: 5s
client:
  id: my-client
  version: 1.2.3
  mode: ui
  role: operator
  scopes:
    - chat
    - sessions
reconnect:
  max_attempts: 3
  base: 500ms
  cap: 10s
  run_ttl: 15m
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wss://gateway.example.com/ws/gateway", cfg.Gateway.URL)
	assert.Equal(t, "secret-token", cfg.Gateway.Token)
	assert.Equal(t, 45*time.Second, cfg.Gateway.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Gateway.HandshakeTimeout)

	assert.Equal(t, "my-client", cfg.Client.ID)
	assert.Equal(t, []string{"chat", "sessions"}, cfg.Client.Scopes)

	assert.Equal(t, 3, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Reconnect.Base)
	assert.Equal(t, 10*time.Second, cfg.Reconnect.Cap)
	assert.Equal(t, 15*time.Minute, cfg.Reconnect.RunTTL)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  url: ws://127.0.0.1:9999/ws/gateway
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://127.0.0.1:9999/ws/gateway", cfg.Gateway.URL)
	assert.Equal(t, 30*time.Second, cfg.Gateway.RequestTimeout)
	assert.Equal(t, 10, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Reconnect.Base)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_GATEWAY_TOKEN", "from-env")
	path := writeConfig(t, `
gateway:
  url: ws://localhost:18789/ws/gateway
  token: ${TEST_GATEWAY_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Gateway.Token)
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	path := writeConfig(t, `
gateway:
  url: ws://localhost:18789/ws/gateway
  token: ${DEFINITELY_NOT_SET_ANYWHERE_42}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Gateway.Token)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
gateway:
  url: ws://localhost:18789/ws/gateway
  request_timeout: quickly
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request_timeout")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "gateway: [not: a: mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Gateway.URL = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Reconnect.MaxAttempts = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Reconnect.Base = time.Minute
	cfg.Reconnect.Cap = time.Second
	assert.Error(t, cfg.Validate())
}
