// ABOUTME: Tests for token lookup priority across explicit value, env and files.

package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadToken_ExplicitWins(t *testing.T) {
	t.Setenv(tokenEnvVar, "env-token")

	token, err := LoadToken("explicit-token", "")
	require.NoError(t, err)
	assert.Equal(t, "explicit-token", token)
}

func TestLoadToken_EnvBeforeFile(t *testing.T) {
	t.Setenv(tokenEnvVar, "env-token")

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("file-token"), 0o600))

	token, err := LoadToken("", path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", token)
}

func TestLoadToken_ExplicitFile(t *testing.T) {
	t.Setenv(tokenEnvVar, "")

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  file-token\n"), 0o600))

	token, err := LoadToken("", path)
	require.NoError(t, err)
	assert.Equal(t, "file-token", token, "file contents are trimmed")
}

func TestLoadToken_ExplicitFileMissing(t *testing.T) {
	t.Setenv(tokenEnvVar, "")

	_, err := LoadToken("", filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadToken_DefaultLocation(t *testing.T) {
	t.Setenv(tokenEnvVar, "")
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	require.NoError(t, os.MkdirAll(filepath.Join(configDir, "coven"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "coven", "token"), []byte("default-token\n"), 0o600))

	token, err := LoadToken("", "")
	require.NoError(t, err)
	assert.Equal(t, "default-token", token)
}

func TestLoadToken_NothingFound(t *testing.T) {
	t.Setenv(tokenEnvVar, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := LoadToken("", "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestLoadToken_EmptyDefaultFileIsNoToken(t *testing.T) {
	t.Setenv(tokenEnvVar, "")
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	require.NoError(t, os.MkdirAll(filepath.Join(configDir, "coven"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "coven", "token"), []byte("  \n"), 0o600))

	_, err := LoadToken("", "")
	assert.ErrorIs(t, err, ErrNoToken)
}
