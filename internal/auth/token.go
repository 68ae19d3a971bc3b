// ABOUTME: Token lookup from env var, explicit file, or the default config location.
// ABOUTME: Credential acquisition stays external; this only finds what was supplied.

package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoToken means no credential could be located anywhere.
var ErrNoToken = errors.New("no gateway token found")

// tokenEnvVar is checked before any file.
const tokenEnvVar = "COVEN_TOKEN"

// LoadToken returns the gateway credential. Priority: explicit value,
// COVEN_TOKEN env var, explicit token file, then
// $XDG_CONFIG_HOME/coven/token (falling back to ~/.config).
func LoadToken(explicit, tokenFile string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if token := os.Getenv(tokenEnvVar); token != "" {
		return token, nil
	}

	if tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			return "", fmt.Errorf("reading token file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	path := defaultTokenPath()
	if path == "" {
		return "", ErrNoToken
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ErrNoToken
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// defaultTokenPath returns $XDG_CONFIG_HOME/coven/token or ~/.config/coven/token.
func defaultTokenPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "coven", "token")
}
