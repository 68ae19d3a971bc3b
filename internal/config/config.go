// ABOUTME: Configuration loading and parsing for the gateway client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	Client    ClientConfig    `yaml:"client"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GatewayConfig holds the gateway endpoint and credential
type GatewayConfig struct {
	// URL is the WebSocket endpoint, e.g. ws://localhost:18789/ws/gateway
	URL string `yaml:"url"`
	// Token is the credential sent during the handshake. Leave empty to
	// load it from COVEN_TOKEN or the token file instead.
	Token string `yaml:"token"`
	// TokenFile overrides the default token file location
	TokenFile string `yaml:"token_file"`

	RequestTimeout   time.Duration `yaml:"-"`
	HandshakeTimeout time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	RequestTimeoutRaw   string `yaml:"request_timeout"`
	HandshakeTimeoutRaw string `yaml:"handshake_timeout"`
}

// ClientConfig identifies this client to the gateway
type ClientConfig struct {
	ID      string   `yaml:"id"`
	Version string   `yaml:"version"`
	Mode    string   `yaml:"mode"`
	Role    string   `yaml:"role"`
	Scopes  []string `yaml:"scopes"`
}

// ReconnectConfig shapes the backoff policy for unexpected disconnects
type ReconnectConfig struct {
	MaxAttempts int `yaml:"max_attempts"`

	Base   time.Duration `yaml:"-"`
	Cap    time.Duration `yaml:"-"`
	RunTTL time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	BaseRaw   string `yaml:"base"`
	CapRaw    string `yaml:"cap"`
	RunTTLRaw string `yaml:"run_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with working defaults, used directly when
// no config file exists.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:              "ws://localhost:18789/ws/gateway",
			RequestTimeout:   30 * time.Second,
			HandshakeTimeout: 10 * time.Second,
		},
		Client: ClientConfig{
			ID:   "coven-connect",
			Mode: "backend",
			Role: "operator",
		},
		Reconnect: ReconnectConfig{
			MaxAttempts: 10,
			Base:        time.Second,
			Cap:         30 * time.Second,
			RunTTL:      30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must not be negative")
	}
	if c.Reconnect.Base < 0 || c.Reconnect.Cap < 0 {
		return fmt.Errorf("reconnect delays must not be negative")
	}
	if c.Reconnect.Cap > 0 && c.Reconnect.Base > c.Reconnect.Cap {
		return fmt.Errorf("reconnect.base must not exceed reconnect.cap")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{cfg.Gateway.RequestTimeoutRaw, "request_timeout", &cfg.Gateway.RequestTimeout},
		{cfg.Gateway.HandshakeTimeoutRaw, "handshake_timeout", &cfg.Gateway.HandshakeTimeout},
		{cfg.Reconnect.BaseRaw, "reconnect.base", &cfg.Reconnect.Base},
		{cfg.Reconnect.CapRaw, "reconnect.cap", &cfg.Reconnect.Cap},
		{cfg.Reconnect.RunTTLRaw, "reconnect.run_ttl", &cfg.Reconnect.RunTTL},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
