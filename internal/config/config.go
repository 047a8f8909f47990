// Package config loads client settings: defaults, then an optional YAML
// file, then COURTSIDE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const appDirName = "courtside"

// Config is the full client configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Notify    NotifyConfig    `yaml:"notify"`
	Log       LogConfig       `yaml:"log"`
	StateDir  string          `yaml:"state_dir" env:"COURTSIDE_STATE_DIR"`
}

// APIConfig locates the backend.
type APIConfig struct {
	URL   string `yaml:"url" env:"COURTSIDE_API_URL"`
	Token string `yaml:"token" env:"COURTSIDE_TOKEN"`
}

// ReconnectConfig bounds automatic socket reconnection.
type ReconnectConfig struct {
	Attempts int           `yaml:"attempts" env:"COURTSIDE_RECONNECT_ATTEMPTS"`
	Delay    time.Duration `yaml:"delay" env:"COURTSIDE_RECONNECT_DELAY"`
}

// NotifyConfig controls the unread-count poller.
type NotifyConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"COURTSIDE_POLL_INTERVAL"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level" env:"COURTSIDE_LOG_LEVEL"`
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL: "http://localhost:3000",
		},
		Reconnect: ReconnectConfig{
			Attempts: 5,
			Delay:    time.Second,
		},
		Notify: NotifyConfig{
			PollInterval: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		StateDir: DefaultStateDir(),
	}
}

// Load builds the configuration. path may be empty or point at a file that
// does not exist; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("api url %q is not an absolute url", c.API.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api url %q must use http or https", c.API.URL)
	}
	if c.Reconnect.Attempts < 0 {
		return fmt.Errorf("reconnect attempts must not be negative, got %d", c.Reconnect.Attempts)
	}
	if c.Reconnect.Delay <= 0 {
		return fmt.Errorf("reconnect delay must be positive, got %s", c.Reconnect.Delay)
	}
	if c.Notify.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Notify.PollInterval)
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/courtside/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDirName, "config.yaml")
}

// DefaultStateDir is $XDG_STATE_HOME/courtside, falling back to
// ~/.local/state/courtside.
func DefaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
