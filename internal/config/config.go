package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration. Values come from TABHOST_*
// environment variables.
type Config struct {
	DataDir      string        `envconfig:"DATA_DIR"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
	Engine       string        `envconfig:"ENGINE" default:"playwright"`
	Headless     bool          `envconfig:"HEADLESS" default:"false"`
	Bridge       bool          `envconfig:"BRIDGE" default:"false"`
	Port         int           `envconfig:"PORT" default:"19292"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("tabhost", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		DataDir:      defaultDataDir(),
		LogLevel:     "info",
		PollInterval: time.Second,
		Engine:       "playwright",
		Port:         19292,
	}
}

// SettingsPath is the per-user settings document.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// DBPath is the session archive database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "tabhost.db")
}

// ProfileDir holds the shared (persistent) engine profile.
func (c *Config) ProfileDir() string {
	return filepath.Join(c.DataDir, "profile")
}

// LogDir is where tabhost.log is written.
func (c *Config) LogDir() string {
	return c.DataDir
}

// DownloadDir is the default download location for fresh settings.
func DownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, "Downloads")
}

// defaultDataDir returns ~/.local/share/tabhost.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tabhost")
	}
	return filepath.Join(home, ".local", "share", "tabhost")
}
