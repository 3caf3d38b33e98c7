// Package config loads shoplist settings.
//
// Sources, lowest to highest priority: built-in defaults, a TOML file
// (with ${VAR} expansion), then SHOPLIST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config is the complete shoplist configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Mediator MediatorConfig `toml:"mediator"`
	Logging  LoggingConfig  `toml:"logging"`
	UI       UIConfig       `toml:"ui"`
}

// DatabaseConfig holds the item store location.
type DatabaseConfig struct {
	Path string `toml:"path" env:"SHOPLIST_DB"`
}

// MediatorConfig sizes the background worker pool.
type MediatorConfig struct {
	Workers   int `toml:"workers" env:"SHOPLIST_WORKERS"`
	QueueSize int `toml:"queue_size" env:"SHOPLIST_QUEUE_SIZE"`
}

// LoggingConfig holds logging configuration. An empty File discards logs.
type LoggingConfig struct {
	Level string `toml:"level" env:"SHOPLIST_LOG_LEVEL"`
	File  string `toml:"file" env:"SHOPLIST_LOG_FILE"`
}

// UIConfig holds terminal output settings.
type UIConfig struct {
	Theme string `toml:"theme" env:"SHOPLIST_THEME"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: filepath.Join(DataDir(), "shoplist.db")},
		Mediator: MediatorConfig{Workers: 2, QueueSize: 64},
		Logging:  LoggingConfig{Level: "info"},
		UI:       UIConfig{Theme: "classic"},
	}
}

// Path returns the config file to read.
// Priority: flag value > SHOPLIST_CONFIG > XDG_CONFIG_HOME/shoplist/config.toml > ~/.config/shoplist/config.toml
// explicit is false only for the XDG fallback, which may be absent.
func Path(flagValue string) (path string, explicit bool) {
	if flagValue != "" {
		return flagValue, true
	}
	if envPath := os.Getenv("SHOPLIST_CONFIG"); envPath != "" {
		return envPath, true
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml", false
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "shoplist", "config.toml"), false
}

// DataDir returns the shoplist data directory.
// Priority: XDG_DATA_HOME/shoplist > ~/.local/share/shoplist
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "shoplist")
}

// Load reads the file at path over the defaults and applies environment
// overrides. A missing file is an error only when required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(expandEnvVars(string(data)), cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that required config fields are present and valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Mediator.Workers < 1 {
		return fmt.Errorf("mediator.workers must be at least 1, got %d", c.Mediator.Workers)
	}
	if c.Mediator.QueueSize < 1 {
		return fmt.Errorf("mediator.queue_size must be at least 1, got %d", c.Mediator.QueueSize)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.UI.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("ui.theme %q is not one of classic, neon, mono", c.UI.Theme)
	}
	return nil
}
