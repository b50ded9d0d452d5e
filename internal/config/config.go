// Package config loads and manages wave configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (WAVE_SESSION_DIR, WAVE_RETENTION_DAYS, WAVE_DEBUG)
// 2. ~/.config/wave/config.yaml
// 3. Built-in defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/wavehq/wave/internal/errors"
	"github.com/wavehq/wave/internal/retention"
)

// Config holds the settings the storage engine consumes.
type Config struct {
	// SessionDir overrides the session base directory. Empty selects the
	// default under the user's home.
	SessionDir string `yaml:"session_dir"`

	// RetentionDays is the cleanup age threshold.
	RetentionDays int `yaml:"retention_days"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`
}

// DefaultPath returns the config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "wave", "config.yaml"), nil
}

func defaults() *Config {
	return &Config{
		RetentionDays: retention.DefaultThresholdDays,
	}
}

// Load reads the config file if present, applies environment overrides,
// and validates the result. A missing file is not an error.
func Load() (*Config, error) {
	cfg := defaults()

	path, err := DefaultPath()
	if err == nil {
		if data, readErr := os.ReadFile(path); readErr == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.ConfigLoadFailed(path, err)
			}
		} else if !os.IsNotExist(readErr) {
			return nil, errors.ConfigLoadFailed(path, readErr)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if dir := os.Getenv("WAVE_SESSION_DIR"); dir != "" {
		cfg.SessionDir = dir
	}
	if days := os.Getenv("WAVE_RETENTION_DAYS"); days != "" {
		if n, err := strconv.Atoi(days); err == nil {
			cfg.RetentionDays = n
		}
	}
	if debug := os.Getenv("WAVE_DEBUG"); debug != "" {
		if b, err := strconv.ParseBool(debug); err == nil {
			cfg.Debug = b
		}
	}
}

// Validate checks the config for unusable values.
func (c *Config) Validate() error {
	if c.RetentionDays < 0 {
		return errors.ConfigInvalid("retention_days cannot be negative")
	}
	return nil
}

// Save writes the config to its default location.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return errors.ConfigSaveFailed("", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.ConfigSaveFailed(path, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.ConfigSaveFailed(path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.ConfigSaveFailed(path, err)
	}
	return nil
}
