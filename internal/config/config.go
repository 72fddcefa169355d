// Package config handles the XDG configuration directory, file paths and
// user settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskflow"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// SessionFile is the stored session filename.
	SessionFile = "session.json"

	// StoreFile is the local key-value database filename.
	StoreFile = "taskflow.db"

	// SettingsFile is the optional user settings filename.
	SettingsFile = "config.yaml"
)

// Settings are the user-tunable options read from config.yaml.
type Settings struct {
	// APITimeout bounds each remote call.
	APITimeout time.Duration `yaml:"api_timeout"`

	// PageSize is the page size requested when listing tasks.
	PageSize int64 `yaml:"page_size"`

	// Cache enables the read-through cache for the remote backend.
	Cache bool `yaml:"cache"`

	// Calendar mirrors tasks with a start time into Google Calendar.
	Calendar bool `yaml:"calendar"`

	// SessionDays is how long a sign-in stays valid.
	SessionDays int `yaml:"session_days"`
}

// DefaultSettings returns the settings used when config.yaml is absent.
func DefaultSettings() Settings {
	return Settings{
		APITimeout:  10 * time.Second,
		PageSize:    100,
		Cache:       true,
		Calendar:    false,
		SessionDays: 7,
	}
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings are loaded from config.yaml.
	Settings Settings
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskflow or $HOME/.config/taskflow.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir, Settings: DefaultSettings()}
	if err := cfg.LoadSettings(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// LoadSettings overlays config.yaml onto the current settings.
// A missing file is not an error. Zero or negative values fall back to defaults.
func (c *Config) LoadSettings() error {
	data, err := os.ReadFile(c.SettingsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}
	if err := yaml.Unmarshal(data, &c.Settings); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}

	def := DefaultSettings()
	if c.Settings.APITimeout <= 0 {
		c.Settings.APITimeout = def.APITimeout
	}
	if c.Settings.PageSize <= 0 {
		c.Settings.PageSize = def.PageSize
	}
	if c.Settings.SessionDays <= 0 {
		c.Settings.SessionDays = def.SessionDays
	}
	return nil
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// StorePath returns the path to the local database.
func (c *Config) StorePath() string {
	return filepath.Join(c.Dir, StoreFile)
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file. A missing file is not an error.
func (c *Config) RemoveToken() error {
	err := os.Remove(c.TokenPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
