// Package config handles XDG configuration directory and file paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	// AppName is the application directory name.
	AppName = "tasksync"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// AccountsDBFile is the SQLite database holding linked accounts.
	AccountsDBFile = "accounts.db"

	// SettingsFile is the user settings filename.
	SettingsFile = "config.toml"

	// DefaultListenAddr is where the local API listens unless configured.
	DefaultListenAddr = "127.0.0.1:7410"

	// DefaultAPITimeout bounds each remote call unless configured.
	DefaultAPITimeout = 30 * time.Second
)

// Settings is the content of config.toml.
type Settings struct {
	// DefaultAccount is the email of the account used when none is named.
	DefaultAccount string `toml:"default_account"`

	// Timezone is an IANA zone name for date resolution. Empty means local.
	Timezone string `toml:"timezone"`

	// APITimeout is a Go duration string such as "30s". "0" disables it.
	APITimeout string `toml:"api_timeout"`

	// ListenAddr is the address of the local JSON API.
	ListenAddr string `toml:"listen_addr"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings is loaded from config.toml by LoadSettings.
	Settings Settings
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/tasksync or $HOME/.config/tasksync.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir, Settings: DefaultSettings()}, nil
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

// DefaultSettings returns the settings written on first use.
func DefaultSettings() Settings {
	return Settings{
		APITimeout: DefaultAPITimeout.String(),
		ListenAddr: DefaultListenAddr,
	}
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// AccountsDBPath returns the path to the accounts database.
func (c *Config) AccountsDBPath() string {
	return filepath.Join(c.Dir, AccountsDBFile)
}

// SettingsPath returns the path to config.toml.
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

// LoadSettings reads config.toml, writing the defaults when it is missing.
func (c *Config) LoadSettings() error {
	c.Settings = DefaultSettings()

	path := c.SettingsPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := c.EnsureDir(); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		return c.SaveSettings()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}
	if err := toml.Unmarshal(data, &c.Settings); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	if c.Settings.ListenAddr == "" {
		c.Settings.ListenAddr = DefaultListenAddr
	}
	return nil
}

// SaveSettings writes the current settings to config.toml.
func (c *Config) SaveSettings() error {
	data, err := toml.Marshal(c.Settings)
	if err != nil {
		return err
	}
	return os.WriteFile(c.SettingsPath(), data, 0600)
}

// Location returns the zone configured for date resolution.
func (s Settings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// Timeout returns the per-call API timeout.
func (s Settings) Timeout() (time.Duration, error) {
	if s.APITimeout == "" {
		return DefaultAPITimeout, nil
	}
	d, err := time.ParseDuration(s.APITimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid api_timeout %q: %w", s.APITimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid api_timeout %q: negative", s.APITimeout)
	}
	return d, nil
}
