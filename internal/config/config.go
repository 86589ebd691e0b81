// Package config handles TOML-based configuration loading and validation.
// TOML is parsed as data only; nothing in the file is ever executed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "autoembed"

// Duration is a time.Duration written as "30s", "24h" and the like.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds all application configuration.
type Config struct {
	Width         int               `toml:"width"`  // 0 keeps the provider's width
	Height        int               `toml:"height"` // 0 keeps the provider's height
	Params        map[string]string `toml:"params"` // <param> overrides applied to every embed
	ProvidersFile string            `toml:"providers_file"`
	Fetch         bool              `toml:"fetch"`
	FetchTimeout  Duration          `toml:"fetch_timeout"`
	FetchRate     float64           `toml:"fetch_rate"` // requests per second, 0 for unlimited
	UserAgent     string            `toml:"user_agent"`
	Cache         bool              `toml:"cache"`
	CacheTTL      Duration          `toml:"cache_ttl"`
	History       bool              `toml:"history"`
	HistoryLimit  int               `toml:"history_limit"`
	Sanitize      bool              `toml:"sanitize"`
	Listen        string            `toml:"listen"`
	Debug         bool              `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Fetch:        true,
		FetchTimeout: Duration{15 * time.Second},
		FetchRate:    2,
		Cache:        true,
		CacheTTL:     Duration{24 * time.Hour},
		History:      true,
		HistoryLimit: 500,
		Sanitize:     true,
		Listen:       "127.0.0.1:8080",
		Debug:        false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path and merges with defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("invalid embed size %dx%d", c.Width, c.Height)
	}
	if c.FetchTimeout.Duration <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.FetchRate < 0 {
		return fmt.Errorf("fetch_rate cannot be negative, got %g", c.FetchRate)
	}
	if c.CacheTTL.Duration < 0 {
		return fmt.Errorf("cache_ttl cannot be negative, got %s", c.CacheTTL)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit cannot be negative, got %d", c.HistoryLimit)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	for name := range c.Params {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("param names cannot be empty")
		}
	}
	return nil
}

// ExpandProvidersFile resolves ~ in the providers file path. An empty path
// stays empty.
func (c *Config) ExpandProvidersFile() (string, error) {
	path := c.ProvidersFile
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}

// dataDir returns $XDG_<env> or the given fallback under the home directory.
func dataDir(env string, fallback ...string) (string, error) {
	dir := os.Getenv(env)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(append([]string{home}, fallback...)...)
	}
	return filepath.Join(dir, appName), nil
}

// HistoryPath returns the path to the history file.
func HistoryPath() (string, error) {
	dir, err := dataDir("XDG_DATA_HOME", ".local", "share")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.tsv"), nil
}

// CachePath returns the path to the page cache database.
func CachePath() (string, error) {
	dir, err := dataDir("XDG_CACHE_HOME", ".cache")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pages.db"), nil
}
