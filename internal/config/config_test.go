package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.Fetch {
		t.Error("default fetch should be true")
	}
	if cfg.FetchTimeout.Duration != 15*time.Second {
		t.Errorf("default fetch_timeout = %s, want 15s", cfg.FetchTimeout)
	}
	if cfg.CacheTTL.Duration != 24*time.Hour {
		t.Errorf("default cache_ttl = %s, want 24h", cfg.CacheTTL)
	}
	if !cfg.History || cfg.HistoryLimit != 500 {
		t.Errorf("default history = %v/%d", cfg.History, cfg.HistoryLimit)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("default listen = %q", cfg.Listen)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"negative width", func(c *Config) { c.Width = -1 }, true},
		{"negative height", func(c *Config) { c.Height = -5 }, true},
		{"zero timeout", func(c *Config) { c.FetchTimeout = Duration{} }, true},
		{"negative rate", func(c *Config) { c.FetchRate = -1 }, true},
		{"negative ttl", func(c *Config) { c.CacheTTL = Duration{-time.Second} }, true},
		{"negative history limit", func(c *Config) { c.HistoryLimit = -1 }, true},
		{"empty listen", func(c *Config) { c.Listen = "" }, true},
		{"empty param name", func(c *Config) { c.Params = map[string]string{" ": "x"} }, true},
		{"custom size", func(c *Config) { c.Width, c.Height = 640, 480 }, false},
		{"unlimited rate", func(c *Config) { c.FetchRate = 0 }, false},
		{"no ttl", func(c *Config) { c.CacheTTL = Duration{} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "autoembed")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFromTOML(t *testing.T) {
	writeConfig(t, `
width = 640
height = 480
fetch = false
fetch_timeout = "5s"
fetch_rate = 0.5
cache_ttl = "1h30m"
history = false
listen = ":9000"
providers_file = "/etc/autoembed/providers.toml"

[params]
wmode = "transparent"
autoplay = "true"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if cfg.Fetch {
		t.Error("fetch should be false")
	}
	if cfg.FetchTimeout.Duration != 5*time.Second {
		t.Errorf("fetch_timeout = %s", cfg.FetchTimeout)
	}
	if cfg.FetchRate != 0.5 {
		t.Errorf("fetch_rate = %g", cfg.FetchRate)
	}
	if cfg.CacheTTL.Duration != 90*time.Minute {
		t.Errorf("cache_ttl = %s", cfg.CacheTTL)
	}
	if cfg.History {
		t.Error("history should be false")
	}
	if cfg.Listen != ":9000" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.Params["wmode"] != "transparent" || cfg.Params["autoplay"] != "true" {
		t.Errorf("params = %v", cfg.Params)
	}
	// Unset keys keep their defaults.
	if !cfg.Cache || !cfg.Sanitize {
		t.Error("cache and sanitize should keep their defaults")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad duration", `fetch_timeout = "soon"`, "parsing config"},
		{"unknown key", `player = "mpv"`, "unknown key"},
		{"invalid value", `width = -3`, "invalid config"},
		{"bad syntax", `width = `, "parsing config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.content)
			_, err := Load()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("missing file should return defaults, got listen = %q", cfg.Listen)
	}
}

func TestExpandProvidersFile(t *testing.T) {
	cfg := Default()
	if p, err := cfg.ExpandProvidersFile(); err != nil || p != "" {
		t.Errorf("empty providers_file = %q, %v", p, err)
	}

	cfg.ProvidersFile = "/tmp/providers.toml"
	p, err := cfg.ExpandProvidersFile()
	if err != nil {
		t.Fatalf("ExpandProvidersFile() error: %v", err)
	}
	if p != "/tmp/providers.toml" {
		t.Errorf("got %q, want /tmp/providers.toml", p)
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg.ProvidersFile = "~/providers.toml"
	if p, _ := cfg.ExpandProvidersFile(); p != filepath.Join(home, "providers.toml") {
		t.Errorf("got %q", p)
	}
}

func TestDataPaths(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))

	if p, _ := HistoryPath(); p != filepath.Join(tmp, "data", "autoembed", "history.tsv") {
		t.Errorf("HistoryPath = %q", p)
	}
	if p, _ := CachePath(); p != filepath.Join(tmp, "cache", "autoembed", "pages.db") {
		t.Errorf("CachePath = %q", p)
	}
}
