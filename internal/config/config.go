// Package config loads the vcedit YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Layout backends.
const (
	LayoutStyle   = "style"
	LayoutBrowser = "browser"
)

// Config holds all vcedit configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Editor  EditorConfig  `yaml:"editor"`
	Browser BrowserConfig `yaml:"browser"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig controls the HTTP command surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// EditorConfig controls session behaviour.
type EditorConfig struct {
	// Debounce is the quiet period before style edits are committed.
	Debounce time.Duration `yaml:"debounce"`
	// Sanitize cleans loaded documents of scripts and event handlers.
	Sanitize bool `yaml:"sanitize"`
	// Layout selects the geometry backend: "style" or "browser".
	Layout string `yaml:"layout"`
}

// BrowserConfig controls the headless browser used by the browser layout.
type BrowserConfig struct {
	Bin      string        `yaml:"bin"`
	Headless bool          `yaml:"headless"`
	Width    int           `yaml:"width"`
	Height   int           `yaml:"height"`
	Timeout  time.Duration `yaml:"timeout"`
}

// WatchConfig controls reloading the document when its file changes.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: "127.0.0.1:8087", ShutdownTimeout: 5 * time.Second},
		Log:     LogConfig{Level: "info"},
		Editor:  EditorConfig{Debounce: 150 * time.Millisecond, Layout: LayoutStyle},
		Browser: BrowserConfig{Headless: true, Width: 1280, Height: 800, Timeout: 10 * time.Second},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server.addr is required")
	case c.Editor.Debounce < 0:
		return fmt.Errorf("editor.debounce must not be negative, got %s", c.Editor.Debounce)
	case c.Editor.Layout != LayoutStyle && c.Editor.Layout != LayoutBrowser:
		return fmt.Errorf("editor.layout must be %q or %q, got %q", LayoutStyle, LayoutBrowser, c.Editor.Layout)
	case c.Browser.Width <= 0 || c.Browser.Height <= 0:
		return fmt.Errorf("browser viewport must be positive, got %dx%d", c.Browser.Width, c.Browser.Height)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}
