// Package config provides configuration loading and structs for the kagami viewer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Render  RenderConfig  `yaml:"render"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Watch   WatchConfig   `yaml:"watch"`
	About   AboutConfig   `yaml:"about"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the path of the preferences database.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// RenderConfig holds markdown and code highlighting settings.
type RenderConfig struct {
	HardWraps   *bool  `yaml:"hard_wraps"`
	UnsafeHTML  bool   `yaml:"unsafe_html"`
	DarkStyle   string `yaml:"dark_style"`
	LightStyle  string `yaml:"light_style"`
	LineNumbers bool   `yaml:"line_numbers"`
}

// HardWrapsOrDefault returns whether single newlines become <br>; defaults to true when unset.
func (r *RenderConfig) HardWrapsOrDefault() bool {
	if r.HardWraps != nil {
		return *r.HardWraps
	}
	return true
}

// ViewerConfig holds view state defaults and search behavior.
type ViewerConfig struct {
	DefaultTheme    string `yaml:"default_theme"`
	KeepQueryOnOpen bool   `yaml:"keep_query_on_open"`
}

// WatchConfig holds reload-on-change settings for the opened file.
type WatchConfig struct {
	Enabled    *bool `yaml:"enabled"`
	DebounceMS int   `yaml:"debounce_ms"`
}

// EnabledOrDefault returns whether the opened file is watched; defaults to true when unset.
func (w *WatchConfig) EnabledOrDefault() bool {
	if w.Enabled != nil {
		return *w.Enabled
	}
	return true
}

// Debounce returns the debounce interval as a duration.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// AboutConfig holds what the about dialog shows.
type AboutConfig struct {
	Name   string `yaml:"name"`
	Author string `yaml:"author"`
	URL    string `yaml:"url"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	return &cfg, nil
}

// Default returns a config with every default applied and paths expanded against
// the home directory. Used when no config file exists.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, ".")
	return &cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
