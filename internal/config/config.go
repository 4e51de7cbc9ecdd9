// Package config loads, watches, and validates the emberview configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/emberhost/emberview/internal/domain/entity"
)

const (
	appName        = "emberview"
	configFileName = "config"
	configFileType = "toml"

	dirPerm  = 0o750
	filePerm = 0o644
)

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// WindowConfig describes the host window.
type WindowConfig struct {
	Title  string `mapstructure:"title" json:"title"`
	Width  int    `mapstructure:"width" json:"width"`
	Height int    `mapstructure:"height" json:"height"`
}

// BoundsConfig tunes content-area tracking.
type BoundsConfig struct {
	// DebounceMS coalesces resize bursts before bounds are republished.
	DebounceMS int `mapstructure:"debounce_ms" json:"debounce_ms"`
}

// JournalConfig controls the transition journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" json:"path"`
	// RetainPerApp caps how many transitions are kept per app id.
	RetainPerApp int `mapstructure:"retain_per_app" json:"retain_per_app"`
}

// AppEntry is one [apps.<id>] table in the config file.
type AppEntry struct {
	Name         string                 `mapstructure:"name" json:"name"`
	URL          string                 `mapstructure:"url" json:"url"`
	Icon         string                 `mapstructure:"icon" json:"icon,omitempty"`
	FallbackURLs []string               `mapstructure:"fallback_urls" json:"fallback_urls,omitempty"`
	Sandbox      entity.SandboxPolicy   `mapstructure:"sandbox" json:"sandbox"`
	Loading      entity.LoadingBehavior `mapstructure:"loading" json:"loading"`
	Links        entity.LinkPolicy      `mapstructure:"links" json:"links"`
	Hints        entity.UIHints         `mapstructure:"hints" json:"hints"`
}

// AppConfig converts the entry into the domain config for the given id.
func (e AppEntry) AppConfig(id string) entity.AppConfig {
	return entity.AppConfig{
		ID:           id,
		Name:         e.Name,
		URL:          e.URL,
		Icon:         e.Icon,
		FallbackURLs: e.FallbackURLs,
		Sandbox:      e.Sandbox,
		Loading:      e.Loading,
		Links:        e.Links,
		Hints:        e.Hints,
	}
}

// Config is the whole configuration tree.
type Config struct {
	Logging LoggingConfig       `mapstructure:"logging" json:"logging"`
	Window  WindowConfig        `mapstructure:"window" json:"window"`
	Bounds  BoundsConfig        `mapstructure:"bounds" json:"bounds"`
	Journal JournalConfig       `mapstructure:"journal" json:"journal"`
	Apps    map[string]AppEntry `mapstructure:"apps" json:"apps"`
}

// AppConfigs returns the configured apps as domain configs, sorted by id.
func (c *Config) AppConfigs() []entity.AppConfig {
	ids := make([]string, 0, len(c.Apps))
	for id := range c.Apps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]entity.AppConfig, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.Apps[id].AppConfig(id))
	}
	return out
}

func validateConfig(cfg *Config) error {
	switch cfg.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config: logging.format must be json or console, got %q", cfg.Logging.Format)
	}
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		return fmt.Errorf("config: window dimensions must be positive")
	}
	if cfg.Bounds.DebounceMS < 0 {
		return fmt.Errorf("config: bounds.debounce_ms must not be negative")
	}
	for id, app := range cfg.Apps {
		if err := app.AppConfig(id).Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// GetConfigDir returns the directory holding config.toml.
func GetConfigDir() (string, error) {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// GetDataDir returns the directory for mutable data such as the journal.
func GetDataDir() (string, error) {
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// EnsureDirectories creates the config and data directories.
func EnsureDirectories() error {
	for _, get := range []func() (string, error){GetConfigDir, GetDataDir} {
		dir, err := get()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("config: creating %s: %w", dir, err)
		}
	}
	return nil
}
