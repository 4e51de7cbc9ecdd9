package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// defaultConfigTemplate is written when no config file exists yet.
const defaultConfigTemplate = `# emberview configuration
# Apps are declared as [apps.<id>] tables, for example:
#
# [apps.notes]
# name = "Notes"
# url = "https://notes.example.com"
# fallback_urls = ["https://notes-mirror.example.com"]

[logging]
level = "info"
format = "console"

[window]
title = "emberview"
width = 1280
height = 800
`

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	viper *viper.Viper

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a configuration manager. With no explicit paths it
// looks in the XDG config directory and the current directory; tests pass
// their own directory.
func NewManager(paths ...string) (*Manager, error) {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)

	if len(paths) == 0 {
		configDir, err := GetConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	} else {
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix("EMBERVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("logging.level", "EMBERVIEW_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("config: binding EMBERVIEW_LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("logging.format", "EMBERVIEW_LOG_FORMAT"); err != nil {
		return nil, fmt.Errorf("config: binding EMBERVIEW_LOG_FORMAT: %w", err)
	}

	return &Manager{viper: v}, nil
}

// Load reads the configuration from file and environment variables,
// creating a default config file when none exists.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setDefaults()

	if err := m.readConfigFile(); err != nil {
		return err
	}

	cfg, err := m.unmarshalConfig()
	if err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	m.config = cfg
	return nil
}

// Get returns the loaded configuration. Load must have succeeded first.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *Manager) setDefaults() {
	m.viper.SetDefault("logging.level", "info")
	m.viper.SetDefault("logging.format", "console")
	m.viper.SetDefault("window.title", appName)
	m.viper.SetDefault("window.width", 1280)
	m.viper.SetDefault("window.height", 800)
	m.viper.SetDefault("bounds.debounce_ms", 100)
	m.viper.SetDefault("journal.enabled", true)
	m.viper.SetDefault("journal.retain_per_app", 500)
}

func (m *Manager) readConfigFile() error {
	err := m.viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		configFile := m.viper.ConfigFileUsed()
		return fmt.Errorf("config: reading %s: %w", configFile, err)
	}

	if createErr := m.createDefaultConfig(); createErr != nil {
		return fmt.Errorf("config: creating default config: %w", createErr)
	}
	if rereadErr := m.viper.ReadInConfig(); rereadErr != nil {
		return fmt.Errorf("config: reading newly created config: %w", rereadErr)
	}
	return nil
}

func (m *Manager) createDefaultConfig() error {
	if err := EnsureDirectories(); err != nil {
		return err
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(configDir, configFileName+"."+configFileType)
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), filePerm); err != nil {
		return err
	}
	// The schema file sits next to the config for editor completion.
	if err := GenerateSchemaFile(configDir); err != nil {
		return err
	}
	return nil
}

func (m *Manager) unmarshalConfig() (*Config, error) {
	cfg := &Config{}
	if err := m.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", m.viper.ConfigFileUsed(), err)
	}
	if cfg.Journal.Path == "" {
		dataDir, err := GetDataDir()
		if err != nil {
			return nil, err
		}
		cfg.Journal.Path = filepath.Join(dataDir, "journal.db")
	}
	return cfg, nil
}
