package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/tripsift/tripsift/pkg/fetch"
)

//go:embed config.toml.sample
var configTemplate string

type Config struct {
	StorageDir string `toml:"storage_dir"`
	// HistoryCap bounds the per-domain search history. Default 5.
	HistoryCap int      `toml:"history_cap"`
	Debounce   Duration `toml:"debounce"`
	PerPage    int      `toml:"per_page"`

	Retry     RetrySettings           `toml:"retry"`
	Providers map[string]ProviderInfo `toml:"providers"`
}

type RetrySettings struct {
	MaxAttempts int      `toml:"max_attempts"`
	BaseDelay   Duration `toml:"base_delay"`
	MaxDelay    Duration `toml:"max_delay"`
}

// Options converts the settings into executor options. Zero fields keep
// the executor defaults.
func (r RetrySettings) Options() fetch.Options {
	return fetch.Options{
		MaxAttempts: r.MaxAttempts,
		BaseDelay:   r.BaseDelay.Duration,
		MaxDelay:    r.MaxDelay.Duration,
	}
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type ProviderInfo struct {
	Type string `toml:"type"`
	// Retry overrides the global retry settings for this provider.
	Retry  *RetrySettings `toml:"retry,omitempty"`
	Config interface{}    `toml:"config"`
}

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	return &Config{
		StorageDir: storageDir,
		HistoryCap: 5,
		Debounce:   Duration{300 * time.Millisecond},
		PerPage:    20,
		Retry: RetrySettings{
			MaxAttempts: 3,
			BaseDelay:   Duration{time.Second},
			MaxDelay:    Duration{30 * time.Second},
		},
		Providers: make(map[string]ProviderInfo),
	}, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}

	if config.HistoryCap <= 0 {
		config.HistoryCap = 5
	}
	if config.Debounce.Duration == 0 {
		config.Debounce = Duration{300 * time.Millisecond}
	}
	if config.PerPage <= 0 {
		config.PerPage = 20
	}

	if config.Providers == nil {
		config.Providers = make(map[string]ProviderInfo)
	}

	return &config, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	// Replace the placeholder storage_dir with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/tripsift", storageDir, 1)
	return template, nil
}

func (c *Config) AddProvider(name, providerType string, providerConfig interface{}) error {
	c.Providers[name] = ProviderInfo{
		Type:   providerType,
		Config: providerConfig,
	}
	return nil
}

func (c *Config) GetProviderConfig(name string) (string, interface{}, error) {
	info, exists := c.Providers[name]
	if !exists {
		return "", nil, fmt.Errorf("provider %s not found", name)
	}

	return info.Type, info.Config, nil
}

// GetProviderRetry returns the effective retry options for a provider,
// falling back to the global settings when the provider has no override.
func (c *Config) GetProviderRetry(name string) fetch.Options {
	if info, exists := c.Providers[name]; exists && info.Retry != nil {
		return info.Retry.Options()
	}
	return c.Retry.Options()
}

func (c *Config) ListProviders() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	return names
}

func (c *Config) RemoveProvider(name string) {
	delete(c.Providers, name)
}

// HistoryPath returns the search history database path under the
// configured storage directory.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.StorageDir, "history.db")
}

// GetDefaultStorageDir returns the default storage directory for databases
func GetDefaultStorageDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	storageDir := filepath.Join(dataDir, "tripsift")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", storageDir, err)
	}

	return storageDir, nil
}

// GetConfigDir returns the configuration directory for tripsift
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	appConfigDir := filepath.Join(configDir, "tripsift")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(appConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", appConfigDir, err)
	}

	return appConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
