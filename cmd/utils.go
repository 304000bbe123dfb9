package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/tripsift/tripsift/pkg/config"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/history"
)

// createProvidersFromConfig creates and configures providers from the config
func createProvidersFromConfig(registry *core.Registry, cfg *config.Config) error {
	for name := range cfg.Providers {
		providerType, rawConfig, err := cfg.GetProviderConfig(name)
		if err != nil {
			return fmt.Errorf("getting config for provider %s: %w", name, err)
		}

		// Create provider with empty config first
		if err := registry.CreateProvider(name, providerType, nil); err != nil {
			return fmt.Errorf("creating provider %s: %w", name, err)
		}

		provider, err := registry.GetProvider(name)
		if err != nil {
			return fmt.Errorf("provider %s not found after creation: %w", name, err)
		}

		// Convert the raw config to the proper type using the provider's ConfigType
		providerConfig, err := convertRawConfigToType(provider, rawConfig)
		if err != nil {
			return fmt.Errorf("converting config for provider %s: %w", name, err)
		}

		if err := provider.SetConfig(providerConfig); err != nil {
			return fmt.Errorf("setting config for provider %s: %w", name, err)
		}
	}

	return nil
}

// convertRawConfigToType converts raw config to the provider's expected type
func convertRawConfigToType(provider core.Provider, rawConfig interface{}) (interface{}, error) {
	configType := provider.ConfigType()

	if rawConfig == nil {
		return configType, nil
	}

	// Marshal and unmarshal to convert between types
	configData, err := toml.Marshal(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("marshaling config data: %w", err)
	}

	if err := toml.Unmarshal(configData, configType); err != nil {
		return nil, fmt.Errorf("unmarshaling provider config: %w", err)
	}

	return configType, nil
}

// openHistoryStore opens the search history database for the config.
func openHistoryStore(cfg *config.Config) (*history.Store, error) {
	return history.NewStore(cfg.HistoryPath(), cfg.HistoryCap)
}
