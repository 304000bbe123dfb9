package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/tripsift/tripsift/pkg/config"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/urfave/cli/v3"
)

// ProvidersCommand creates the providers command
func ProvidersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "List configured search providers",
		Action: func(ctx context.Context, c *cli.Command) error {
			return listProviders(c.String("config"))
		},
	}
}

func listProviders(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	registry := core.GetGlobalRegistry()

	if err := createProvidersFromConfig(registry, cfg); err != nil {
		return fmt.Errorf("creating providers: %w", err)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			fmt.Printf("Warning: failed to close registry: %v\n", err)
		}
	}()

	providers := registry.GetAllProviders()
	if len(providers) == 0 {
		fmt.Println("No providers configured. Run 'tripsift init' and edit the config file.")
		return nil
	}

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Configured providers (%d):\n\n", len(names))
	for _, name := range names {
		p := providers[name]
		ep := p.Endpoints()
		fmt.Printf("  %s\n", name)
		fmt.Printf("    type:      %s\n", p.Type())
		fmt.Printf("    domain:    %s\n", p.Domain())
		fmt.Printf("    endpoint:  %s (%s)\n", ep.Primary, ep.Method)
		if len(ep.Fallbacks) > 0 {
			fmt.Printf("    fallbacks: %d\n", len(ep.Fallbacks))
		}
		if ep.Suggest != "" {
			fmt.Printf("    suggest:   %s\n", ep.Suggest)
		}
		retry := cfg.GetProviderRetry(name)
		fmt.Printf("    retry:     %d attempts, %v base delay\n", retry.MaxAttempts, retry.BaseDelay)
		fmt.Println()
	}

	return nil
}
