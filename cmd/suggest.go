package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tripsift/tripsift/pkg/config"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/fetch"
	"github.com/urfave/cli/v3"
)

// SuggestCommand creates the suggest command
func SuggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Look up location suggestions from a provider",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Provider name (optional when only one is configured)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("usage: tripsift suggest <text>")
			}
			return runSuggest(ctx, c.String("config"), c.String("provider"), c.Args().First())
		},
	}
}

func runSuggest(ctx context.Context, configPath, providerName, text string) error {
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

	provider, name, err := resolveProvider(registry, providerName)
	if err != nil {
		return err
	}

	ep := provider.Endpoints()
	if ep.Suggest == "" {
		return fmt.Errorf("provider %s has no suggestion endpoint", name)
	}

	suggestions, err := fetch.NewSuggestClient(ep.Suggest, http.DefaultClient).Suggest(ctx, text)
	if err != nil {
		return fmt.Errorf("looking up suggestions: %w", err)
	}

	if len(suggestions) == 0 {
		fmt.Printf("No suggestions for %q\n", text)
		return nil
	}

	for _, s := range suggestions {
		fmt.Println(s)
	}
	return nil
}
