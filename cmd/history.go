package cmd

import (
	"context"
	"fmt"

	"github.com/tripsift/tripsift/pkg/config"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/history"
	"github.com/urfave/cli/v3"
)

// HistoryCommand creates the history command
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show or clear recent searches",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "domain",
				Usage: "Travel domain: flight, hotel or car",
				Value: "flight",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Forget recent searches for a domain",
				Action: func(ctx context.Context, c *cli.Command) error {
					return clearHistory(c.String("config"), c.String("domain"))
				},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return showHistory(c.String("config"), c.String("domain"))
		},
	}
}

func showHistory(configPath, domain string) error {
	store, d, err := historyForDomain(configPath, domain)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(d)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Printf("No recent %s searches\n", domain)
		return nil
	}

	fmt.Printf("Recent %s searches:\n\n", domain)
	for _, e := range entries {
		fmt.Printf("  %s  %s\n", formatTime(e.RecordedAt), e.Text)
	}
	return nil
}

func clearHistory(configPath, domain string) error {
	store, d, err := historyForDomain(configPath, domain)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Clear(d); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	fmt.Printf("Cleared %s search history\n", domain)
	return nil
}

func historyForDomain(configPath, domain string) (*history.Store, core.Domain, error) {
	d := core.Domain(domain)
	if !core.ValidDomain(d) {
		return nil, "", fmt.Errorf("domain %q is not one of flight, hotel, car", domain)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}

	store, err := openHistoryStore(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("opening history store: %w", err)
	}
	return store, d, nil
}
