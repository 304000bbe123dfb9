package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/tripsift/tripsift/pkg/config"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/fetch"
	logsvc "github.com/tripsift/tripsift/pkg/log"
	"github.com/tripsift/tripsift/pkg/normalize"
	"github.com/tripsift/tripsift/pkg/refine"
	"github.com/tripsift/tripsift/pkg/render"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Run a one-shot travel search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Provider name (optional when only one is configured)",
			},
			&cli.StringFlag{
				Name:  "origin",
				Usage: "Departure location (flights)",
			},
			&cli.StringFlag{
				Name:  "destination",
				Usage: "Arrival location (flights)",
			},
			&cli.StringFlag{
				Name:  "location",
				Usage: "Search location (hotels and cars)",
			},
			&cli.StringFlag{
				Name:     "start-date",
				Usage:    "Departure, check-in or pickup date (YYYY-MM-DD)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "end-date",
				Usage: "Return, check-out or dropoff date (YYYY-MM-DD)",
			},
			&cli.IntFlag{
				Name:  "guests",
				Usage: "Passengers, guests or drivers",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "per-page",
				Usage: "Results per page",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort key: price_asc, price_desc, name_asc, rating_desc, duration_asc, departure_asc",
			},
			&cli.IntFlag{
				Name:  "min-price",
				Usage: "Minimum price in minor units (cents)",
				Value: -1,
			},
			&cli.IntFlag{
				Name:  "max-price",
				Usage: "Maximum price in minor units (cents)",
				Value: -1,
			},
			&cli.StringSliceFlag{
				Name:  "category",
				Usage: "Filter by category (airline code, property type, car class). Can be used multiple times",
			},
			&cli.StringSliceFlag{
				Name:  "flag",
				Usage: "Require a boolean item field, e.g. 'direct' or 'free_cancellation'",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON instead of formatted results",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logsvc.SetGlobalDebug(c.Bool("debug"))
			return runSearch(ctx, c)
		},
	}
}

func runSearch(ctx context.Context, c *cli.Command) error {
	cfg, err := config.LoadConfig(c.String("config"))
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

	provider, name, err := resolveProvider(registry, c.String("provider"))
	if err != nil {
		return err
	}

	raw := core.RawQuery{
		Domain:      provider.Domain(),
		Origin:      c.String("origin"),
		Destination: c.String("destination"),
		Location:    c.String("location"),
		StartDate:   c.String("start-date"),
		EndDate:     c.String("end-date"),
		Guests:      c.Int("guests"),
		Page:        c.Int("page"),
		PerPage:     c.Int("per-page"),
	}

	ep := provider.Endpoints()
	var suggester normalize.Suggester
	if ep.Suggest != "" {
		suggester = fetch.NewSuggestClient(ep.Suggest, http.DefaultClient)
	}

	q, err := normalize.New(provider.Aliases(), suggester).Normalize(ctx, raw)
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	state, sortKey, err := refineFromFlags(c)
	if err != nil {
		return err
	}

	primary := fetch.NewPrimaryTransport(name, ep.Primary, ep.Method, http.DefaultClient)
	fallbacks := make([]fetch.Transport, 0, len(ep.Fallbacks))
	for i, u := range ep.Fallbacks {
		fallbacks = append(fallbacks, fetch.NewFallbackTransport(fmt.Sprintf("%s-fallback-%d", name, i+1), u, http.DefaultClient))
	}
	executor := fetch.NewExecutor(primary, fallbacks, cfg.GetProviderRetry(name))

	resp, err := executor.Execute(ctx, q, provider.EncodeQuery(q))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	items, err := provider.Transform(resp.Items)
	if err != nil {
		return fmt.Errorf("transforming results: %w", err)
	}

	if store, err := openHistoryStore(cfg); err == nil {
		if err := store.Record(q.Domain, q.Text()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: recording history: %v\n", err)
		}
		_ = store.Close()
	}

	items = refine.Sort(refine.Filter(items, state), sortKey)

	var pg refine.Pagination
	if resp.Pagination != nil {
		pg = refine.ServerPage(resp.Pagination.CurrentPage, resp.Pagination.PerPage,
			resp.Pagination.TotalResults, resp.Pagination.TotalPages)
	} else {
		items, pg = refine.Paginate(items, q.Page, q.PerPage)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"query":      q.Text(),
			"items":      items,
			"pagination": pg,
		})
	}

	fmt.Print(render.FormatResults(q, items, pg))
	return nil
}

// resolveProvider picks a provider by name, or the only configured one
// when no name is given.
func resolveProvider(registry *core.Registry, name string) (core.Provider, string, error) {
	if name != "" {
		p, err := registry.GetProvider(name)
		if err != nil {
			return nil, "", err
		}
		return p, name, nil
	}

	providers := registry.GetAllProviders()
	switch len(providers) {
	case 0:
		return nil, "", fmt.Errorf("no providers configured, add one to the config file first")
	case 1:
		for n, p := range providers {
			return p, n, nil
		}
	}
	return nil, "", fmt.Errorf("multiple providers configured, pick one with --provider")
}

func refineFromFlags(c *cli.Command) (refine.FilterState, refine.SortKey, error) {
	var state refine.FilterState

	if n := c.Int("min-price"); n >= 0 {
		v := int64(n)
		state.MinPrice = &v
	}
	if n := c.Int("max-price"); n >= 0 {
		v := int64(n)
		state.MaxPrice = &v
	}
	state.Categories = c.StringSlice("category")
	if flags := c.StringSlice("flag"); len(flags) > 0 {
		state.Flags = make(map[string]bool, len(flags))
		for _, f := range flags {
			state.Flags[f] = true
		}
	}

	key := refine.SortKey(c.String("sort"))
	if !refine.ValidSortKey(key) {
		return state, "", fmt.Errorf("unknown sort key %q", c.String("sort"))
	}

	return state, key, nil
}
