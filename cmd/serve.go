package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/klauspost/compress/gzhttp"
	"github.com/tripsift/tripsift/pkg/api"
	"github.com/tripsift/tripsift/pkg/config"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/history"
	logsvc "github.com/tripsift/tripsift/pkg/log"
	"github.com/urfave/cli/v3"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the search API over HTTP and WebSocket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to",
				Value: "localhost",
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on",
				Value: "8080",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logsvc.SetGlobalDebug(c.Bool("debug"))
			return serve(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

// swappableHandler lets configuration reloads replace the whole API
// surface without restarting the listener.
type swappableHandler struct {
	mu      sync.RWMutex
	current http.Handler
}

func (h *swappableHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	handler := h.current
	h.mu.RUnlock()
	handler.ServeHTTP(w, r)
}

func (h *swappableHandler) swap(handler http.Handler) {
	h.mu.Lock()
	h.current = handler
	h.mu.Unlock()
}

func serve(ctx context.Context, configPath, host, port string) error {
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

	store, err := openHistoryStore(cfg)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close history store: %v\n", err)
		}
	}()

	handler := &swappableHandler{}
	mux, err := buildAPIHandler(cfg, registry, store)
	if err != nil {
		return fmt.Errorf("building API: %w", err)
	}
	handler.swap(mux)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", host, port),
		Handler: gzhttp.GzipHandler(api.CorsMiddleware(handler)),
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting tripsift API on http://%s:%s", host, port)
		log.Printf("Available endpoints:")
		log.Printf("  GET    /api/providers - List configured providers")
		log.Printf("  GET    /api/search - One-shot travel search")
		log.Printf("  GET    /api/suggest - Location suggestions")
		log.Printf("  GET    /api/history - Recent searches per domain")
		log.Printf("  DELETE /api/history - Clear recent searches")
		log.Printf("  GET    /ws/live - Debounced live search socket")
		log.Printf("  GET    /health - Health check")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Signal handling - includes SIGHUP for reload
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Set up filesystem watcher for config file
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("Warning: failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				log.Printf("Warning: failed to close config file watcher: %v", err)
			}
		}()

		if err := watcher.Add(configPath); err != nil {
			log.Printf("Warning: failed to watch config file %s: %v", configPath, err)
		} else {
			log.Printf("Watching config file for changes: %s", configPath)
		}
	}

	reload := func() {
		if err := reloadConfiguration(configPath, registry, store, handler); err != nil {
			log.Printf("Failed to reload configuration: %v", err)
		} else {
			log.Println("Configuration reloaded successfully")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return shutdown(server)
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading configuration...")
				reload()
			case syscall.SIGINT, syscall.SIGTERM:
				fmt.Println("\nShutting down...")
				return shutdown(server)
			}
		case event, ok := <-watcher.Events:
			if !ok {
				continue
			}
			// React to write, create, rename, and remove events (editors often use atomic writes)
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				log.Printf("Config file changed: %s (event: %s), reloading configuration...", event.Name, event.Op.String())

				if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					// Small delay to ensure the new file is fully written
					time.Sleep(200 * time.Millisecond)

					if _, err := os.Stat(configPath); os.IsNotExist(err) {
						log.Printf("Config file was removed and not replaced, skipping reload")
						continue
					}

					// Re-add the config file to watcher in case it was replaced
					if err := watcher.Add(configPath); err != nil {
						log.Printf("Warning: failed to re-add config file to watcher after rename/remove: %v", err)
					}
				} else {
					// Add a small delay to ensure file write is complete
					time.Sleep(100 * time.Millisecond)
				}

				reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				continue
			}
			log.Printf("Config file watcher error: %v", err)
		}
	}
}

func shutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildAPIHandler(cfg *config.Config, registry *core.Registry, store *history.Store) (http.Handler, error) {
	apiServer, err := api.NewServer(cfg, registry, store)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	apiServer.RegisterRoutes(mux)
	return mux, nil
}

// reloadConfiguration rebuilds the provider set and the API surface
// from the config file and swaps them in. Existing live sessions keep
// their old runtimes until their sockets close.
func reloadConfiguration(configPath string, registry *core.Registry, store *history.Store, handler *swappableHandler) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Drop providers that disappeared from the config.
	for _, name := range registry.ListProviders() {
		if _, exists := cfg.Providers[name]; !exists {
			log.Printf("Removing provider: %s", name)
			if err := registry.RemoveProvider(name); err != nil {
				return fmt.Errorf("removing provider %s: %w", name, err)
			}
		}
	}

	// Add or reconfigure the rest.
	for name := range cfg.Providers {
		providerType, rawConfig, err := cfg.GetProviderConfig(name)
		if err != nil {
			return fmt.Errorf("getting config for provider %s: %w", name, err)
		}

		provider, err := registry.GetProvider(name)
		if err != nil {
			log.Printf("Adding provider: %s", name)
			if err := registry.CreateProvider(name, providerType, nil); err != nil {
				return fmt.Errorf("creating provider %s: %w", name, err)
			}
			provider, err = registry.GetProvider(name)
			if err != nil {
				return fmt.Errorf("provider %s not found after creation: %w", name, err)
			}
		}

		providerConfig, err := convertRawConfigToType(provider, rawConfig)
		if err != nil {
			return fmt.Errorf("converting config for provider %s: %w", name, err)
		}
		if err := provider.SetConfig(providerConfig); err != nil {
			return fmt.Errorf("setting config for provider %s: %w", name, err)
		}
	}

	mux, err := buildAPIHandler(cfg, registry, store)
	if err != nil {
		return fmt.Errorf("rebuilding API: %w", err)
	}
	handler.swap(mux)
	return nil
}
