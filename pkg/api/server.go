// Package api exposes the search pipeline over HTTP and WebSocket.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tripsift/tripsift/pkg/config"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/fetch"
	"github.com/tripsift/tripsift/pkg/history"
	"github.com/tripsift/tripsift/pkg/log"
	"github.com/tripsift/tripsift/pkg/normalize"
)

// providerRuntime bundles everything one configured provider needs to
// serve synchronous requests: its normalizer, executor and optional
// suggestion client.
type providerRuntime struct {
	provider   core.Provider
	normalizer *normalize.Normalizer
	executor   *fetch.Executor
	suggest    *fetch.SuggestClient
}

type Server struct {
	cfg      *config.Config
	runtimes map[string]*providerRuntime
	store    *history.Store
	client   *http.Client
	logger   *log.Logger
}

// NewServer builds runtimes for every provider in the registry. store
// may be nil when history is disabled; the server does not own it.
func NewServer(cfg *config.Config, registry *core.Registry, store *history.Store) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		runtimes: make(map[string]*providerRuntime),
		store:    store,
		client:   http.DefaultClient,
		logger:   log.ForService("api"),
	}

	for name, provider := range registry.GetAllProviders() {
		rt, err := s.newRuntime(name, provider)
		if err != nil {
			return nil, fmt.Errorf("building runtime for provider %s: %w", name, err)
		}
		s.runtimes[name] = rt
	}

	return s, nil
}

func (s *Server) newRuntime(name string, provider core.Provider) (*providerRuntime, error) {
	ep := provider.Endpoints()
	if ep.Primary == "" {
		return nil, fmt.Errorf("provider %s has no primary endpoint", name)
	}

	primary := fetch.NewPrimaryTransport(name, ep.Primary, ep.Method, s.client)
	fallbacks := make([]fetch.Transport, 0, len(ep.Fallbacks))
	for i, u := range ep.Fallbacks {
		fallbacks = append(fallbacks, fetch.NewFallbackTransport(fmt.Sprintf("%s-fallback-%d", name, i+1), u, s.client))
	}

	var suggest *fetch.SuggestClient
	var suggester normalize.Suggester
	if ep.Suggest != "" {
		suggest = fetch.NewSuggestClient(ep.Suggest, s.client)
		suggester = suggest
	}

	return &providerRuntime{
		provider:   provider,
		normalizer: normalize.New(provider.Aliases(), suggester),
		executor:   fetch.NewExecutor(primary, fallbacks, s.cfg.GetProviderRetry(name)),
		suggest:    suggest,
	}, nil
}

// runtimeFor resolves the provider for a request. With exactly one
// configured provider the parameter may be omitted.
func (s *Server) runtimeFor(name string) (*providerRuntime, string, error) {
	if name != "" {
		rt, ok := s.runtimes[name]
		if !ok {
			return nil, "", fmt.Errorf("provider '%s' is not configured", name)
		}
		return rt, name, nil
	}

	switch len(s.runtimes) {
	case 0:
		return nil, "", fmt.Errorf("no providers configured")
	case 1:
		for n, rt := range s.runtimes {
			return rt, n, nil
		}
	}
	return nil, "", fmt.Errorf("provider parameter is required")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
