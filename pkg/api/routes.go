package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API routes with method-specific routing
	mux.HandleFunc("GET /api/providers", s.HandleListProviders)
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/suggest", s.HandleSuggest)
	mux.HandleFunc("GET /api/history", s.HandleHistory)
	mux.HandleFunc("DELETE /api/history", s.HandleClearHistory)
	mux.HandleFunc("GET /ws/live", s.HandleLiveSearch)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
