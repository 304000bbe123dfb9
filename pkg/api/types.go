package api

import (
	"time"

	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/history"
	"github.com/tripsift/tripsift/pkg/refine"
)

type SearchResponse struct {
	Provider   string            `json:"provider"`
	Query      string            `json:"query"`
	Items      []core.ResultItem `json:"items"`
	Count      int               `json:"count"`
	Pagination refine.Pagination `json:"pagination"`
}

type SuggestResponse struct {
	Provider    string   `json:"provider"`
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
	Count       int      `json:"count"`
}

type HistoryResponse struct {
	Domain  string          `json:"domain"`
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
}

type ProviderInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Domain     string `json:"domain"`
	HasSuggest bool   `json:"has_suggest"`
	Fallbacks  int    `json:"fallbacks"`
}

type ListProvidersResponse struct {
	Providers []ProviderInfo `json:"providers"`
	Count     int            `json:"count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
