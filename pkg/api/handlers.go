package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/fetch"
	"github.com/tripsift/tripsift/pkg/refine"
	"github.com/tripsift/tripsift/pkg/version"
)

func (s *Server) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	infos := make([]ProviderInfo, 0, len(s.runtimes))
	for name, rt := range s.runtimes {
		ep := rt.provider.Endpoints()
		infos = append(infos, ProviderInfo{
			Name:       name,
			Type:       rt.provider.Type(),
			Domain:     string(rt.provider.Domain()),
			HasSuggest: ep.Suggest != "",
			Fallbacks:  len(ep.Fallbacks),
		})
	}

	s.writeJSON(w, http.StatusOK, ListProvidersResponse{
		Providers: infos,
		Count:     len(infos),
	})
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	rt, name, err := s.runtimeFor(r.URL.Query().Get("provider"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Unknown provider", err.Error())
		return
	}

	raw := parseRawQuery(rt.provider.Domain(), r.URL.Query())
	q, err := rt.normalizer.Normalize(r.Context(), raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}

	state, sortKey, err := parseRefineParams(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid refinement", err.Error())
		return
	}

	resp, err := rt.executor.Execute(r.Context(), q, rt.provider.EncodeQuery(q))
	if err != nil {
		if fetch.IsSearchUnavailable(err) {
			s.writeError(w, http.StatusServiceUnavailable, "Search unavailable", err.Error())
			return
		}
		s.writeError(w, http.StatusBadGateway, "Upstream error", err.Error())
		return
	}

	items, err := rt.provider.Transform(resp.Items)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "Malformed upstream payload", err.Error())
		return
	}

	if s.store != nil {
		if err := s.store.Record(q.Domain, q.Text()); err != nil {
			s.logger.Warnf("recording history: %v", err)
		}
	}

	items = refine.Sort(refine.Filter(items, state), sortKey)

	var pg refine.Pagination
	if resp.Pagination != nil {
		pg = refine.ServerPage(resp.Pagination.CurrentPage, resp.Pagination.PerPage,
			resp.Pagination.TotalResults, resp.Pagination.TotalPages)
	} else {
		items, pg = refine.Paginate(items, q.Page, q.PerPage)
	}

	s.writeJSON(w, http.StatusOK, SearchResponse{
		Provider:   name,
		Query:      q.Text(),
		Items:      items,
		Count:      len(items),
		Pagination: pg,
	})
}

func (s *Server) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	rt, name, err := s.runtimeFor(r.URL.Query().Get("provider"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Unknown provider", err.Error())
		return
	}
	if rt.suggest == nil {
		s.writeError(w, http.StatusNotFound, "No suggestions",
			fmt.Sprintf("Provider '%s' has no suggestion endpoint", name))
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'q' is required")
		return
	}

	suggestions, err := rt.suggest.Suggest(r.Context(), query)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "Suggestion lookup failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, SuggestResponse{
		Provider:    name,
		Query:       query,
		Suggestions: suggestions,
		Count:       len(suggestions),
	})
}

func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	domain, ok := s.historyDomain(w, r)
	if !ok {
		return
	}

	entries, err := s.store.List(domain)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to read history", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, HistoryResponse{
		Domain:  string(domain),
		Entries: entries,
		Count:   len(entries),
	})
}

func (s *Server) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	domain, ok := s.historyDomain(w, r)
	if !ok {
		return
	}

	if err := s.store.Clear(domain); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to clear history", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, HistoryResponse{Domain: string(domain)})
}

func (s *Server) historyDomain(w http.ResponseWriter, r *http.Request) (core.Domain, bool) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "History disabled", "No history store is configured")
		return "", false
	}

	domain := core.Domain(r.URL.Query().Get("domain"))
	if !core.ValidDomain(domain) {
		s.writeError(w, http.StatusBadRequest, "Invalid domain",
			fmt.Sprintf("Domain '%s' is not one of flight, hotel, car", domain))
		return "", false
	}
	return domain, true
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}

func parseRawQuery(domain core.Domain, v url.Values) core.RawQuery {
	raw := core.RawQuery{
		Domain:      domain,
		Origin:      v.Get("origin"),
		Destination: v.Get("destination"),
		Location:    v.Get("location"),
		StartDate:   v.Get("start_date"),
		EndDate:     v.Get("end_date"),
	}
	raw.Guests, _ = strconv.Atoi(v.Get("guests"))
	raw.Page, _ = strconv.Atoi(v.Get("page"))
	raw.PerPage, _ = strconv.Atoi(v.Get("per_page"))
	return raw
}

func parseRefineParams(v url.Values) (refine.FilterState, refine.SortKey, error) {
	var state refine.FilterState

	if raw := v.Get("min_price"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return state, "", fmt.Errorf("invalid min_price %q", raw)
		}
		state.MinPrice = &n
	}
	if raw := v.Get("max_price"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return state, "", fmt.Errorf("invalid max_price %q", raw)
		}
		state.MaxPrice = &n
	}
	if cats := v["category"]; len(cats) > 0 {
		state.Categories = cats
	}
	if flags := v["flag"]; len(flags) > 0 {
		state.Flags = make(map[string]bool, len(flags))
		for _, f := range flags {
			state.Flags[f] = true
		}
	}

	key := refine.SortKey(v.Get("sort"))
	if !refine.ValidSortKey(key) {
		return state, "", fmt.Errorf("unknown sort key %q", key)
	}

	return state, key, nil
}

// errStatus maps pipeline errors onto HTTP statuses for the live search
// socket.
func errStatus(err error) int {
	switch {
	case fetch.IsSearchUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, fetch.ErrMalformedPayload):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrUnresolvedLocation), errors.Is(err, core.ErrInvalidDateRange):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
