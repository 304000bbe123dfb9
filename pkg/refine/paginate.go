package refine

import (
	"github.com/tripsift/tripsift/pkg/core"
)

// Pagination describes one page of a result set.
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	PerPage      int  `json:"per_page"`
	TotalResults int  `json:"total_results"`
	TotalPages   int  `json:"total_pages"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
}

// Paginate slices a fully materialized list into the requested page
// (client-side mode). Page requests outside [1, totalPages] are clamped,
// never an error, and a valid page is never returned empty while data
// exists.
func Paginate(items []core.ResultItem, page, perPage int) ([]core.ResultItem, Pagination) {
	if perPage <= 0 {
		perPage = 20
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	page = clampPage(page, totalPages)

	meta := Pagination{
		CurrentPage:  page,
		PerPage:      perPage,
		TotalResults: total,
		TotalPages:   totalPages,
		HasNext:      page < totalPages,
		HasPrev:      page > 1 && totalPages > 0,
	}

	if total == 0 {
		return []core.ResultItem{}, meta
	}

	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}

	out := make([]core.ResultItem, end-start)
	copy(out, items[start:end])
	return out, meta
}

// ServerPage builds pagination state from upstream metadata
// (server-delegated mode). The upstream already sliced the page; only
// the current page is validated and clamped here.
func ServerPage(page, perPage, totalResults, totalPages int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	page = clampPage(page, totalPages)

	return Pagination{
		CurrentPage:  page,
		PerPage:      perPage,
		TotalResults: totalResults,
		TotalPages:   totalPages,
		HasNext:      page < totalPages,
		HasPrev:      page > 1 && totalPages > 0,
	}
}

// clampPage forces page into [1, totalPages]. With no pages at all the
// current page is pinned to 1 so consumers always have a stable anchor.
func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages > 0 && page > totalPages {
		return totalPages
	}
	return page
}
