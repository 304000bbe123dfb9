package render

import (
	"strings"
	"testing"
	"time"

	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/refine"
)

func flightQuery() core.SearchQuery {
	return core.SearchQuery{
		Domain:      core.DomainFlight,
		Origin:      core.CanonicalLocation{Code: "KUL", DisplayName: "Kuala Lumpur"},
		Destination: core.CanonicalLocation{Code: "DAD", DisplayName: "Da Nang"},
		StartDate:   time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestPrice(t *testing.T) {
	priced := core.ResultItem{Price: 1234500, Currency: "USD", PriceKnown: true}
	if got := Price(priced); got != "USD 12,345.00" {
		t.Errorf("unexpected priced rendering: %q", got)
	}

	unpriced := core.ResultItem{Currency: "USD"}
	if got := Price(unpriced); got != "price unavailable" {
		t.Errorf("missing price must not render a number, got %q", got)
	}
}

func TestFormatResults(t *testing.T) {
	items := []core.ResultItem{
		{
			Kind: "flight", ID: "f1", Price: 42000, Currency: "MYR", PriceKnown: true,
			Fields: map[string]any{
				"name": "AK512", "origin": "KUL", "destination": "DAD",
				"airline": "AirAsia", "cabin_class": "economy",
				"duration_minutes": float64(165), "direct": true,
			},
		},
		{
			Kind: "flight", ID: "f2", Currency: "MYR",
			Fields: map[string]any{"name": "VN337", "origin": "KUL", "destination": "DAD", "stops": float64(1)},
		},
	}
	pg := refine.Pagination{CurrentPage: 1, PerPage: 20, TotalResults: 2, TotalPages: 1}

	out := FormatResults(flightQuery(), items, pg)

	for _, want := range []string{"KUL", "DAD", "AK512", "AirAsia", "MYR 420.00", "2h45m", "VN337", "price unavailable", "2 result(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatResultsEmpty(t *testing.T) {
	out := FormatResults(flightQuery(), nil, refine.Pagination{CurrentPage: 1})
	if !strings.Contains(out, "No results") {
		t.Errorf("expected empty-state message:\n%s", out)
	}
}

func TestFormatResultsPagedFooter(t *testing.T) {
	items := []core.ResultItem{{Kind: "hotel", ID: "h1", Currency: "USD", Fields: map[string]any{"name": "Marina View", "city": "SIN"}}}
	pg := refine.Pagination{CurrentPage: 2, PerPage: 20, TotalResults: 45, TotalPages: 3, HasNext: true, HasPrev: true}

	out := FormatResults(core.SearchQuery{
		Domain:    core.DomainHotel,
		Location:  core.CanonicalLocation{Code: "SIN", DisplayName: "Singapore"},
		StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}, items, pg)

	if !strings.Contains(out, "Page 2 of 3") {
		t.Errorf("expected pagination footer:\n%s", out)
	}
}
