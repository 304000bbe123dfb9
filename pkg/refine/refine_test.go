package refine

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/tripsift/tripsift/pkg/core"
)

func priced(id string, price int64, fields map[string]any) core.ResultItem {
	return core.ResultItem{
		Kind:       "flight",
		ID:         id,
		Price:      price,
		Currency:   "USD",
		PriceKnown: true,
		Fields:     fields,
	}
}

func unpriced(id string) core.ResultItem {
	return core.ResultItem{Kind: "flight", ID: id, Currency: "USD"}
}

func int64p(v int64) *int64 { return &v }

func sampleItems() []core.ResultItem {
	return []core.ResultItem{
		priced("f1", 45000, map[string]any{"category": "MH", "direct": true, "duration_minutes": float64(190)}),
		priced("f2", 32000, map[string]any{"category": "AK", "direct": false, "duration_minutes": float64(260)}),
		priced("f3", 45000, map[string]any{"category": "MH", "direct": false, "duration_minutes": float64(230)}),
		unpriced("f4"),
		priced("f5", 58000, map[string]any{"category": "SQ", "direct": true, "duration_minutes": float64(175)}),
	}
}

func ids(items []core.ResultItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestFilterEmptyStateIsIdentity(t *testing.T) {
	items := sampleItems()
	got := Filter(items, FilterState{})
	if !reflect.DeepEqual(ids(got), ids(items)) {
		t.Errorf("empty filter changed the list: %v", ids(got))
	}
}

func TestFilterPriceBoundsInclusive(t *testing.T) {
	items := sampleItems()

	got := Filter(items, FilterState{MinPrice: int64p(32000), MaxPrice: int64p(45000)})
	want := []string{"f1", "f2", "f3"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("price filter = %v, want %v (bounds are inclusive)", ids(got), want)
	}
}

func TestFilterExcludesUnpricedWhenBounded(t *testing.T) {
	got := Filter(sampleItems(), FilterState{MaxPrice: int64p(100000)})
	for _, item := range got {
		if !item.PriceKnown {
			t.Errorf("item %s has no known price but passed a price bound", item.ID)
		}
	}
}

func TestFilterCategoriesAndFlags(t *testing.T) {
	items := sampleItems()

	got := Filter(items, FilterState{Categories: []string{"MH", "SQ"}})
	if want := []string{"f1", "f3", "f5"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("category filter = %v, want %v", ids(got), want)
	}

	got = Filter(items, FilterState{Flags: map[string]bool{"direct": true}})
	if want := []string{"f1", "f5"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("flag filter = %v, want %v", ids(got), want)
	}
}

func TestFilterIdempotence(t *testing.T) {
	items := sampleItems()
	states := []FilterState{
		{},
		{MaxPrice: int64p(45000)},
		{Categories: []string{"MH"}},
		{MinPrice: int64p(30000), Flags: map[string]bool{"direct": false}},
	}

	for i, state := range states {
		once := Filter(items, state)
		twice := Filter(once, state)
		if !reflect.DeepEqual(ids(once), ids(twice)) {
			t.Errorf("state %d not idempotent: %v then %v", i, ids(once), ids(twice))
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	items := sampleItems()
	before := ids(items)
	_ = Filter(items, FilterState{MaxPrice: int64p(40000)})
	if !reflect.DeepEqual(ids(items), before) {
		t.Error("Filter mutated its input")
	}
}

func TestSortPriceAscTieBreakOnID(t *testing.T) {
	got := Sort(sampleItems(), SortPriceAsc)
	// f1 and f3 share a price; the tie-break keeps f1 before f3. The
	// unpriced f4 sinks to the end.
	want := []string{"f2", "f1", "f3", "f5", "f4"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("price_asc = %v, want %v", ids(got), want)
	}
}

func TestSortPriceDescKeepsUnpricedLast(t *testing.T) {
	got := Sort(sampleItems(), SortPriceDesc)
	want := []string{"f5", "f1", "f3", "f2", "f4"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("price_desc = %v, want %v", ids(got), want)
	}
}

func TestSortDeterminismUnderTies(t *testing.T) {
	items := sampleItems()
	first := Sort(items, SortPriceAsc)
	second := Sort(first, SortPriceAsc)

	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Errorf("sorting an already-sorted list changed the order: %v vs %v", ids(first), ids(second))
	}

	third := Sort(items, SortPriceAsc)
	if !reflect.DeepEqual(ids(first), ids(third)) {
		t.Errorf("repeated sorts disagree: %v vs %v", ids(first), ids(third))
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	items := sampleItems()
	before := ids(items)
	_ = Sort(items, SortPriceAsc)
	if !reflect.DeepEqual(ids(items), before) {
		t.Error("Sort mutated its input")
	}
}

func TestSortDurationAsc(t *testing.T) {
	got := Sort(sampleItems(), SortDurationAsc)
	want := []string{"f5", "f1", "f3", "f2", "f4"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("duration_asc = %v, want %v", ids(got), want)
	}
}

func TestValidSortKey(t *testing.T) {
	for _, key := range []SortKey{SortNone, SortPriceAsc, SortPriceDesc, SortNameAsc, SortRatingDesc, SortDurationAsc, SortDepartureAsc} {
		if !ValidSortKey(key) {
			t.Errorf("ValidSortKey(%q) = false", key)
		}
	}
	if ValidSortKey("alphabetical") {
		t.Error("unknown sort key accepted")
	}
}

func TestPaginateTotalPages(t *testing.T) {
	for _, tt := range []struct {
		n, perPage, wantPages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{45, 20, 3},
		{3, 1, 3},
	} {
		items := make([]core.ResultItem, tt.n)
		for i := range items {
			items[i] = priced(fmt.Sprintf("i%03d", i), int64(i), nil)
		}
		_, meta := Paginate(items, 1, tt.perPage)
		if meta.TotalPages != tt.wantPages {
			t.Errorf("n=%d perPage=%d: totalPages = %d, want %d", tt.n, tt.perPage, meta.TotalPages, tt.wantPages)
		}
		if meta.TotalResults != tt.n {
			t.Errorf("n=%d: totalResults = %d", tt.n, meta.TotalResults)
		}
	}
}

func TestPaginateClampsOutOfRangePages(t *testing.T) {
	items := make([]core.ResultItem, 45)
	for i := range items {
		items[i] = priced(fmt.Sprintf("i%03d", i), int64(i), nil)
	}

	// totalPages is 3; requesting page 8 clamps to 3 and still returns data.
	page, meta := Paginate(items, 8, 20)
	if meta.CurrentPage != 3 {
		t.Errorf("currentPage = %d, want clamp to 3", meta.CurrentPage)
	}
	if len(page) != 5 {
		t.Errorf("clamped page has %d items, want 5", len(page))
	}

	page, meta = Paginate(items, -2, 20)
	if meta.CurrentPage != 1 || len(page) != 20 {
		t.Errorf("negative page: currentPage=%d len=%d, want 1 and 20", meta.CurrentPage, len(page))
	}
}

func TestPaginateSliceBoundaries(t *testing.T) {
	items := make([]core.ResultItem, 5)
	for i := range items {
		items[i] = priced(fmt.Sprintf("i%d", i), int64(i), nil)
	}

	page, meta := Paginate(items, 2, 2)
	if want := []string{"i2", "i3"}; !reflect.DeepEqual(ids(page), want) {
		t.Errorf("page 2 = %v, want %v", ids(page), want)
	}
	if !meta.HasNext || !meta.HasPrev {
		t.Error("middle page must have next and prev")
	}
}

func TestServerPageClamps(t *testing.T) {
	meta := ServerPage(9, 20, 3, 1)
	if meta.CurrentPage != 1 {
		t.Errorf("currentPage = %d, want 1", meta.CurrentPage)
	}
	if meta.HasNext || meta.HasPrev {
		t.Error("single-page result must have neither next nor prev")
	}
	if meta.TotalResults != 3 || meta.TotalPages != 1 {
		t.Errorf("metadata not preserved: %+v", meta)
	}
}
