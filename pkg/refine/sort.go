package refine

import (
	"sort"

	"github.com/tripsift/tripsift/pkg/core"
)

// SortKey names one of the fixed comparators. The empty key preserves
// the upstream order.
type SortKey string

const (
	SortNone         SortKey = ""
	SortPriceAsc     SortKey = "price_asc"
	SortPriceDesc    SortKey = "price_desc"
	SortNameAsc      SortKey = "name_asc"
	SortRatingDesc   SortKey = "rating_desc"
	SortDurationAsc  SortKey = "duration_asc"
	SortDepartureAsc SortKey = "departure_asc"
)

// ValidSortKey reports whether key names a known comparator.
func ValidSortKey(key SortKey) bool {
	switch key {
	case SortNone, SortPriceAsc, SortPriceDesc, SortNameAsc,
		SortRatingDesc, SortDurationAsc, SortDepartureAsc:
		return true
	}
	return false
}

// Sort returns a sorted copy of items. The input is never mutated and
// every comparator breaks ties on the item ID, so repeated sorts of
// equal inputs produce identical order.
func Sort(items []core.ResultItem, key SortKey) []core.ResultItem {
	out := make([]core.ResultItem, len(items))
	copy(out, items)

	less := comparator(key)
	if less == nil {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case less(a, b):
			return true
		case less(b, a):
			return false
		default:
			return a.ID < b.ID
		}
	})
	return out
}

// comparator returns a strict-weak ordering for key, or nil when the
// key requests no sorting.
func comparator(key SortKey) func(a, b core.ResultItem) bool {
	switch key {
	case SortPriceAsc:
		return func(a, b core.ResultItem) bool {
			// Unpriced items sink to the end.
			if a.PriceKnown != b.PriceKnown {
				return a.PriceKnown
			}
			return a.PriceKnown && a.Price < b.Price
		}
	case SortPriceDesc:
		return func(a, b core.ResultItem) bool {
			if a.PriceKnown != b.PriceKnown {
				return a.PriceKnown
			}
			return a.PriceKnown && a.Price > b.Price
		}
	case SortNameAsc:
		return func(a, b core.ResultItem) bool {
			return a.StringField("name") < b.StringField("name")
		}
	case SortRatingDesc:
		return func(a, b core.ResultItem) bool {
			ra, _ := a.NumberField("rating")
			rb, _ := b.NumberField("rating")
			return ra > rb
		}
	case SortDurationAsc:
		return func(a, b core.ResultItem) bool {
			da, aok := a.NumberField("duration_minutes")
			db, bok := b.NumberField("duration_minutes")
			if aok != bok {
				return aok
			}
			return da < db
		}
	case SortDepartureAsc:
		return func(a, b core.ResultItem) bool {
			return a.StringField("departure") < b.StringField("departure")
		}
	}
	return nil
}
