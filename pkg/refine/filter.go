// Package refine applies client-side filtering, sorting and pagination
// to canonical result lists. Every function here is pure: inputs are
// never mutated and equal inputs always produce equal outputs.
package refine

import (
	"github.com/tripsift/tripsift/pkg/core"
)

// FilterState is a declarative predicate set. Predicates are evaluated
// independently and combined with logical AND; predicate order never
// matters. The zero value is the identity transform.
type FilterState struct {
	// MinPrice and MaxPrice bound the item price in minor units,
	// inclusive on both ends. Items without a known price are excluded
	// whenever either bound is set.
	MinPrice *int64 `json:"min_price,omitempty"`
	MaxPrice *int64 `json:"max_price,omitempty"`

	// Categories is an allow-list matched against the item's
	// "category" field (airline code, property type, car class).
	// Empty means all categories pass.
	Categories []string `json:"categories,omitempty"`

	// Flags constrain boolean item fields: every entry requires
	// the named field to equal the given value.
	Flags map[string]bool `json:"flags,omitempty"`
}

// IsEmpty reports whether the state filters nothing.
func (f FilterState) IsEmpty() bool {
	return f.MinPrice == nil && f.MaxPrice == nil && len(f.Categories) == 0 && len(f.Flags) == 0
}

// Filter returns the items passing every predicate in state. The input
// slice is never modified; applying the same state twice yields the
// same result.
func Filter(items []core.ResultItem, state FilterState) []core.ResultItem {
	if state.IsEmpty() {
		out := make([]core.ResultItem, len(items))
		copy(out, items)
		return out
	}

	out := make([]core.ResultItem, 0, len(items))
	for _, item := range items {
		if matches(item, state) {
			out = append(out, item)
		}
	}
	return out
}

func matches(item core.ResultItem, state FilterState) bool {
	if state.MinPrice != nil || state.MaxPrice != nil {
		if !item.PriceKnown {
			return false
		}
		if state.MinPrice != nil && item.Price < *state.MinPrice {
			return false
		}
		if state.MaxPrice != nil && item.Price > *state.MaxPrice {
			return false
		}
	}

	if len(state.Categories) > 0 {
		category := item.StringField("category")
		allowed := false
		for _, c := range state.Categories {
			if c == category {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	for name, want := range state.Flags {
		if item.BoolField(name) != want {
			return false
		}
	}

	return true
}
