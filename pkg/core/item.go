package core

import (
	"encoding/json"
)

// ResultItem is the canonical result shape every provider transformer
// maps its upstream payload into. All filtering, sorting and pagination
// downstream of the transformer operate on this one type regardless of
// which travel domain produced it.
//
// Key design principles:
//   - Immutable: refine stages copy slices, they never patch items in place
//   - Self-contained: Fields carries every sortable/filterable attribute
//   - Honest about gaps: a missing upstream price is flagged through
//     PriceKnown instead of being replaced with a made-up number
type ResultItem struct {
	// Kind is the domain tag: "flight", "hotel" or "car".
	Kind string `json:"kind"`

	// ID is unique within one result set and is the deterministic
	// tie-break for every sort comparator.
	ID string `json:"id"`

	// Price is the amount in minor units (cents) of Currency.
	// Only meaningful when PriceKnown is true.
	Price int64 `json:"price"`

	// Currency is the ISO 4217 code the price is denominated in.
	Currency string `json:"currency"`

	// PriceKnown reports whether the upstream payload carried a price.
	// Items without a known price sort after priced items and are
	// excluded by price-range filters.
	PriceKnown bool `json:"price_known"`

	// Fields holds domain-specific sortable and filterable attributes
	// (airline, stops, duration_minutes, rating, vendor, ...). Keys
	// match the provider's documented field names.
	Fields map[string]any `json:"fields,omitempty"`

	// Raw is the upstream payload this item was transformed from,
	// preserved for consumers that need provider-specific detail.
	Raw json.RawMessage `json:"-"`
}

// StringField returns the named field as a string, or "" when the field
// is absent or not a string.
func (i ResultItem) StringField(name string) string {
	if v, ok := i.Fields[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// NumberField returns the named field as a float64. JSON decoding stores
// all numbers as float64, so this covers integer fields too.
func (i ResultItem) NumberField(name string) (float64, bool) {
	v, ok := i.Fields[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// BoolField returns the named field as a bool, defaulting to false.
func (i ResultItem) BoolField(name string) bool {
	if v, ok := i.Fields[name]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
