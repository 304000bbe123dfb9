package hotels

import (
	"encoding/json"
	"fmt"

	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/fetch"
)

// stayItem is the upstream hotel payload.
type stayItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	City         string  `json:"city"`
	Address      string  `json:"address"`
	StarRating   int     `json:"star_rating"`
	GuestRating  float64 `json:"guest_rating"`
	ReviewCount  int     `json:"review_count"`
	PropertyType string  `json:"property_type"`
	PricePerNight *struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"price_per_night"`
	FreeCancellation  bool `json:"free_cancellation"`
	BreakfastIncluded bool `json:"breakfast_included"`
}

// Transform maps raw stay payloads into canonical result items. Missing
// prices are surfaced through PriceKnown, never invented.
func (p *Provider) Transform(items []json.RawMessage) ([]core.ResultItem, error) {
	out := make([]core.ResultItem, 0, len(items))

	for i, raw := range items {
		var stay stayItem
		if err := json.Unmarshal(raw, &stay); err != nil {
			return nil, fmt.Errorf("%w: stay item %d: %v", fetch.ErrMalformedPayload, i, err)
		}
		if stay.ID == "" && stay.Name == "" {
			return nil, fmt.Errorf("%w: stay item %d carries no recognizable fields", fetch.ErrMalformedPayload, i)
		}

		id := stay.ID
		if id == "" {
			id = fmt.Sprintf("%s-%s", stay.City, stay.Name)
		}

		item := core.ResultItem{
			Kind:     string(core.DomainHotel),
			ID:       id,
			Currency: p.config.Currency,
			Raw:      raw,
			Fields: map[string]any{
				"name":               stay.Name,
				"category":           propertyType(stay),
				"city":               stay.City,
				"address":            stay.Address,
				"star_rating":        float64(stay.StarRating),
				"rating":             stay.GuestRating,
				"review_count":       float64(stay.ReviewCount),
				"free_cancellation":  stay.FreeCancellation,
				"breakfast_included": stay.BreakfastIncluded,
			},
		}

		if stay.PricePerNight != nil {
			item.Price = stay.PricePerNight.Amount
			item.PriceKnown = true
			if stay.PricePerNight.Currency != "" {
				item.Currency = stay.PricePerNight.Currency
			}
		}

		out = append(out, item)
	}

	return out, nil
}

func propertyType(stay stayItem) string {
	if stay.PropertyType == "" {
		return "hotel"
	}
	return stay.PropertyType
}
