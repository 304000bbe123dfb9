package flights

import (
	"encoding/json"
	"fmt"

	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/fetch"
)

// fareItem is the upstream flight payload. Every field except the route
// is optional; Transform substitutes documented defaults for gaps.
type fareItem struct {
	ID           string `json:"id"`
	FlightNumber string `json:"flight_number"`
	Airline      struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"airline"`
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	Departure       string `json:"departure"`
	Arrival         string `json:"arrival"`
	DurationMinutes int    `json:"duration_minutes"`
	Stops           int    `json:"stops"`
	CabinClass      string `json:"cabin_class"`
	Price           *struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"price"`
}

// Transform maps raw fare payloads into canonical result items.
//
// A missing price is flagged through PriceKnown instead of being
// replaced with a guess. Items that are not JSON objects at all fail
// the whole batch with a malformed-payload error.
func (p *Provider) Transform(items []json.RawMessage) ([]core.ResultItem, error) {
	out := make([]core.ResultItem, 0, len(items))

	for i, raw := range items {
		var fare fareItem
		if err := json.Unmarshal(raw, &fare); err != nil {
			return nil, fmt.Errorf("%w: fare item %d: %v", fetch.ErrMalformedPayload, i, err)
		}
		if fare.Origin == "" && fare.Destination == "" && fare.FlightNumber == "" && fare.ID == "" {
			return nil, fmt.Errorf("%w: fare item %d carries no recognizable fields", fetch.ErrMalformedPayload, i)
		}

		id := fare.ID
		if id == "" {
			id = fmt.Sprintf("%s-%s-%s-%s", fare.FlightNumber, fare.Origin, fare.Destination, fare.Departure)
		}

		item := core.ResultItem{
			Kind:     string(core.DomainFlight),
			ID:       id,
			Currency: p.config.Currency,
			Raw:      raw,
			Fields: map[string]any{
				"name":             displayName(fare),
				"category":         fare.Airline.Code,
				"airline":          fare.Airline.Name,
				"origin":           fare.Origin,
				"destination":      fare.Destination,
				"departure":        fare.Departure,
				"arrival":          fare.Arrival,
				"duration_minutes": float64(fare.DurationMinutes),
				"stops":            float64(fare.Stops),
				"direct":           fare.Stops == 0,
				"cabin_class":      defaultString(fare.CabinClass, "economy"),
			},
		}

		if fare.Price != nil {
			item.Price = fare.Price.Amount
			item.PriceKnown = true
			if fare.Price.Currency != "" {
				item.Currency = fare.Price.Currency
			}
		}

		out = append(out, item)
	}

	return out, nil
}

func displayName(fare fareItem) string {
	if fare.FlightNumber != "" {
		return fare.FlightNumber
	}
	if fare.Airline.Name != "" {
		return fare.Airline.Name
	}
	return fare.ID
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
