package cars

import (
	"encoding/json"
	"fmt"

	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/fetch"
)

// rentalItem is the upstream car-rental payload.
type rentalItem struct {
	ID     string `json:"id"`
	Vendor struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"vendor"`
	Model        string `json:"model"`
	CarClass     string `json:"car_class"`
	Transmission string `json:"transmission"`
	Seats        int    `json:"seats"`
	PickupCode   string `json:"pickup_code"`
	TotalPrice   *struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"total_price"`
	UnlimitedMileage bool `json:"unlimited_mileage"`
}

// Transform maps raw rental payloads into canonical result items.
func (p *Provider) Transform(items []json.RawMessage) ([]core.ResultItem, error) {
	out := make([]core.ResultItem, 0, len(items))

	for i, raw := range items {
		var rental rentalItem
		if err := json.Unmarshal(raw, &rental); err != nil {
			return nil, fmt.Errorf("%w: rental item %d: %v", fetch.ErrMalformedPayload, i, err)
		}
		if rental.ID == "" && rental.Model == "" && rental.Vendor.Code == "" {
			return nil, fmt.Errorf("%w: rental item %d carries no recognizable fields", fetch.ErrMalformedPayload, i)
		}

		id := rental.ID
		if id == "" {
			id = fmt.Sprintf("%s-%s-%s", rental.Vendor.Code, rental.Model, rental.PickupCode)
		}

		item := core.ResultItem{
			Kind:     string(core.DomainCar),
			ID:       id,
			Currency: p.config.Currency,
			Raw:      raw,
			Fields: map[string]any{
				"name":              rental.Model,
				"category":          carClass(rental),
				"vendor":            rental.Vendor.Name,
				"transmission":      rental.Transmission,
				"seats":             float64(rental.Seats),
				"pickup_code":       rental.PickupCode,
				"unlimited_mileage": rental.UnlimitedMileage,
			},
		}

		if rental.TotalPrice != nil {
			item.Price = rental.TotalPrice.Amount
			item.PriceKnown = true
			if rental.TotalPrice.Currency != "" {
				item.Currency = rental.TotalPrice.Currency
			}
		}

		out = append(out, item)
	}

	return out, nil
}

func carClass(rental rentalItem) string {
	if rental.CarClass == "" {
		return "economy"
	}
	return rental.CarClass
}
