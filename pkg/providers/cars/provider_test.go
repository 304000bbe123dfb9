package cars

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/fetch"
)

func newTestProvider(t *testing.T, cfg *Config) *Provider {
	t.Helper()
	p, err := NewProvider("cars-test", cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return p.(*Provider)
}

func TestEncodeQuery(t *testing.T) {
	p := newTestProvider(t, nil)

	q := core.SearchQuery{
		Domain:    core.DomainCar,
		Location:  core.CanonicalLocation{Code: "DPS"},
		StartDate: time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 8, 14, 0, 0, 0, 0, time.UTC),
		Page:      2,
		PerPage:   10,
	}

	v := p.EncodeQuery(q)
	if v.Get("pickup_code") != "DPS" {
		t.Errorf("unexpected pickup_code: %q", v.Get("pickup_code"))
	}
	if v.Get("pickup_date") != "2024-08-10" || v.Get("dropoff_date") != "2024-08-14" {
		t.Errorf("unexpected rental dates: %v", v)
	}
	if v.Get("page") != "2" || v.Get("per_page") != "10" {
		t.Errorf("unexpected paging params: %v", v)
	}
}

func TestTransform(t *testing.T) {
	p := newTestProvider(t, &Config{Currency: "EUR"})

	priced := json.RawMessage(`{
		"id": "c-3", "model": "Toyota Yaris",
		"vendor": {"code": "HZ", "name": "Hertz"},
		"car_class": "compact", "transmission": "automatic", "seats": 5,
		"pickup_code": "DPS",
		"total_price": {"amount": 96000, "currency": "IDR"},
		"unlimited_mileage": true
	}`)
	unpriced := json.RawMessage(`{"model": "Suzuki Swift", "vendor": {"code": "AV"}, "pickup_code": "DPS"}`)

	items, err := p.Transform([]json.RawMessage{priced, unpriced})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if !items[0].PriceKnown || items[0].Price != 96000 || items[0].Currency != "IDR" {
		t.Errorf("unexpected priced item: %+v", items[0])
	}
	if got := items[0].StringField("category"); got != "compact" {
		t.Errorf("unexpected category: %q", got)
	}

	if items[1].PriceKnown {
		t.Error("missing upstream price must not be fabricated")
	}
	if items[1].Currency != "EUR" {
		t.Errorf("expected configured currency for unpriced item, got %q", items[1].Currency)
	}
	if items[1].ID != "AV-Suzuki Swift-DPS" {
		t.Errorf("unexpected derived ID: %q", items[1].ID)
	}
	if got := items[1].StringField("category"); got != "economy" {
		t.Errorf("expected default car class, got %q", got)
	}
}

func TestTransformMalformed(t *testing.T) {
	p := newTestProvider(t, nil)

	_, err := p.Transform([]json.RawMessage{json.RawMessage(`{"irrelevant": 1}`)})
	if !errors.Is(err, fetch.ErrMalformedPayload) {
		t.Errorf("expected malformed-payload error, got %v", err)
	}
}
