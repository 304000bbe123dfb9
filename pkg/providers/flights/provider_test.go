package flights

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
	p, err := NewProvider("flights-test", cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return p.(*Provider)
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := &Config{Endpoint: "https://fares.example.com/search"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Method != "GET" {
		t.Errorf("expected default method GET, got %q", cfg.Method)
	}
	if cfg.Currency != "USD" {
		t.Errorf("expected default currency USD, got %q", cfg.Currency)
	}

	bad := &Config{Method: "PATCH"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unsupported method")
	}
}

func TestEncodeQuery(t *testing.T) {
	p := newTestProvider(t, nil)

	q := core.SearchQuery{
		Domain:      core.DomainFlight,
		Origin:      core.CanonicalLocation{Code: "KUL"},
		Destination: core.CanonicalLocation{Code: "DAD"},
		StartDate:   time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Guests:      2,
		Page:        1,
		PerPage:     20,
	}

	v := p.EncodeQuery(q)
	if v.Get("origin") != "KUL" || v.Get("destination") != "DAD" {
		t.Errorf("unexpected route params: %v", v)
	}
	if v.Get("depart_date") != "2024-06-15" {
		t.Errorf("unexpected depart_date: %q", v.Get("depart_date"))
	}
	if v.Get("return_date") != "" {
		t.Errorf("one-way query should not carry return_date, got %q", v.Get("return_date"))
	}
	if v.Get("passengers") != "2" {
		t.Errorf("unexpected passengers: %q", v.Get("passengers"))
	}
}

func TestAliasesMergeConfigOverBuiltin(t *testing.T) {
	p := newTestProvider(t, &Config{
		Aliases: map[string]string{"Kuala Lumpur": "XKL", "penang": "PEN"},
	})

	table := p.Aliases()
	if table["kuala lumpur"].Code != "XKL" {
		t.Errorf("config alias should win over builtin, got %q", table["kuala lumpur"].Code)
	}
	if table["penang"].Code != "PEN" {
		t.Errorf("missing config alias, got %q", table["penang"].Code)
	}
	if table["da nang"].Code != "DAD" {
		t.Errorf("builtin alias lost, got %q", table["da nang"].Code)
	}
}

func TestTransform(t *testing.T) {
	p := newTestProvider(t, nil)

	priced := json.RawMessage(`{
		"id": "f-1", "flight_number": "AK512",
		"airline": {"code": "AK", "name": "AirAsia"},
		"origin": "KUL", "destination": "DAD",
		"departure": "2024-06-15T08:30:00Z",
		"duration_minutes": 165, "stops": 0,
		"price": {"amount": 42000, "currency": "MYR"}
	}`)
	unpriced := json.RawMessage(`{
		"flight_number": "VN337",
		"airline": {"code": "VN", "name": "Vietnam Airlines"},
		"origin": "KUL", "destination": "DAD",
		"departure": "2024-06-15T11:00:00Z",
		"stops": 1
	}`)

	items, err := p.Transform([]json.RawMessage{priced, unpriced})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if !items[0].PriceKnown || items[0].Price != 42000 || items[0].Currency != "MYR" {
		t.Errorf("unexpected priced item: %+v", items[0])
	}
	if !items[0].BoolField("direct") {
		t.Error("non-stop fare should be direct")
	}

	if items[1].PriceKnown {
		t.Error("missing upstream price must not be fabricated")
	}
	if items[1].Price != 0 {
		t.Errorf("unpriced item should carry zero amount, got %d", items[1].Price)
	}
	if items[1].ID == "" {
		t.Error("expected derived ID for item without explicit id")
	}
	if got := items[1].StringField("cabin_class"); got != "economy" {
		t.Errorf("expected default cabin class, got %q", got)
	}
}

func TestTransformMalformed(t *testing.T) {
	p := newTestProvider(t, nil)

	for _, raw := range []json.RawMessage{
		json.RawMessage(`"just a string"`),
		json.RawMessage(`{"unrelated": true}`),
	} {
		_, err := p.Transform([]json.RawMessage{raw})
		if !errors.Is(err, fetch.ErrMalformedPayload) {
			t.Errorf("payload %s: expected malformed-payload error, got %v", raw, err)
		}
	}
}
