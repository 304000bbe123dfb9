// Package hotels is the hotel-search provider plug-in.
package hotels

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tripsift/tripsift/pkg/core"
)

func init() {
	core.RegisterProviderPrototype("hotels", &Provider{})
}

type Config struct {
	Endpoint          string            `toml:"endpoint"`
	FallbackEndpoints []string          `toml:"fallback_endpoints"`
	SuggestEndpoint   string            `toml:"suggest_endpoint"`
	Method            string            `toml:"method"`
	Currency          string            `toml:"currency"`
	Aliases           map[string]string `toml:"aliases"`
}

func (c *Config) Validate() error {
	if c.Method == "" {
		c.Method = "POST"
	}
	switch strings.ToUpper(c.Method) {
	case "GET", "POST":
	default:
		return fmt.Errorf("unsupported method %q", c.Method)
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	return nil
}

type Provider struct {
	config       *Config
	instanceName string
}

func NewProvider(instanceName string, config interface{}) (core.Provider, error) {
	var cfg *Config
	if config == nil {
		cfg = &Config{}
	} else {
		var ok bool
		cfg, ok = config.(*Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type for hotels provider")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Provider{config: cfg, instanceName: instanceName}, nil
}

func (p *Provider) Type() string {
	return "hotels"
}

func (p *Provider) Name() string {
	return p.instanceName
}

func (p *Provider) Domain() core.Domain {
	return core.DomainHotel
}

var builtinAliases = map[string]core.CanonicalLocation{
	"singapore":    {Code: "SIN", DisplayName: "Singapore"},
	"kuala lumpur": {Code: "KUL", DisplayName: "Kuala Lumpur"},
	"bangkok":      {Code: "BKK", DisplayName: "Bangkok"},
	"bali":         {Code: "DPS", DisplayName: "Bali"},
	"tokyo":        {Code: "TYO", DisplayName: "Tokyo"},
	"paris":        {Code: "PAR", DisplayName: "Paris"},
	"rome":         {Code: "ROM", DisplayName: "Rome"},
}

func (p *Provider) Aliases() map[string]core.CanonicalLocation {
	table := make(map[string]core.CanonicalLocation, len(builtinAliases)+len(p.config.Aliases))
	for name, loc := range builtinAliases {
		table[name] = loc
	}
	for name, code := range p.config.Aliases {
		table[strings.ToLower(name)] = core.CanonicalLocation{Code: code, DisplayName: name}
	}
	return table
}

func (p *Provider) Endpoints() core.Endpoints {
	return core.Endpoints{
		Primary:   p.config.Endpoint,
		Fallbacks: p.config.FallbackEndpoints,
		Suggest:   p.config.SuggestEndpoint,
		Method:    strings.ToUpper(p.config.Method),
	}
}

func (p *Provider) EncodeQuery(q core.SearchQuery) url.Values {
	v := url.Values{}
	v.Set("city", q.Location.Code)
	v.Set("check_in", q.StartDate.Format("2006-01-02"))
	if !q.EndDate.IsZero() {
		v.Set("check_out", q.EndDate.Format("2006-01-02"))
	}
	v.Set("guests", strconv.Itoa(q.Guests))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	return v
}

func (p *Provider) ConfigType() interface{} {
	return &Config{}
}

func (p *Provider) SetConfig(config interface{}) error {
	if cfg, ok := config.(*Config); ok {
		if err := cfg.Validate(); err != nil {
			return err
		}
		p.config = cfg
		return nil
	}
	return fmt.Errorf("invalid config type for hotels provider")
}

func (p *Provider) GetConfig() interface{} {
	return p.config
}

func (p *Provider) Close() error {
	return nil
}

func (p *Provider) Factory(instanceName string, config interface{}) (core.Provider, error) {
	return NewProvider(instanceName, config)
}
