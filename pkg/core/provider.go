package core

import (
	"encoding/json"
	"net/url"
)

// Endpoints describes where a provider's data lives on the wire.
// The fetch executor tries Primary with retries, then each Fallback once
// in order. Suggest is consumed by the normalizer for alias lookups and
// may be empty when a provider offers no suggestion endpoint.
type Endpoints struct {
	Primary   string
	Fallbacks []string
	Suggest   string
	// Method is the HTTP method for search requests, "GET" or "POST".
	Method string
}

// Provider is a travel domain plug-in. The pipeline itself is generic;
// a provider contributes only the domain-specific pieces: how locations
// resolve, how a canonical query maps onto wire fields, and how the
// upstream payload maps back into canonical result items.
//
// Type vs Name follows the usual pattern: Type is the provider category
// (e.g. "skyfare"), Name is the configured instance (e.g. "skyfare_eu").
//
// Registration pattern:
//
//	func init() {
//		RegisterProviderPrototype("skyfare", &Provider{})
//	}
type Provider interface {
	// Type returns the provider type identifier, a constant string used
	// for factory registration and configuration matching.
	Type() string

	// Name returns the unique instance name for this provider.
	Name() string

	// Domain returns the travel vertical this provider serves.
	Domain() Domain

	// Aliases returns the provider's static location alias table,
	// mapping lowercase display names to canonical locations. The
	// normalizer consults this table before falling back to the
	// suggestion endpoint.
	Aliases() map[string]CanonicalLocation

	// Endpoints returns the transport endpoints for this provider.
	Endpoints() Endpoints

	// EncodeQuery maps a canonical query onto the provider's wire
	// fields. The fetch executor sends these as query parameters for
	// GET endpoints and as a form body for POST endpoints.
	EncodeQuery(q SearchQuery) url.Values

	// Transform maps raw upstream items into canonical result items.
	// It must tolerate sparse-but-well-formed items (substituting
	// documented defaults and flagging missing prices) and fail with
	// fetch.ErrMalformedPayload semantics only when an item has the
	// wrong shape entirely.
	Transform(items []json.RawMessage) ([]ResultItem, error)

	// ConfigType returns a pointer to an empty configuration struct of
	// the type SetConfig expects.
	ConfigType() interface{}

	// SetConfig validates and applies a configuration.
	SetConfig(config interface{}) error

	// GetConfig returns the current configuration.
	GetConfig() interface{}

	// Close releases any resources held by the provider.
	Close() error

	// Factory creates a fully initialized instance of this provider
	// type. Called by the registry when instantiating configured
	// providers.
	Factory(instanceName string, config interface{}) (Provider, error)
}
