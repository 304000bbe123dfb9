// Package fetch issues canonical queries against upstream search
// endpoints, retrying transient failures with exponential backoff and
// falling back to secondary transports when the primary is exhausted.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tripsift/tripsift/pkg/core"
)

// Pagination is server-delegated pagination metadata as returned by a
// primary search endpoint. Fallback endpoints never return it.
type Pagination struct {
	TotalResults int `json:"total_results"`
	TotalPages   int `json:"total_pages"`
	CurrentPage  int `json:"current_page"`
	PerPage      int `json:"per_page"`
}

// Response is one usable upstream result set: raw items for the provider
// transformer plus optional server-side pagination metadata.
type Response struct {
	Items      []json.RawMessage
	Pagination *Pagination
}

// Transport fetches one page of raw results for a query. Implementations
// classify their own failures: retryable ones are wrapped with
// Transient, wrong-shape bodies return ErrMalformedPayload, everything
// else is permanent for this transport.
type Transport interface {
	Name() string
	Fetch(ctx context.Context, q core.SearchQuery, params url.Values) (*Response, error)
}

// envelopeStyle selects the wire shape a transport decodes.
type envelopeStyle int

const (
	// stylePrimary: {success, items: [...], pagination?: {...}, message?}
	stylePrimary envelopeStyle = iota
	// styleFallback: {success, data: {items: [...]}}
	styleFallback
)

// HTTPTransport talks to one search endpoint over HTTP. GET requests
// carry the encoded query as URL parameters, POST requests as a form
// body.
type HTTPTransport struct {
	name     string
	endpoint string
	method   string
	style    envelopeStyle
	client   *http.Client
}

// NewPrimaryTransport creates a transport for a full-fidelity search
// endpoint returning items plus pagination metadata.
func NewPrimaryTransport(name, endpoint, method string, client *http.Client) *HTTPTransport {
	return newHTTPTransport(name, endpoint, method, stylePrimary, client)
}

// NewFallbackTransport creates a transport for a lower-fidelity endpoint
// returning bare items under a data wrapper.
func NewFallbackTransport(name, endpoint string, client *http.Client) *HTTPTransport {
	return newHTTPTransport(name, endpoint, http.MethodGet, styleFallback, client)
}

func newHTTPTransport(name, endpoint, method string, style envelopeStyle, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if method == "" {
		method = http.MethodGet
	}
	return &HTTPTransport{
		name:     name,
		endpoint: endpoint,
		method:   strings.ToUpper(method),
		style:    style,
		client:   client,
	}
}

func (t *HTTPTransport) Name() string {
	return t.name
}

func (t *HTTPTransport) Fetch(ctx context.Context, q core.SearchQuery, params url.Values) (*Response, error) {
	req, err := t.buildRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, Transient(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			fmt.Printf("Warning: failed to close response body: %v\n", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("endpoint %s returned status %d", t.name, resp.StatusCode)
		if retryableStatus(resp.StatusCode) {
			return nil, Transient(err)
		}
		return nil, err
	}

	return t.decode(resp)
}

func (t *HTTPTransport) buildRequest(ctx context.Context, params url.Values) (*http.Request, error) {
	if t.method == http.MethodPost {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(params.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	u, err := url.Parse(t.endpoint)
	if err != nil {
		return nil, err
	}
	u.RawQuery = params.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func (t *HTTPTransport) decode(resp *http.Response) (*Response, error) {
	switch t.style {
	case styleFallback:
		var envelope struct {
			Success bool `json:"success"`
			Data    struct {
				Items []json.RawMessage `json:"items"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if !envelope.Success {
			return nil, fmt.Errorf("endpoint %s reported failure", t.name)
		}
		return &Response{Items: envelope.Data.Items}, nil

	default:
		var envelope struct {
			Success    bool              `json:"success"`
			Items      []json.RawMessage `json:"items"`
			Pagination *Pagination       `json:"pagination"`
			Message    string            `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if !envelope.Success {
			msg := envelope.Message
			if msg == "" {
				msg = "no reason given"
			}
			return nil, fmt.Errorf("endpoint %s reported failure: %s", t.name, msg)
		}
		return &Response{Items: envelope.Items, Pagination: envelope.Pagination}, nil
	}
}

// retryableStatus reports whether an HTTP status is worth retrying
// against the same endpoint.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return status >= 500
}
