package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SuggestClient consumes a provider suggestion endpoint. The normalizer
// uses it to augment its static alias table with entries the upstream
// knows about.
type SuggestClient struct {
	endpoint string
	client   *http.Client
}

// NewSuggestClient creates a client for the given suggestion endpoint.
// A nil http client gets a sane default timeout.
func NewSuggestClient(endpoint string, client *http.Client) *SuggestClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SuggestClient{endpoint: endpoint, client: client}
}

// Suggest fetches suggestion strings for the given text.
func (c *SuggestClient) Suggest(ctx context.Context, text string) ([]string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, err
	}
	v := u.Query()
	v.Set("q", text)
	u.RawQuery = v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			fmt.Printf("Warning: failed to close response body: %v\n", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggestion request failed with status %d", resp.StatusCode)
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Suggestions []string `json:"suggestions"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("suggestion endpoint reported failure")
	}

	return envelope.Data.Suggestions, nil
}
