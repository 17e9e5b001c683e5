package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenHeader carries the caller's token both inbound and towards the identity service.
const TokenHeader = "X-CSRF-Token"

// HTTPClient looks tokens up against the upstream identity endpoint.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient returns a client for url. Requests are traced and bounded by timeout.
func NewHTTPClient(url string, timeout time.Duration) (*HTTPClient, error) {
	if url == "" {
		return nil, errors.New("identity url is required")
	}
	return &HTTPClient{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (c *HTTPClient) Lookup(ctx context.Context, token string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set(TokenHeader, token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %w", ErrUnavailable, err)
	}
	if p.RegNumber == "" {
		return nil, ErrInvalidToken
	}
	return &p, nil
}
