package iflytek

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenResolver fetches a signed endpoint from a trusted backend, for
// processes that must not hold the signing secret themselves.
type TokenResolver struct {
	// TokenURL is the full URL of the token endpoint, e.g.
	// https://example.com/api/voice/token.
	TokenURL string

	client *http.Client
}

func NewTokenResolver(tokenURL string) *TokenResolver {
	return &TokenResolver{
		TokenURL: tokenURL,
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

func (r *TokenResolver) ResolveEndpoint(ctx context.Context) (SignedEndpoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.TokenURL, nil)
	if err != nil {
		return SignedEndpoint{}, fmt.Errorf("failed to build token request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return SignedEndpoint{}, fmt.Errorf("failed to fetch signed endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SignedEndpoint{}, fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var endpoint SignedEndpoint
	if err := json.NewDecoder(resp.Body).Decode(&endpoint); err != nil {
		return SignedEndpoint{}, fmt.Errorf("failed to decode signed endpoint: %w", err)
	}
	if endpoint.URL == "" {
		return SignedEndpoint{}, fmt.Errorf("token endpoint returned an empty url")
	}

	return endpoint, nil
}
