// Package search fetches candidate listings from configured providers.
package search

import (
	"context"
	"fmt"

	"getmyhouse/config"
	"getmyhouse/httputil"
	"getmyhouse/models"
)

// Provider is one upstream source of listings.
type Provider interface {
	ID() string
	Fetch(ctx context.Context, q models.Query) ([]models.Listing, error)
}

// ProviderError wraps a single provider failure. Provider errors are
// retried, then absorbed: the fetcher records a fallback event and
// moves on with the remaining providers.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProvider builds a provider from its config.
func NewProvider(cfg *config.ProviderConfig, clients *httputil.Clients) (Provider, error) {
	switch cfg.Kind {
	case "mock", "":
		return NewMockProvider(cfg), nil
	case "feed":
		return NewFeedProvider(cfg, clients.Feed), nil
	case "html":
		return NewHTMLProvider(cfg, clients.Feed), nil
	default:
		return nil, fmt.Errorf("unknown provider kind: %s", cfg.Kind)
	}
}
