package search

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"getmyhouse/identity"
	"getmyhouse/models"
)

// Fetcher fans a query out to all configured providers and gathers the
// results. Provider failures degrade to an empty contribution; the
// caller must treat an empty result as "no matches or source
// unavailable", never as an error.
type Fetcher struct {
	providers  []Provider // priority order, first wins on dedupe
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
}

func NewFetcher(providers []Provider, maxRetries int, backoff, timeout time.Duration) *Fetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		providers:  providers,
		maxRetries: maxRetries,
		backoff:    backoff,
		timeout:    timeout,
	}
}

// Fetch runs all providers concurrently and joins before returning.
// Results keep provider-priority order with duplicates (same source
// link) removed, first occurrence wins.
func (f *Fetcher) Fetch(ctx context.Context, q models.Query) ([]models.Listing, []models.FetchEvent) {
	type outcome struct {
		listings []models.Listing
		event    models.FetchEvent
	}

	outcomes := make([]outcome, len(f.providers))
	var wg sync.WaitGroup

	for i, p := range f.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			listings, attempts, err := f.fetchWithRetry(ctx, p, q)
			event := models.FetchEvent{
				ProviderID: p.ID(),
				Timestamp:  time.Now(),
				Attempts:   attempts,
			}
			if err != nil {
				event.Level = models.LogLevelError
				event.Message = fmt.Sprintf("provider skipped after %d attempts: %v", attempts, err)
				log.Printf("Fetch: %s", event.Message)
			} else {
				event.Level = models.LogLevelInfo
				event.Message = fmt.Sprintf("%d listings", len(listings))
			}
			outcomes[i] = outcome{listings: listings, event: event}
		}(i, p)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var merged []models.Listing
	events := make([]models.FetchEvent, 0, len(f.providers))
	for _, o := range outcomes {
		events = append(events, o.event)
		for _, l := range o.listings {
			// Same source link means same listing, whatever metadata
			// each provider scraped around it.
			key := identity.NormalizeURL(l.URL)
			if key == "" {
				key = identity.Fingerprint(&l)
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, l)
		}
	}
	return merged, events
}

// fetchWithRetry calls one provider with a per-attempt timeout and
// exponential backoff between attempts. A cancelled call counts as a
// failed one.
func (f *Fetcher) fetchWithRetry(ctx context.Context, p Provider, q models.Query) ([]models.Listing, int, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoff << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, attempts, &ProviderError{Provider: p.ID(), Err: ctx.Err()}
			}
		}

		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		listings, err := p.Fetch(attemptCtx, q)
		cancel()
		if err == nil {
			return listings, attempts, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return nil, attempts, &ProviderError{Provider: p.ID(), Err: lastErr}
}
