package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"getmyhouse/config"
	"getmyhouse/models"
)

var testProviderConfig = config.ProviderConfig{ID: "mock", Name: "Mock data", Kind: "mock"}

type stubProvider struct {
	id       string
	listings []models.Listing
	err      error
	calls    int32
}

func (p *stubProvider) ID() string { return p.id }

func (p *stubProvider) Fetch(ctx context.Context, q models.Query) ([]models.Listing, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.err != nil {
		return nil, p.err
	}
	return p.listings, nil
}

func newTestFetcher(providers ...Provider) *Fetcher {
	return NewFetcher(providers, 2, time.Millisecond, time.Second)
}

func TestFetchDedupeKeepsFirstProvider(t *testing.T) {
	shared := "https://www.example.pt/property/123"
	first := &stubProvider{id: "primary", listings: []models.Listing{
		{ID: "1", URL: shared, Location: "Lisboa", Typology: "T2", Agency: "Primary"},
		{ID: "2", URL: "https://www.example.pt/property/456", Location: "Lisboa", Typology: "T1"},
	}}
	second := &stubProvider{id: "secondary", listings: []models.Listing{
		{ID: "3", URL: shared + "?utm_source=feed", Location: "Lisboa", Typology: "T2", Agency: "Secondary"},
		{ID: "4", URL: "https://www.example.pt/property/789", Location: "Porto", Typology: "T3"},
	}}

	listings, events := newTestFetcher(first, second).Fetch(context.Background(), models.Query{Location: "Lisboa"})

	if len(listings) != 3 {
		t.Fatalf("expected 3 deduped listings, got %d", len(listings))
	}
	if listings[0].Agency != "Primary" {
		t.Fatalf("expected first provider to win dedupe, got agency %q", listings[0].Agency)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, e := range events {
		if e.Level != models.LogLevelInfo {
			t.Fatalf("expected info events, got %s: %s", e.Level, e.Message)
		}
	}
}

func TestFetchDedupeSameLinkDifferentMetadata(t *testing.T) {
	link := "https://www.example.pt/property/123"
	feed := &stubProvider{id: "feed", listings: []models.Listing{
		{ID: "1", URL: link, Location: "Lisboa", Typology: "T2", Agency: "Feed"},
	}}
	page := &stubProvider{id: "page", listings: []models.Listing{
		{ID: "2", URL: link + "/?utm_source=portal", Location: "Lisboa, Centro Histórico", Typology: "t2", Agency: "Page"},
	}}

	listings, _ := newTestFetcher(feed, page).Fetch(context.Background(), models.Query{Location: "Lisboa"})

	if len(listings) != 1 {
		t.Fatalf("expected same source link to dedupe to 1 listing, got %d", len(listings))
	}
	if listings[0].Agency != "Feed" {
		t.Fatalf("expected first provider to win dedupe, got agency %q", listings[0].Agency)
	}
}

func TestFetchDedupeWithoutLinkKeepsDistinctListings(t *testing.T) {
	a := &stubProvider{id: "a", listings: []models.Listing{
		{ID: "1", Location: "Lisboa", Typology: "T2"},
		{ID: "2", Location: "Porto", Typology: "T3"},
	}}

	listings, _ := newTestFetcher(a).Fetch(context.Background(), models.Query{Location: "Lisboa"})

	if len(listings) != 2 {
		t.Fatalf("expected linkless listings with different metadata to survive, got %d", len(listings))
	}
}

func TestFetchAllProvidersFail(t *testing.T) {
	boom := errors.New("boom")
	a := &stubProvider{id: "a", err: boom}
	b := &stubProvider{id: "b", err: boom}

	listings, events := newTestFetcher(a, b).Fetch(context.Background(), models.Query{Location: "Lisboa"})

	if len(listings) != 0 {
		t.Fatalf("expected empty result, got %d", len(listings))
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, e := range events {
		if e.Level != models.LogLevelError {
			t.Fatalf("expected error events, got %s", e.Level)
		}
	}
}

func TestFetchRetriesBoundedCount(t *testing.T) {
	p := &stubProvider{id: "flaky", err: errors.New("timeout")}

	newTestFetcher(p).Fetch(context.Background(), models.Query{Location: "Lisboa"})

	// 1 initial attempt + 2 retries.
	if got := atomic.LoadInt32(&p.calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestFetchPartialFailure(t *testing.T) {
	healthy := &stubProvider{id: "ok", listings: []models.Listing{
		{ID: "1", URL: "https://www.example.pt/property/1", Location: "Faro", Typology: "T1"},
	}}
	broken := &stubProvider{id: "down", err: errors.New("503")}

	listings, events := newTestFetcher(broken, healthy).Fetch(context.Background(), models.Query{Location: "Faro"})

	if len(listings) != 1 {
		t.Fatalf("expected 1 listing from healthy provider, got %d", len(listings))
	}
	failed := 0
	for _, e := range events {
		if e.Level == models.LogLevelError {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("expected 1 failed provider event, got %d", failed)
	}
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &stubProvider{id: "mock"}
	listings, events := newTestFetcher(p).Fetch(ctx, models.Query{Location: "Lisboa"})

	if len(listings) != 0 {
		t.Fatalf("expected no listings on cancelled context, got %d", len(listings))
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestMockProviderFiltering(t *testing.T) {
	p := NewMockProvider(&testProviderConfig)

	q := models.Query{
		Country:  "Portugal",
		Location: "Lisboa",
		Typology: "T2",
		PriceMin: 90000,
		PriceMax: 280000,
	}
	listings, err := p.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(listings) == 0 {
		t.Fatalf("expected mock listings for Lisboa T2")
	}
	for _, l := range listings {
		if l.Typology != "T2" {
			t.Fatalf("expected only T2 listings, got %s", l.Typology)
		}
		if l.Price < q.PriceMin || l.Price > q.PriceMax {
			t.Fatalf("price %d outside requested range", l.Price)
		}
		if l.City != "Lisboa" {
			t.Fatalf("expected Lisboa listings, got %s", l.City)
		}
	}
}

func TestMockProviderDeterministic(t *testing.T) {
	p := NewMockProvider(&testProviderConfig)
	q := models.Query{Country: "Portugal", Location: "Porto"}

	first, _ := p.Fetch(context.Background(), q)
	second, _ := p.Fetch(context.Background(), q)

	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("expected stable results, got %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Price != second[i].Price {
			t.Fatalf("mock data not deterministic at %d", i)
		}
	}
}
