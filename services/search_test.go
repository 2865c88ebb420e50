package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"getmyhouse/config"
	"getmyhouse/models"
	"getmyhouse/query"
	"getmyhouse/ranking"
	"getmyhouse/search"
	"getmyhouse/storage"
)

func newTestService(t *testing.T) *SearchService {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mock := search.NewMockProvider(&config.ProviderConfig{ID: "mock", Kind: "mock"})
	fetcher := search.NewFetcher([]search.Provider{mock}, 1, time.Millisecond, time.Second)
	engine := ranking.NewEngine(ranking.DefaultWeights())

	return NewSearchService(store, fetcher, engine)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestSearchAppendsTurns(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Search(ctx, "s1", models.Patch{
		Country:  strPtr("Portugal"),
		Location: strPtr("Lisboa"),
	})
	if err != nil {
		t.Fatalf("first search failed: %v", err)
	}
	if first.TurnIndex != 0 {
		t.Fatalf("expected turn 0, got %d", first.TurnIndex)
	}
	if len(first.Results) == 0 {
		t.Fatalf("expected results for Lisboa")
	}
	if len(first.Results) > ranking.MaxResults {
		t.Fatalf("expected at most %d results, got %d", ranking.MaxResults, len(first.Results))
	}

	second, err := svc.Search(ctx, "s1", models.Patch{Typology: strPtr("T2")})
	if err != nil {
		t.Fatalf("second search failed: %v", err)
	}
	if second.TurnIndex != 1 {
		t.Fatalf("expected turn 1, got %d", second.TurnIndex)
	}
	// Location carries over from the first turn.
	if second.Query.Location != "Lisboa" {
		t.Fatalf("refinement lost location: %q", second.Query.Location)
	}
	if second.Query.Typology != "T2" {
		t.Fatalf("refinement lost typology: %q", second.Query.Typology)
	}
	for _, r := range second.Results {
		if r.Listing.Typology != "T2" {
			t.Fatalf("expected T2 results after refinement, got %s", r.Listing.Typology)
		}
	}

	history, err := svc.History(ctx, "s1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(history))
	}
}

func TestSearchValidationSurfaces(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Search(context.Background(), "s1", models.Patch{})
	if err == nil {
		t.Fatalf("expected validation error without location")
	}
	var verr *query.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestSearchEmptySessionID(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Search(context.Background(), "", models.Patch{Location: strPtr("Lisboa")}); err == nil {
		t.Fatalf("expected error for empty session id")
	}
}

func TestSearchRefinementNarrowsPrice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Search(ctx, "s2", models.Patch{Location: strPtr("Porto")}); err != nil {
		t.Fatalf("initial search failed: %v", err)
	}

	refined, err := svc.Search(ctx, "s2", models.Patch{
		PriceMin: intPtr(100000),
		PriceMax: intPtr(250000),
	})
	if err != nil {
		t.Fatalf("refined search failed: %v", err)
	}
	for _, r := range refined.Results {
		if r.Listing.Price < 100000 || r.Listing.Price > 250000 {
			t.Fatalf("result price %d outside refined range", r.Listing.Price)
		}
	}
}
