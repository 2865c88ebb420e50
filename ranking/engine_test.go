package ranking

import (
	"fmt"
	"testing"

	"getmyhouse/models"
)

func TestRankEmptyCandidates(t *testing.T) {
	engine := NewEngine(DefaultWeights())
	got := engine.Rank(models.Query{Location: "Lisboa"}, nil)
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestRankPrefersRequestedTypology(t *testing.T) {
	engine := NewEngine(DefaultWeights())
	q := models.Query{
		Location: "Lisbon",
		Typology: "T2",
		PriceMin: 150000,
		PriceMax: 300000,
	}
	candidates := []models.Listing{
		{ID: "a", Typology: "T3", Price: 180000, Location: "Lisbon", Description: "T3 flat in Lisbon"},
		{ID: "b", Typology: "T2", Price: 200000, Location: "Lisbon", Description: "T2 flat in Lisbon"},
	}

	got := engine.Rank(q, candidates)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Listing.Typology != "T2" {
		t.Fatalf("expected T2 ranked first, got %s", got[0].Listing.Typology)
	}
	if got[0].Score <= got[1].Score {
		t.Fatalf("expected strict ordering, got %f vs %f", got[0].Score, got[1].Score)
	}
}

func TestRankOrderingAndTieBreaks(t *testing.T) {
	engine := NewEngine(DefaultWeights())
	q := models.Query{Location: "Braga"}

	// Identical listings except price and id: all scores tie.
	candidates := []models.Listing{
		{ID: "c", Price: 200000, Location: "Braga", Description: "flat in Braga"},
		{ID: "a", Price: 100000, Location: "Braga", Description: "flat in Braga"},
		{ID: "b", Price: 100000, Location: "Braga", Description: "flat in Braga"},
	}

	got := engine.Rank(q, candidates)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Fatalf("result not sorted by score at %d", i)
		}
	}
	if got[0].Listing.ID != "a" || got[1].Listing.ID != "b" || got[2].Listing.ID != "c" {
		t.Fatalf("tie-break order wrong: %s %s %s",
			got[0].Listing.ID, got[1].Listing.ID, got[2].Listing.ID)
	}
}

func TestRankAllZeroScoresStillOrdered(t *testing.T) {
	weights := Weights{Location: 1} // only location discriminates
	engine := NewEngine(weights)
	q := models.Query{Location: "Faro"}

	candidates := []models.Listing{
		{ID: "z", Price: 90000, Location: "Porto", Description: "Porto"},
		{ID: "y", Price: 80000, Location: "Porto", Description: "Porto"},
	}

	got := engine.Rank(q, candidates)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, r := range got {
		if r.Score != 0 {
			t.Fatalf("expected zero score, got %f", r.Score)
		}
	}
	if got[0].Listing.ID != "y" {
		t.Fatalf("expected cheaper listing first, got %s", got[0].Listing.ID)
	}
}

func TestRankTruncatesToTen(t *testing.T) {
	engine := NewEngine(DefaultWeights())
	var candidates []models.Listing
	for i := 0; i < 25; i++ {
		candidates = append(candidates, models.Listing{
			ID:       fmt.Sprintf("l%02d", i),
			Price:    100000 + i*1000,
			Location: "Lisboa",
		})
	}

	got := engine.Rank(models.Query{Location: "Lisboa"}, candidates)
	if len(got) != MaxResults {
		t.Fatalf("expected %d results, got %d", MaxResults, len(got))
	}
}

func TestRankScoreBounds(t *testing.T) {
	engine := NewEngine(DefaultWeights())
	q := models.Query{
		Location:         "Lisboa",
		PropertyType:     "flat",
		Typology:         "T2",
		MinWCs:           2,
		UsageState:       "used",
		PriceMin:         100000,
		PriceMax:         300000,
		MaxDistanceKm:    5,
		TransportMinutes: 15,
		Extra:            "balcony parking",
	}
	perfect := models.Listing{
		ID: "p", Location: "Lisboa", City: "Lisboa",
		PropertyType: "flat", Typology: "T2", WCs: 2, UsageState: "used",
		Price: 100000, DistanceKm: 0, TransportMinutes: 0,
		Description: "flat with balcony and parking in Lisboa",
	}
	wrong := models.Listing{
		ID: "w", Location: "Porto", City: "Porto",
		PropertyType: "house", Typology: "T4", WCs: 1, UsageState: "new",
		Price: 900000, DistanceKm: 50, TransportMinutes: 60,
		Description: "house in Porto",
	}

	got := engine.Rank(q, []models.Listing{wrong, perfect})
	if got[0].Listing.ID != "p" {
		t.Fatalf("expected perfect match first")
	}
	if got[0].Score != 1 {
		t.Fatalf("expected full score, got %f", got[0].Score)
	}
	if got[1].Score != 0 {
		t.Fatalf("expected zero score, got %f", got[1].Score)
	}
}

func TestRankUnsetFieldsFullCredit(t *testing.T) {
	engine := NewEngine(DefaultWeights())
	q := models.Query{Location: "Coimbra"}
	l := models.Listing{
		ID: "x", Location: "Coimbra", Typology: "T4+", PropertyType: "house",
		Price: 650000, WCs: 3, UsageState: "recovery",
		Description: "house in Coimbra",
	}

	got := engine.Rank(q, []models.Listing{l})
	if got[0].Score != 1 {
		t.Fatalf("unset query fields should score full credit, got %f", got[0].Score)
	}
}

func TestOverlap(t *testing.T) {
	cases := []struct {
		query, target string
		want          float64
	}{
		{"", "anything", 1},
		{"lisboa", "flat in Lisboa", 1},
		{"Lisboa centro", "Lisboa district", 0.5},
		{"garden pool", "no amenities listed", 0},
	}
	for _, tc := range cases {
		if got := overlap(tc.query, tc.target); got != tc.want {
			t.Fatalf("overlap(%q, %q) = %f, want %f", tc.query, tc.target, got, tc.want)
		}
	}
}

func TestPriceCredit(t *testing.T) {
	q := models.Query{PriceMin: 100000, PriceMax: 300000}
	cases := []struct {
		price int
		want  float64
	}{
		{100000, 1},
		{200000, 0.5},
		{300000, 0},
		{99999, 0},
		{300001, 0},
	}
	for _, tc := range cases {
		if got := priceCredit(q, tc.price); got != tc.want {
			t.Fatalf("priceCredit(%d) = %f, want %f", tc.price, got, tc.want)
		}
	}

	if got := priceCredit(models.Query{}, 5); got != 1 {
		t.Fatalf("unset range should score full credit, got %f", got)
	}
	if got := priceCredit(models.Query{PriceMin: 100}, 200); got != 1 {
		t.Fatalf("floor-only range above floor should score full credit, got %f", got)
	}
}
