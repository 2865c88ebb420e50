// Package ranking scores candidate listings against a query.
package ranking

import (
	"sort"
	"strings"

	"getmyhouse/models"
)

// MaxResults caps the ranked result set.
const MaxResults = 10

type Engine struct {
	weights Weights
	limit   int
}

func NewEngine(w Weights) *Engine {
	return &Engine{weights: w, limit: MaxResults}
}

// Rank scores every candidate against q and returns at most MaxResults
// entries ordered descending by score, ties broken by ascending price,
// then by listing id. Pure function over its inputs; candidates are
// not modified. An empty candidate slice yields an empty result.
func (e *Engine) Rank(q models.Query, candidates []models.Listing) []models.ScoredListing {
	if len(candidates) == 0 {
		return nil
	}

	out := make([]models.ScoredListing, 0, len(candidates))
	for _, l := range candidates {
		out = append(out, models.ScoredListing{
			Listing: l,
			Score:   e.score(q, l),
			Query:   q,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Listing.Price != out[j].Listing.Price {
			return out[i].Listing.Price < out[j].Listing.Price
		}
		return out[i].Listing.ID < out[j].Listing.ID
	})

	if len(out) > e.limit {
		out = out[:e.limit]
	}
	return out
}

// score computes the weighted agreement between query and listing,
// normalized to [0,1]. Unset query fields score full credit, so the
// denominator is the fixed weight total.
func (e *Engine) score(q models.Query, l models.Listing) float64 {
	w := e.weights
	total := w.Total()
	if total <= 0 {
		return 0
	}

	var sum float64
	sum += w.Location * locationCredit(q, l)
	sum += w.Price * priceCredit(q, l.Price)
	sum += w.Typology * categoricalCredit(q.Typology, l.Typology)
	sum += w.PropertyType * categoricalCredit(q.PropertyType, l.PropertyType)
	sum += w.WCs * wcsCredit(q.MinWCs, l.WCs)
	sum += w.Transport * withinBoundCredit(float64(q.TransportMinutes), float64(l.TransportMinutes))
	sum += w.UsageState * categoricalCredit(q.UsageState, l.UsageState)
	sum += w.Distance * withinBoundCredit(float64(q.MaxDistanceKm), l.DistanceKm)
	sum += w.Extra * extraCredit(q.Extra, l.Description)

	return clamp01(sum / total)
}

func categoricalCredit(want, have string) float64 {
	if want == "" || strings.EqualFold(want, "any") {
		return 1
	}
	if strings.EqualFold(want, have) {
		return 1
	}
	return 0
}

func wcsCredit(minWCs, have int) float64 {
	if minWCs == models.WCsAny {
		return 1
	}
	if have >= minWCs {
		return 1
	}
	return 0
}

// withinBoundCredit scales linearly by how far inside the upper bound
// the value falls: zero at or beyond the bound, full credit at zero.
// An unset bound scores full credit.
func withinBoundCredit(bound, value float64) float64 {
	if bound <= 0 {
		return 1
	}
	if value < 0 || value > bound {
		return 0
	}
	return clamp01(1 - value/bound)
}

func priceCredit(q models.Query, price int) float64 {
	lo, hi := q.PriceMin, q.PriceMax
	if lo == 0 && hi == 0 {
		return 1
	}
	if price < lo {
		return 0
	}
	if hi == 0 {
		// Only a floor was requested.
		return 1
	}
	if price > hi {
		return 0
	}
	if hi == lo {
		return 1
	}
	return clamp01(float64(hi-price) / float64(hi-lo))
}

func locationCredit(q models.Query, l models.Listing) float64 {
	target := l.Location + " " + l.City + " " + l.Description
	return overlap(q.Location, target)
}

func extraCredit(extra, description string) float64 {
	return overlap(extra, description)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
