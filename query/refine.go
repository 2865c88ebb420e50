// Package query merges refinement patches into executable queries.
package query

import (
	"fmt"
	"strings"

	"getmyhouse/models"
)

// Defaults applied when a refinement has no previous query to build on.
const (
	DefaultDistanceKm = 1
	DefaultMinWCs     = models.WCsAny
	DefaultTransport  = models.TransportAny
)

// ValidationError reports a malformed query or patch. It is surfaced
// to the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query: %s %s", e.Field, e.Reason)
}

// Refine merges patch over prev field by field: set patch fields win,
// unset fields keep the previous value. With no previous query, the
// distance/WCs/transport defaults apply and everything else stays
// unset. Pure function; neither input is modified.
func Refine(prev *models.Query, patch models.Patch) (models.Query, error) {
	var q models.Query
	if prev != nil {
		q = *prev
	} else {
		q.MaxDistanceKm = DefaultDistanceKm
		q.MinWCs = DefaultMinWCs
		q.TransportMinutes = DefaultTransport
	}

	if patch.Country != nil {
		q.Country = *patch.Country
	}
	if patch.Location != nil {
		q.Location = *patch.Location
	}
	if patch.MaxDistanceKm != nil {
		q.MaxDistanceKm = *patch.MaxDistanceKm
	}
	if patch.PropertyType != nil {
		q.PropertyType = *patch.PropertyType
	}
	if patch.Typology != nil {
		q.Typology = *patch.Typology
	}
	if patch.MinWCs != nil {
		q.MinWCs = *patch.MinWCs
	}
	if patch.UsageState != nil {
		q.UsageState = *patch.UsageState
	}
	if patch.PriceMin != nil {
		q.PriceMin = *patch.PriceMin
	}
	if patch.PriceMax != nil {
		q.PriceMax = *patch.PriceMax
	}
	if patch.TransportMinutes != nil {
		q.TransportMinutes = *patch.TransportMinutes
	}
	if patch.Extra != nil {
		q.Extra = *patch.Extra
	}

	if err := validate(q); err != nil {
		return models.Query{}, err
	}
	return q, nil
}

func validate(q models.Query) error {
	if strings.TrimSpace(q.Location) == "" {
		return &ValidationError{Field: "location", Reason: "must not be empty"}
	}
	if q.PriceMin < 0 || q.PriceMax < 0 {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if q.PriceMin > 0 && q.PriceMax > 0 && q.PriceMin > q.PriceMax {
		return &ValidationError{Field: "price", Reason: "min exceeds max"}
	}
	if q.MinWCs < 0 {
		return &ValidationError{Field: "wcs", Reason: "must not be negative"}
	}
	if !oneOf(q.MaxDistanceKm, models.DistanceAny, models.DistanceOptions) {
		return &ValidationError{Field: "max_distance_km", Reason: "not a supported distance"}
	}
	if !oneOf(q.TransportMinutes, models.TransportAny, models.TransportOptions) {
		return &ValidationError{Field: "transport_minutes", Reason: "not a supported duration"}
	}
	return nil
}

func oneOf(v, any int, options []int) bool {
	if v == any {
		return true
	}
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
