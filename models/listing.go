package models

import "time"

// Listing is a candidate property as returned by a provider.
// Immutable once fetched.
type Listing struct {
	ID               string  `json:"id" db:"id"`
	Country          string  `json:"country" db:"country"`
	Location         string  `json:"location" db:"location"`
	City             string  `json:"city" db:"city"`
	PropertyType     string  `json:"property_type" db:"property_type"`
	Typology         string  `json:"typology" db:"typology"`
	Price            int     `json:"price" db:"price"`
	WCs              int     `json:"wcs" db:"wcs"`
	UsageState       string  `json:"usage_state" db:"usage_state"`
	TransportMinutes int     `json:"transport_minutes" db:"transport_minutes"`
	DistanceKm       float64 `json:"distance_km" db:"distance_km"`
	Agency           string  `json:"agency" db:"agency"`
	URL              string  `json:"url" db:"url"`
	Description      string  `json:"description" db:"description"`
}

// ScoredListing pairs a listing with its match score against the query
// that produced it. Score is in [0,1]. Created only by the ranking
// engine and never mutated afterwards.
type ScoredListing struct {
	Listing Listing `json:"listing"`
	Score   float64 `json:"score"`
	Query   Query   `json:"query"`
}

// Turn is one (query, results) pair in a session's history.
// Index is assigned by the store, starting at 0 per session.
type Turn struct {
	SessionID string          `json:"session_id" db:"session_id"`
	Index     int             `json:"turn_index" db:"turn_index"`
	Query     Query           `json:"query" db:"query"`
	Results   []ScoredListing `json:"results" db:"results"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
