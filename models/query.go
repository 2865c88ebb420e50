package models

// Categorical "any" markers. Zero values mean the field was not set,
// which scores as full credit during ranking.
const (
	DistanceAny  = 0 // max distance unbounded
	WCsAny       = 0 // any number of WCs
	TransportAny = 0 // any walking distance to public transport
)

// Allowed categorical values, mirrored from the search form.
var (
	DistanceOptions  = []int{1, 2, 5, 10, 20}
	TransportOptions = []int{5, 15, 30}
	PropertyTypes    = []string{"flat", "house"}
	Typologies       = []string{"T0", "T1", "T2", "T3", "T4", "T4+"}
	UsageStates      = []string{"brand new", "new", "used", "recovery"}
)

// Query is one executable set of search criteria. Queries are immutable
// once built; refinement produces a new Query.
type Query struct {
	Country          string `json:"country"`
	Location         string `json:"location"`
	MaxDistanceKm    int    `json:"max_distance_km"`   // 1/2/5/10/20, 0 = any
	PropertyType     string `json:"property_type"`     // flat/house, "" = any
	Typology         string `json:"typology"`          // T0..T4+, "" = any
	MinWCs           int    `json:"min_wcs"`           // 0 = any
	UsageState       string `json:"usage_state"`       // "" = any
	PriceMin         int    `json:"price_min"`         // 0 = unset
	PriceMax         int    `json:"price_max"`         // 0 = unset
	TransportMinutes int    `json:"transport_minutes"` // 5/15/30, 0 = any
	Extra            string `json:"extra"`             // free-text requirements
}

// Patch is a partial Query used to refine a previous one. Nil fields
// keep the previous value.
type Patch struct {
	Country          *string `json:"country,omitempty"`
	Location         *string `json:"location,omitempty"`
	MaxDistanceKm    *int    `json:"max_distance_km,omitempty"`
	PropertyType     *string `json:"property_type,omitempty"`
	Typology         *string `json:"typology,omitempty"`
	MinWCs           *int    `json:"min_wcs,omitempty"`
	UsageState       *string `json:"usage_state,omitempty"`
	PriceMin         *int    `json:"price_min,omitempty"`
	PriceMax         *int    `json:"price_max,omitempty"`
	TransportMinutes *int    `json:"transport_minutes,omitempty"`
	Extra            *string `json:"extra,omitempty"`
}
