package ranking

import (
	"encoding/json"
	"fmt"
	"os"
)

// Weights defines the per-field coefficients of the match score.
// Location and price dominate, typology and property type come next,
// everything else is a small nudge.
type Weights struct {
	Location     float64 `json:"location"`
	Price        float64 `json:"price"`
	Typology     float64 `json:"typology"`
	PropertyType float64 `json:"property_type"`
	WCs          float64 `json:"wcs"`
	Transport    float64 `json:"transport"`
	UsageState   float64 `json:"usage_state"`
	Distance     float64 `json:"distance"`
	Extra        float64 `json:"extra"`
}

func DefaultWeights() Weights {
	return Weights{
		Location:     0.25,
		Price:        0.25,
		Typology:     0.20,
		PropertyType: 0.15,
		WCs:          0.05,
		Transport:    0.05,
		UsageState:   0.05,
		Distance:     0.05,
		Extra:        0.10,
	}
}

// Total is the score denominator. Unset query fields score full
// credit, so every weight is always applied.
func (w Weights) Total() float64 {
	return w.Location + w.Price + w.Typology + w.PropertyType +
		w.WCs + w.Transport + w.UsageState + w.Distance + w.Extra
}

// LoadWeightsFromFile loads weights from a JSON file. Keys absent from
// the file keep their default value; any error returns the untouched
// defaults alongside it.
func LoadWeightsFromFile(path string) (Weights, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return DefaultWeights(), fmt.Errorf("read weights file: %w", err)
	}
	w := DefaultWeights()
	if err := json.Unmarshal(b, &w); err != nil {
		return DefaultWeights(), fmt.Errorf("unmarshal weights: %w", err)
	}
	return w, nil
}
