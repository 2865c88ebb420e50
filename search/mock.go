package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"getmyhouse/config"
	"getmyhouse/models"
)

// Mock dataset shape follows the original development fixtures: a pool
// of listings per city with balanced type/typology coverage, real
// agency names, and typology-dependent price bands.

var mockCitiesByCountry = map[string][]string{
	"Portugal": {"Lisboa", "Porto", "Coimbra", "Braga", "Setúbal", "Almada", "Cascais", "Amadora", "Faro", "Aveiro"},
	"Spain":    {"Madrid", "Barcelona", "Valencia", "Seville", "Bilbao", "Málaga"},
	"Italy":    {"Rome", "Milan", "Naples", "Turin", "Bologna", "Florence"},
	"France":   {"Paris", "Marseille", "Lyon", "Toulouse", "Nice", "Bordeaux"},
}

var mockAgencies = []string{
	"REMAX Portugal", "ERA Portugal", "Idealista", "Imovirtual",
	"Century 21 Portugal", "KW Portugal", "Zome", "Casa Sapo",
}

// Price bands per typology, EUR.
var mockPriceBands = map[string][2]int{
	"T0":  {50000, 120000},
	"T1":  {70000, 180000},
	"T2":  {90000, 280000},
	"T3":  {120000, 380000},
	"T4":  {180000, 500000},
	"T4+": {220000, 650000},
}

type MockProvider struct {
	cfg *config.ProviderConfig
}

func NewMockProvider(cfg *config.ProviderConfig) *MockProvider {
	return &MockProvider{cfg: cfg}
}

func (p *MockProvider) ID() string { return p.cfg.ID }

// Fetch generates the deterministic pool for the query's country and
// applies the same hard filters the real feeds apply server-side:
// location, property type, typology, and price range.
func (p *MockProvider) Fetch(ctx context.Context, q models.Query) ([]models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	country := q.Country
	if country == "" {
		country = p.cfg.Country
	}
	if country == "" {
		country = "Portugal"
	}

	var out []models.Listing
	for _, l := range p.pool(country) {
		if !matchLocation(q.Location, l) {
			continue
		}
		if categoricalSet(q.PropertyType) && !strings.EqualFold(q.PropertyType, l.PropertyType) {
			continue
		}
		if categoricalSet(q.Typology) && !strings.EqualFold(q.Typology, l.Typology) {
			continue
		}
		if q.PriceMin > 0 && l.Price < q.PriceMin {
			continue
		}
		if q.PriceMax > 0 && l.Price > q.PriceMax {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// pool builds the per-country listing pool. Generation is index-based
// rather than random so the same query always sees the same data.
func (p *MockProvider) pool(country string) []models.Listing {
	cities, ok := mockCitiesByCountry[country]
	if !ok {
		cities = []string{
			country + " City Center",
			country + " North District",
			country + " South District",
		}
	}

	typologies := models.Typologies
	states := models.UsageStates
	transport := []int{5, 10, 15, 20, 30}

	var pool []models.Listing
	n := 0
	for _, city := range cities {
		for _, propertyType := range models.PropertyTypes {
			for _, typology := range typologies {
				band := mockPriceBands[typology]
				// Spread prices across the band per city/type.
				price := band[0] + (band[1]-band[0])*(n%5)/4

				wcs := 1
				switch typology {
				case "T2":
					wcs = 1 + n%2
				case "T3", "T4", "T4+":
					wcs = 2 + n%2
				}

				agency := mockAgencies[n%len(mockAgencies)]
				link := fmt.Sprintf("https://www.%s.pt/property/%s-%s-%d",
					strings.ReplaceAll(strings.ToLower(agency), " ", ""),
					strings.ToLower(strings.ReplaceAll(city, " ", "-")),
					strings.ToLower(typology), n)

				pool = append(pool, models.Listing{
					ID:               uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String(),
					Country:          country,
					Location:         city + ", " + city + " District",
					City:             city,
					PropertyType:     propertyType,
					Typology:         typology,
					Price:            price,
					WCs:              wcs,
					UsageState:       states[n%len(states)],
					TransportMinutes: transport[n%len(transport)],
					DistanceKm:       float64(n%20) / 2,
					Agency:           agency,
					URL:              link,
					Description: fmt.Sprintf("%s %s in %s, %d WCs, %s, %d min walk to public transport",
						typology, propertyType, city, wcs, states[n%len(states)], transport[n%len(transport)]),
				})
				n++
			}
		}
	}
	return pool
}

func matchLocation(want string, l models.Listing) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return true
	}
	haystack := strings.ToLower(l.Location + " " + l.City)
	for _, tok := range strings.Fields(want) {
		if strings.Contains(haystack, strings.Trim(tok, ",")) {
			return true
		}
	}
	return false
}

func categoricalSet(v string) bool {
	return v != "" && !strings.EqualFold(v, "any")
}
