package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"getmyhouse/config"
	"getmyhouse/models"
)

// FeedProvider queries a JSON listing feed over HTTP.
type FeedProvider struct {
	cfg    *config.ProviderConfig
	client *http.Client
}

func NewFeedProvider(cfg *config.ProviderConfig, client *http.Client) *FeedProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &FeedProvider{cfg: cfg, client: client}
}

func (p *FeedProvider) ID() string { return p.cfg.ID }

type feedListing struct {
	ID               string  `json:"id"`
	Location         string  `json:"location"`
	City             string  `json:"city"`
	Type             string  `json:"type"`
	Typology         string  `json:"typology"`
	Price            int     `json:"price"`
	WCs              int     `json:"wcs"`
	State            string  `json:"state"`
	TransportMinutes int     `json:"transport_minutes"`
	DistanceKm       float64 `json:"distance_km"`
	Agency           string  `json:"agency"`
	URL              string  `json:"url"`
	Description      string  `json:"description"`
}

type feedResponse struct {
	Results []feedListing `json:"results"`
}

func (p *FeedProvider) Fetch(ctx context.Context, q models.Query) ([]models.Listing, error) {
	endpoint, err := p.searchURL(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "getmyhouse/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("feed %s: status %d: %s", p.cfg.ID, resp.StatusCode, string(body))
	}

	var result feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("feed %s: decode: %w", p.cfg.ID, err)
	}

	listings := make([]models.Listing, 0, len(result.Results))
	for _, r := range result.Results {
		id := r.ID
		if id == "" {
			id = r.URL
		}
		listings = append(listings, models.Listing{
			ID:               id,
			Country:          q.Country,
			Location:         r.Location,
			City:             r.City,
			PropertyType:     r.Type,
			Typology:         r.Typology,
			Price:            r.Price,
			WCs:              r.WCs,
			UsageState:       r.State,
			TransportMinutes: r.TransportMinutes,
			DistanceKm:       r.DistanceKm,
			Agency:           r.Agency,
			URL:              r.URL,
			Description:      r.Description,
		})
	}
	return listings, nil
}

func (p *FeedProvider) searchURL(q models.Query) (string, error) {
	u, err := url.Parse(p.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("feed %s: endpoint: %w", p.cfg.ID, err)
	}

	params := u.Query()
	params.Set("location", q.Location)
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	if q.PropertyType != "" {
		params.Set("type", q.PropertyType)
	}
	if q.Typology != "" {
		params.Set("typology", q.Typology)
	}
	if q.PriceMin > 0 {
		params.Set("price_min", strconv.Itoa(q.PriceMin))
	}
	if q.PriceMax > 0 {
		params.Set("price_max", strconv.Itoa(q.PriceMax))
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}
