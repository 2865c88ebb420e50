package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"getmyhouse/config"
	"getmyhouse/models"
)

// HTMLProvider scrapes a listings results page. The selectors target
// the common card markup the portal feeds share; anything that fails
// to parse is skipped rather than failing the whole page.
type HTMLProvider struct {
	cfg    *config.ProviderConfig
	client *http.Client
}

func NewHTMLProvider(cfg *config.ProviderConfig, client *http.Client) *HTMLProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTMLProvider{cfg: cfg, client: client}
}

func (p *HTMLProvider) ID() string { return p.cfg.ID }

var priceDigits = regexp.MustCompile(`\d[\d.,]*`)

func (p *HTMLProvider) Fetch(ctx context.Context, q models.Query) ([]models.Listing, error) {
	endpoint, err := p.searchURL(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("html %s: status %d", p.cfg.ID, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("html %s: parse: %w", p.cfg.ID, err)
	}

	return p.parseListings(doc, q), nil
}

func (p *HTMLProvider) parseListings(doc *goquery.Document, q models.Query) []models.Listing {
	var listings []models.Listing

	doc.Find("article.listing-card, div.listing-card, li.listing").Each(func(_ int, s *goquery.Selection) {
		link, _ := s.Find("a.listing-link, h2 a, a").First().Attr("href")
		if link == "" {
			return
		}
		link = p.absoluteURL(link)

		price := parsePrice(s.Find(".price, .listing-price").First().Text())
		if price == 0 {
			return
		}

		listing := models.Listing{
			ID:           link,
			Country:      q.Country,
			Location:     clean(s.Find(".location, .listing-location").First().Text()),
			City:         clean(s.Find(".city").First().Text()),
			PropertyType: strings.ToLower(clean(s.Find(".type, .property-type").First().Text())),
			Typology:     strings.ToUpper(clean(s.Find(".typology").First().Text())),
			Price:        price,
			WCs:          parseInt(s.Find(".wcs, .bathrooms").First().Text()),
			UsageState:   strings.ToLower(clean(s.Find(".state, .condition").First().Text())),
			Agency:       clean(s.Find(".agency, .advertiser").First().Text()),
			URL:          link,
			Description:  clean(s.Find(".description, p.summary").First().Text()),
		}
		if listing.City == "" {
			listing.City = listing.Location
		}
		listings = append(listings, listing)
	})

	return listings
}

func (p *HTMLProvider) searchURL(q models.Query) (string, error) {
	u, err := url.Parse(p.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("html %s: endpoint: %w", p.cfg.ID, err)
	}
	params := u.Query()
	params.Set("q", q.Location)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (p *HTMLProvider) absoluteURL(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	base, err := url.Parse(p.cfg.Endpoint)
	if err != nil {
		return link
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	return base.ResolveReference(ref).String()
}

func parsePrice(text string) int {
	match := priceDigits.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.NewReplacer(".", "", ",", "").Replace(match)
	n, _ := strconv.Atoi(match)
	return n
}

func parseInt(text string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(priceDigits.FindString(text)))
	return n
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
