// Package identity derives stable identities for cross-provider dedupe.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"getmyhouse/models"
)

var (
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	trackingParams  = map[string]struct{}{
		"utm_source":   {},
		"utm_medium":   {},
		"utm_campaign": {},
		"utm_term":     {},
		"utm_content":  {},
		"ref":          {},
		"fbclid":       {},
		"gclid":        {},
	}
)

// Fingerprint identifies a listing that carries no usable source link,
// hashing the normalized link, location, and typology together.
func Fingerprint(l *models.Listing) string {
	input := fmt.Sprintf("%s|%s|%s",
		NormalizeURL(l.URL),
		normalizeText(l.Location),
		strings.ToLower(l.Typology),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeURL strips scheme, www prefix, tracking query parameters,
// fragments, and trailing slashes so that the same listing reached via
// different campaign links dedupes to one entry.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	path := strings.TrimSuffix(u.EscapedPath(), "/")

	kept := url.Values{}
	for key, vals := range u.Query() {
		if _, tracking := trackingParams[strings.ToLower(key)]; tracking {
			continue
		}
		for _, v := range vals {
			kept.Add(key, v)
		}
	}

	normalized := host + path
	if encoded := kept.Encode(); encoded != "" {
		normalized += "?" + encoded
	}
	return normalized
}

func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return multiSpaceRegex.ReplaceAllString(s, " ")
}
