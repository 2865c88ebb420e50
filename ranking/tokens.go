package ranking

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\d+`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// overlap returns the fraction of query tokens present in the target
// text. An empty query scores full credit; an empty target scores
// zero against a non-empty query.
func overlap(queryText, targetText string) float64 {
	queryTokens := tokenize(queryText)
	if len(queryTokens) == 0 {
		return 1
	}
	have := make(map[string]struct{})
	for _, tok := range tokenize(targetText) {
		have[tok] = struct{}{}
	}
	matched := 0
	for _, tok := range queryTokens {
		if _, ok := have[tok]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}
