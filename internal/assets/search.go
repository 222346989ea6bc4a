package assets

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// SimilarityThreshold is the largest edit distance, as a fraction of the
// field length, that still counts as a match.
const SimilarityThreshold = 0.3

// Search returns the assets matching query, keeping the input order.
// Matching is case-insensitive: a row matches when one of its searchable
// fields contains the query, or is within SimilarityThreshold edits of it.
// An empty query matches everything.
func Search(list []Asset, query string) []Asset {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}

	var out []Asset
	for _, a := range list {
		if matches(a, query) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a Asset, query string) bool {
	for _, field := range a.searchable() {
		if field == "" {
			continue
		}
		lower := strings.ToLower(field)
		if strings.Contains(lower, query) || similar(lower, query) {
			return true
		}
	}
	return false
}

func similar(field, query string) bool {
	n := utf8.RuneCountInString(field)
	if n == 0 {
		return false
	}
	distance := levenshtein.ComputeDistance(field, query)
	return float64(distance)/float64(n) < SimilarityThreshold
}
