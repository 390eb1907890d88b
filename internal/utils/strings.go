// Package utils provides small string helpers shared across the codebase.
package utils

import "strings"

// NormalizeQuery canonicalizes a raw user query before any lookup:
// trimmed, lowercased, inner whitespace collapsed to single spaces.
func NormalizeQuery(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// Slugify converts a query into a URL-slug candidate (spaces to hyphens).
func Slugify(s string) string {
	return strings.ReplaceAll(NormalizeQuery(s), " ", "-")
}

// SlugVariants returns plausible URL-slug spellings of a query, most likely first.
// Used by the scrape fallback to probe provider pages.
func SlugVariants(s string) []string {
	norm := NormalizeQuery(s)
	variants := []string{
		strings.ReplaceAll(norm, " ", "-"),
		strings.ReplaceAll(norm, " ", ""),
		norm,
	}

	seen := make(map[string]bool, len(variants))
	var result []string
	for _, v := range variants {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}

	return result
}

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input. Used to parse list-valued
// environment variables (e.g. the scrape allow-list).
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}
