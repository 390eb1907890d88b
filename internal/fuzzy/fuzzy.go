// Package fuzzy implements the string-similarity scorer used by search.
// Scores are tiered so that exact, prefix and substring matches always
// outrank edit-distance matches.
package fuzzy

import "strings"

// Score tiers. Edit-distance scores are capped at 70 so they never beat
// a contains match.
const (
	scoreExact    = 100
	scorePrefix   = 95
	scoreContains = 85
	fuzzyCeiling  = 70
)

// Score rates how well query matches target, case-insensitive, 0-100.
func Score(query, target string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(strings.TrimSpace(target))

	if q == "" || t == "" {
		return 0
	}
	if q == t {
		return scoreExact
	}
	if strings.HasPrefix(t, q) {
		return scorePrefix
	}
	if strings.Contains(t, q) {
		return scoreContains
	}

	maxLen := len(q)
	if len(t) > maxLen {
		maxLen = len(t)
	}

	dist := Levenshtein(q, t)
	if dist >= maxLen {
		return 0
	}

	return float64(maxLen-dist) / float64(maxLen) * fuzzyCeiling
}

// ScoreFields rates query against multiple candidate fields and returns the best.
func ScoreFields(query string, fields ...string) float64 {
	best := 0.0
	for _, f := range fields {
		if s := Score(query, f); s > best {
			best = s
		}
	}
	return best
}

// Levenshtein computes the edit distance between two strings.
// Two-row dynamic programming, O(len(a)*len(b)) time, O(len(b)) space.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			deletion := prev[j] + 1
			insertion := curr[j-1] + 1
			substitution := prev[j-1] + cost

			min := deletion
			if insertion < min {
				min = insertion
			}
			if substitution < min {
				min = substitution
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
