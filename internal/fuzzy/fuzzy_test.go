package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreTiers(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		target   string
		expected float64
	}{
		{"exact match", "ethereum", "ethereum", 100},
		{"exact match case-insensitive", "Ethereum", "ETHEREUM", 100},
		{"prefix match", "eth", "ethereum", 95},
		{"contains match", "swap", "uniswap", 85},
		{"empty query", "", "ethereum", 0},
		{"empty target", "ethereum", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.query, tt.target))
		})
	}
}

func TestScoreFuzzyTier(t *testing.T) {
	// One substitution in an 8-char word: (8-1)/8*70 = 61.25
	score := Score("etherium", "ethereum")
	assert.InDelta(t, 61.25, score, 0.001)

	// Fuzzy scores never reach the contains tier
	assert.Less(t, score, 85.0)

	// Totally unrelated strings score at or near zero
	assert.LessOrEqual(t, Score("xyz", "ethereum"), 70.0*5.0/8.0)
}

func TestScoreFields(t *testing.T) {
	// Best field wins: symbol is exact even though name is not
	score := ScoreFields("eth", "Ethereum", "ETH")
	assert.Equal(t, 100.0, score)

	assert.Equal(t, 0.0, ScoreFields("eth"))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("abc", "abc"))
	assert.Equal(t, 3, Levenshtein("", "abc"))
	assert.Equal(t, 3, Levenshtein("abc", ""))
	assert.Equal(t, 1, Levenshtein("kitten", "sitten"))
	assert.Equal(t, 3, Levenshtein("kitten", "sitting"))
	assert.Equal(t, 2, Levenshtein("flaw", "lawn"))
}
