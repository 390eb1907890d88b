package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chainlens/internal/domain"
)

func TestAssessSupplyRatio(t *testing.T) {
	rec := &domain.AggregatedRecord{
		CirculatingSupply: domain.Float(20),
		TotalSupply:       domain.Float(100),
	}
	a := Assess(rec)
	require.Len(t, a.Flags, 1)
	assert.Contains(t, a.Flags[0], "dilution")

	rec.CirculatingSupply = domain.Float(40)
	a = Assess(rec)
	assert.Empty(t, a.Flags)
	assert.Len(t, a.Warnings, 1)

	rec.CirculatingSupply = domain.Float(80)
	a = Assess(rec)
	assert.Empty(t, a.Flags)
	assert.Empty(t, a.Warnings)
	assert.Len(t, a.Positives, 1)
}

func TestAssessFDVRatio(t *testing.T) {
	rec := &domain.AggregatedRecord{
		MarketCap: domain.Float(1e9),
		FDV:       domain.Float(12e9),
	}
	a := Assess(rec)
	// volume and supply heuristics skip on nil, one flag from FDV,
	// one neutral mid-cap tier
	require.Len(t, a.Flags, 1)
	assert.Contains(t, a.Flags[0], "FDV")

	rec.FDV = domain.Float(1.2e9)
	a = Assess(rec)
	assert.Empty(t, a.Flags)
	assert.NotEmpty(t, a.Positives)
}

func TestAssessVolumeAndTVL(t *testing.T) {
	rec := &domain.AggregatedRecord{
		MarketCap: domain.Float(1e9),
		Volume24h: domain.Float(1e6), // 0.1%
		TVL:       domain.Float(5e9), // cap/TVL = 0.2
	}
	a := Assess(rec)
	require.Len(t, a.Flags, 1)
	assert.Contains(t, a.Flags[0], "illiquid")
	require.NotEmpty(t, a.Positives)
	assert.Contains(t, a.Positives[0], "undervalued")
}

func TestAssessTrends(t *testing.T) {
	rec := &domain.AggregatedRecord{
		TVLChange:   domain.ChangeSet{Week: domain.Float(-35)},
		PriceChange: domain.ChangeSet{Week: domain.Float(-40)},
	}
	a := Assess(rec)
	require.Len(t, a.Flags, 1)
	assert.Contains(t, a.Flags[0], "capital is leaving")
	require.Len(t, a.Warnings, 1)
	assert.Contains(t, a.Warnings[0], "price down")
}

func TestAssessVolatility(t *testing.T) {
	day := int64(86400)

	// Flat series: volatility near zero reads as stable.
	flat := make([]domain.PricePoint, 30)
	for i := range flat {
		flat[i] = domain.PricePoint{Timestamp: int64(i) * day, Price: 100 + 0.1*float64(i%2)}
	}
	a := domain.RiskAssessment{}
	assessVolatility(&domain.AggregatedRecord{PriceHistory: flat}, &a)
	assert.Empty(t, a.Warnings)
	require.Len(t, a.Positives, 1)
	assert.Contains(t, a.Positives[0], "stable")

	// Wild swings read as highly volatile.
	wild := make([]domain.PricePoint, 30)
	price := 100.0
	for i := range wild {
		if i%2 == 0 {
			price *= 1.3
		} else {
			price *= 0.75
		}
		wild[i] = domain.PricePoint{Timestamp: int64(i) * day, Price: price}
	}
	a = domain.RiskAssessment{}
	assessVolatility(&domain.AggregatedRecord{PriceHistory: wild}, &a)
	require.Len(t, a.Warnings, 1)
	assert.Contains(t, a.Warnings[0], "volatile")

	// Too few points: no signal either way.
	a = domain.RiskAssessment{}
	assessVolatility(&domain.AggregatedRecord{PriceHistory: flat[:5]}, &a)
	assert.Empty(t, a.Warnings)
	assert.Empty(t, a.Positives)
}

func TestScoreWeights(t *testing.T) {
	base := Score(domain.RiskAssessment{})
	assert.Equal(t, 50, base.Score)

	oneFlag := Score(domain.RiskAssessment{Flags: []string{"f"}})
	assert.Equal(t, 35, oneFlag.Score)

	// Each added flag costs exactly 15 before clamping.
	twoFlags := Score(domain.RiskAssessment{Flags: []string{"f", "g"}})
	assert.Equal(t, oneFlag.Score-15, twoFlags.Score)

	mixed := Score(domain.RiskAssessment{
		Flags:     []string{"f"},
		Warnings:  []string{"w", "x"},
		Positives: []string{"p"},
	})
	assert.Equal(t, 50-15-10+8, mixed.Score)
}

func TestScoreClamping(t *testing.T) {
	many := make([]string, 10)
	low := Score(domain.RiskAssessment{Flags: many})
	assert.Equal(t, 0, low.Score)

	high := Score(domain.RiskAssessment{Positives: make([]string, 20)})
	assert.Equal(t, 100, high.Score)
}

func TestScoreBands(t *testing.T) {
	cases := []struct {
		positives, flags int
		classification   string
	}{
		{5, 0, "Low Risk"},       // 90
		{2, 0, "Moderate Risk"},  // 66
		{0, 1, "Elevated Risk"},  // 35
		{0, 2, "High Risk"},      // 20
		{0, 3, "Very High Risk"}, // 5
	}
	for _, tc := range cases {
		s := Score(domain.RiskAssessment{
			Flags:     make([]string, tc.flags),
			Positives: make([]string, tc.positives),
		})
		assert.Equal(t, tc.classification, s.Classification, "score %d", s.Score)
		assert.NotEmpty(t, s.Recommendation)
	}
}

func TestScoreDeterminism(t *testing.T) {
	rec := &domain.AggregatedRecord{
		MarketCap:         domain.Float(15e9),
		FDV:               domain.Float(16e9),
		Volume24h:         domain.Float(2e9),
		CirculatingSupply: domain.Float(90),
		TotalSupply:       domain.Float(100),
		TVL:               domain.Float(40e9),
	}
	first := Score(Assess(rec))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Score(Assess(rec)))
	}
	assert.False(t, math.IsNaN(float64(first.Score)))
}
