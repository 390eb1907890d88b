package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chainlens/internal/domain"
)

func fullRecord() *domain.AggregatedRecord {
	return &domain.AggregatedRecord{
		Query:             "testcoin",
		Type:              domain.EntityToken,
		Name:              "TestCoin",
		Symbol:            "TST",
		Logo:              "https://example.com/logo.png",
		Category:          "Token",
		PriceUSD:          domain.Float(10),
		MarketCap:         domain.Float(1e9),
		FDV:               domain.Float(2e9),
		Volume24h:         domain.Float(5e7),
		CirculatingSupply: domain.Float(1e8),
		TotalSupply:       domain.Float(1.5e8),
		MaxSupply:         domain.Float(2e8),
		TVL:               domain.Float(8e8),
		Sources:           map[string]string{"name": "coingecko"},
	}
}

func TestValidateCleanRecord(t *testing.T) {
	res := Validate(fullRecord())

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, domain.QualityExcellent, res.Quality)
}

func TestValidateSupplyOrderingIsError(t *testing.T) {
	rec := fullRecord()
	rec.CirculatingSupply = domain.Float(120)
	rec.TotalSupply = domain.Float(100)
	rec.MaxSupply = domain.Float(200)
	rec.MarketCap = domain.Float(1200) // keep cap consistent with price*circ

	res := Validate(rec)

	assert.False(t, res.IsValid)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "circulating supply")
	assert.Equal(t, domain.QualityPoor, res.Quality)
}

func TestValidateTotalExceedsMaxIsError(t *testing.T) {
	rec := fullRecord()
	rec.TotalSupply = domain.Float(3e8)

	res := Validate(rec)
	assert.False(t, res.IsValid)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "total supply")
}

func TestValidateCapConsistency(t *testing.T) {
	rec := fullRecord()
	// price*circ = 1e9, cap says 2e9
	rec.MarketCap = domain.Float(2e9)
	rec.FDV = domain.Float(3e9)

	res := Validate(rec)
	assert.True(t, res.IsValid)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "inconsistent")
}

func TestValidateFDVBelowCap(t *testing.T) {
	rec := fullRecord()
	rec.FDV = domain.Float(5e8)

	res := Validate(rec)
	assert.True(t, res.IsValid)
	assert.NotEmpty(t, res.Warnings)
}

func TestValidateQuietVolume(t *testing.T) {
	rec := fullRecord()
	rec.Volume24h = domain.Float(100) // 0.00001% of cap

	res := Validate(rec)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "volume")
}

func TestValidateExtremeChanges(t *testing.T) {
	rec := fullRecord()
	rec.PriceChange = domain.ChangeSet{Day: domain.Float(750)}
	rec.TVLChange = domain.ChangeSet{Week: domain.Float(-1500)}

	res := Validate(rec)
	assert.Len(t, res.Warnings, 2)
}

func TestValidatePriceHistory(t *testing.T) {
	rec := fullRecord()
	rec.PriceHistory = []domain.PricePoint{
		{Timestamp: 100, Price: 1},
		{Timestamp: 50, Price: 2},
	}
	res := Validate(rec)
	assert.True(t, res.IsValid)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "chronological")

	rec = fullRecord()
	rec.PriceHistory = []domain.PricePoint{{Timestamp: 100, Price: math.NaN()}}
	res = Validate(rec)
	assert.False(t, res.IsValid)
}

func TestValidateChainTVLSum(t *testing.T) {
	rec := fullRecord()
	rec.ChainTVLs = map[string]float64{"Ethereum": 1e8} // total says 8e8

	res := Validate(rec)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "per-chain TVL")
}

func TestValidateNoSources(t *testing.T) {
	rec := fullRecord()
	rec.Sources = map[string]string{}

	res := Validate(rec)
	assert.False(t, res.IsValid)
}

func TestQualityDegradesWithSparseness(t *testing.T) {
	rec := &domain.AggregatedRecord{
		Query:   "sparse",
		Name:    "Sparse",
		Symbol:  "SPR",
		TVL:     domain.Float(1e6),
		Sources: map[string]string{"tvl": "defillama"},
	}

	res := Validate(rec)
	assert.True(t, res.IsValid)
	assert.Equal(t, domain.QualityFair, res.Quality)
}

func TestHasMinimumData(t *testing.T) {
	assert.False(t, HasMinimumData(nil))
	assert.False(t, HasMinimumData(&domain.AggregatedRecord{Name: "X"}))
	assert.False(t, HasMinimumData(&domain.AggregatedRecord{PriceUSD: domain.Float(1)}))
	assert.True(t, HasMinimumData(&domain.AggregatedRecord{Name: "X", TVL: domain.Float(1)}))
}
