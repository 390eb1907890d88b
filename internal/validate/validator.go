// Package validate checks merged records for internal consistency and
// grades how trustworthy they look. Rules only ever append to the
// errors and warnings lists, a bad record is reported, never rejected
// by panic or error return.
package validate

import (
	"fmt"
	"math"

	"github.com/aristath/chainlens/internal/domain"
)

// Absolute sanity bounds. Values outside these are provider glitches,
// not market conditions.
const (
	minPrice     = 1e-6
	maxPrice     = 1e7
	minMarketCap = 1e3
	maxMarketCap = 1e13

	// marketCap vs price*circulating tolerance
	capConsistencyTolerance = 0.10

	// volume below this fraction of market cap is implausibly quiet
	minVolumeCapRatio = 0.0001

	// chain TVL sum vs total TVL mismatch threshold
	chainTVLMismatch = 0.20

	// extreme change thresholds
	maxDayChange  = 500
	maxWeekChange = 1000
)

// Validate runs every consistency rule over the record.
func Validate(rec *domain.AggregatedRecord) domain.ValidationResult {
	res := domain.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	checkIdentity(rec, &res)
	checkBounds(rec, &res)
	checkCapConsistency(rec, &res)
	checkSupplyOrdering(rec, &res)
	checkExtremeChanges(rec, &res)
	checkPriceHistory(rec, &res)
	checkChainTVLSum(rec, &res)

	if len(rec.Sources) == 0 {
		res.Errors = append(res.Errors, "no source attributed any field")
	}

	res.IsValid = len(res.Errors) == 0
	res.Quality = grade(rec, &res)
	return res
}

// HasMinimumData gates whether a report is worth producing at all:
// a name plus at least one headline metric.
func HasMinimumData(rec *domain.AggregatedRecord) bool {
	if rec == nil || rec.Name == "" {
		return false
	}
	return rec.PriceUSD != nil || rec.MarketCap != nil || rec.TVL != nil
}

func checkIdentity(rec *domain.AggregatedRecord, res *domain.ValidationResult) {
	if rec.Name == "" {
		res.Errors = append(res.Errors, "name is missing")
	}
	if rec.Symbol == "" {
		res.Warnings = append(res.Warnings, "symbol is missing")
	}
}

func checkBounds(rec *domain.AggregatedRecord, res *domain.ValidationResult) {
	if p := rec.PriceUSD; p != nil && (*p < minPrice || *p > maxPrice) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("price %.8g outside sane bounds", *p))
	}
	if c := rec.MarketCap; c != nil && (*c < minMarketCap || *c > maxMarketCap) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("market cap %.8g outside sane bounds", *c))
	}
	if v := rec.Volume24h; v != nil && rec.MarketCap != nil && *rec.MarketCap > 0 {
		if *v/(*rec.MarketCap) < minVolumeCapRatio {
			res.Warnings = append(res.Warnings, "24h volume implausibly small relative to market cap")
		}
	}
	if rec.FDV != nil && rec.MarketCap != nil && *rec.FDV < *rec.MarketCap {
		res.Warnings = append(res.Warnings, "fully diluted valuation below market cap")
	}
}

func checkCapConsistency(rec *domain.AggregatedRecord, res *domain.ValidationResult) {
	if rec.MarketCap == nil || rec.PriceUSD == nil || rec.CirculatingSupply == nil {
		return
	}
	implied := *rec.PriceUSD * *rec.CirculatingSupply
	if implied <= 0 {
		return
	}
	if math.Abs(*rec.MarketCap-implied)/implied > capConsistencyTolerance {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("market cap %.4g inconsistent with price*circulating %.4g", *rec.MarketCap, implied))
	}
}

// Supply ordering violations are hard errors: no provider disagreement
// can make circulating exceed total.
func checkSupplyOrdering(rec *domain.AggregatedRecord, res *domain.ValidationResult) {
	if rec.CirculatingSupply != nil && rec.TotalSupply != nil && *rec.CirculatingSupply > *rec.TotalSupply {
		res.Errors = append(res.Errors,
			fmt.Sprintf("circulating supply %.6g exceeds total supply %.6g", *rec.CirculatingSupply, *rec.TotalSupply))
	}
	if rec.TotalSupply != nil && rec.MaxSupply != nil && *rec.TotalSupply > *rec.MaxSupply {
		res.Errors = append(res.Errors,
			fmt.Sprintf("total supply %.6g exceeds max supply %.6g", *rec.TotalSupply, *rec.MaxSupply))
	}
}

func checkExtremeChanges(rec *domain.AggregatedRecord, res *domain.ValidationResult) {
	for _, cs := range []struct {
		name string
		set  domain.ChangeSet
	}{
		{"price", rec.PriceChange},
		{"TVL", rec.TVLChange},
	} {
		if d := cs.set.Day; d != nil && math.Abs(*d) > maxDayChange {
			res.Warnings = append(res.Warnings, fmt.Sprintf("extreme 24h %s change %.1f%%", cs.name, *d))
		}
		if w := cs.set.Week; w != nil && math.Abs(*w) > maxWeekChange {
			res.Warnings = append(res.Warnings, fmt.Sprintf("extreme 7d %s change %.1f%%", cs.name, *w))
		}
	}
}

func checkPriceHistory(rec *domain.AggregatedRecord, res *domain.ValidationResult) {
	if len(rec.PriceHistory) == 0 {
		return
	}

	outOfOrder := false
	for i, p := range rec.PriceHistory {
		if p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			res.Errors = append(res.Errors, "price history contains negative or non-finite values")
			break
		}
		if i > 0 && p.Timestamp < rec.PriceHistory[i-1].Timestamp {
			outOfOrder = true
		}
	}
	if outOfOrder {
		res.Warnings = append(res.Warnings, "price history is not in chronological order")
	}
}

func checkChainTVLSum(rec *domain.AggregatedRecord, res *domain.ValidationResult) {
	if rec.TVL == nil || *rec.TVL <= 0 || len(rec.ChainTVLs) == 0 {
		return
	}
	var sum float64
	for _, v := range rec.ChainTVLs {
		sum += v
	}
	if math.Abs(sum-*rec.TVL)/(*rec.TVL) > chainTVLMismatch {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("per-chain TVL sum %.4g differs from total TVL %.4g by more than %.0f%%",
				sum, *rec.TVL, chainTVLMismatch*100))
	}
}

// grade maps error/warning counts and field completeness to a quality tier.
func grade(rec *domain.AggregatedRecord, res *domain.ValidationResult) domain.Quality {
	if len(res.Errors) > 0 {
		return domain.QualityPoor
	}
	c := Completeness(rec)
	if len(res.Warnings) > 3 || c < 0.40 {
		return domain.QualityFair
	}
	if len(res.Warnings) > 0 || c < 0.70 {
		return domain.QualityGood
	}
	return domain.QualityExcellent
}

// Completeness is the fraction of headline fields that are populated.
func Completeness(rec *domain.AggregatedRecord) float64 {
	total := 0
	have := 0

	strFields := []string{rec.Name, rec.Symbol, rec.Logo, rec.Category}
	for _, v := range strFields {
		total++
		if v != "" {
			have++
		}
	}

	numFields := []*float64{
		rec.PriceUSD, rec.MarketCap, rec.FDV, rec.Volume24h,
		rec.CirculatingSupply, rec.TotalSupply, rec.MaxSupply, rec.TVL,
	}
	for _, v := range numFields {
		total++
		if v != nil {
			have++
		}
	}

	return float64(have) / float64(total)
}
