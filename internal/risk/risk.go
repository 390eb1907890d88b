// Package risk derives a deterministic risk assessment and 0-100 score
// from an aggregated record. Every heuristic is an independent fixed
// threshold, the same record always yields the same score.
package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/chainlens/internal/domain"
)

// Scoring weights and band boundaries.
const (
	baseScore      = 50
	flagPenalty    = 15
	warningPenalty = 5
	positiveBonus  = 8

	largeCapFloor = 10e9
	midCapFloor   = 1e9
)

// Assess evaluates every heuristic against the record.
func Assess(rec *domain.AggregatedRecord) domain.RiskAssessment {
	a := domain.RiskAssessment{
		Flags:     []string{},
		Warnings:  []string{},
		Positives: []string{},
	}

	assessSupplyRatio(rec, &a)
	assessFDVRatio(rec, &a)
	assessVolumeRatio(rec, &a)
	assessCapToTVL(rec, &a)
	assessTVLTrend(rec, &a)
	assessPriceTrend(rec, &a)
	assessVolatility(rec, &a)
	assessCapTier(rec, &a)

	return a
}

// Annualized realized volatility thresholds, in percent.
const (
	highVolatility = 150
	lowVolatility  = 50
)

// assessVolatility computes annualized realized volatility from log
// returns over the price history. The series spacing is derived from
// the timestamps, so hourly and daily histories are treated alike.
func assessVolatility(rec *domain.AggregatedRecord, a *domain.RiskAssessment) {
	points := rec.PriceHistory
	if len(points) < 8 {
		return
	}

	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Price, points[i].Price
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if len(returns) < 7 {
		return
	}

	spacing := float64(points[len(points)-1].Timestamp-points[0].Timestamp) / float64(len(points)-1)
	if spacing <= 0 {
		return
	}
	periodsPerYear := 365 * 86400.0 / spacing

	vol := stat.StdDev(returns, nil) * math.Sqrt(periodsPerYear) * 100
	switch {
	case vol > highVolatility:
		a.Warnings = append(a.Warnings, fmt.Sprintf("annualized volatility %.0f%%, highly volatile", vol))
	case vol < lowVolatility:
		a.Positives = append(a.Positives, fmt.Sprintf("annualized volatility %.0f%%, comparatively stable", vol))
	}
}

// assessSupplyRatio looks at how much of the eventual supply is already
// circulating. A low ratio means heavy future dilution.
func assessSupplyRatio(rec *domain.AggregatedRecord, a *domain.RiskAssessment) {
	if rec.CirculatingSupply == nil || rec.TotalSupply == nil || *rec.TotalSupply <= 0 {
		return
	}
	ratio := *rec.CirculatingSupply / *rec.TotalSupply
	switch {
	case ratio < 0.30:
		a.Flags = append(a.Flags, fmt.Sprintf("only %.0f%% of supply circulating, heavy dilution ahead", ratio*100))
	case ratio < 0.50:
		a.Warnings = append(a.Warnings, fmt.Sprintf("%.0f%% of supply circulating, dilution risk", ratio*100))
	default:
		a.Positives = append(a.Positives, fmt.Sprintf("%.0f%% of supply already circulating", ratio*100))
	}
}

func assessFDVRatio(rec *domain.AggregatedRecord, a *domain.RiskAssessment) {
	if rec.FDV == nil || rec.MarketCap == nil || *rec.MarketCap <= 0 {
		return
	}
	ratio := *rec.FDV / *rec.MarketCap
	switch {
	case ratio > 10:
		a.Flags = append(a.Flags, fmt.Sprintf("FDV is %.1fx market cap, extreme unlock overhang", ratio))
	case ratio > 3:
		a.Warnings = append(a.Warnings, fmt.Sprintf("FDV is %.1fx market cap", ratio))
	case ratio < 1.5:
		a.Positives = append(a.Positives, "FDV close to market cap, little unlock overhang")
	}
}

func assessVolumeRatio(rec *domain.AggregatedRecord, a *domain.RiskAssessment) {
	if rec.Volume24h == nil || rec.MarketCap == nil || *rec.MarketCap <= 0 {
		return
	}
	ratio := *rec.Volume24h / *rec.MarketCap
	switch {
	case ratio < 0.01:
		a.Flags = append(a.Flags, fmt.Sprintf("24h volume only %.2f%% of market cap, very illiquid", ratio*100))
	case ratio < 0.05:
		a.Warnings = append(a.Warnings, fmt.Sprintf("24h volume %.1f%% of market cap, thin liquidity", ratio*100))
	default:
		a.Positives = append(a.Positives, "healthy trading volume relative to market cap")
	}
}

func assessCapToTVL(rec *domain.AggregatedRecord, a *domain.RiskAssessment) {
	if rec.MarketCap == nil || rec.TVL == nil || *rec.TVL <= 0 {
		return
	}
	ratio := *rec.MarketCap / *rec.TVL
	switch {
	case ratio < 0.5:
		a.Positives = append(a.Positives, fmt.Sprintf("market cap is %.2fx TVL, potentially undervalued", ratio))
	case ratio > 3:
		a.Warnings = append(a.Warnings, fmt.Sprintf("market cap is %.1fx TVL, rich valuation", ratio))
	}
}

func assessTVLTrend(rec *domain.AggregatedRecord, a *domain.RiskAssessment) {
	if rec.TVLChange.Week == nil {
		return
	}
	switch change := *rec.TVLChange.Week; {
	case change < -20:
		a.Flags = append(a.Flags, fmt.Sprintf("TVL down %.1f%% over 7 days, capital is leaving", -change))
	case change > 20:
		a.Positives = append(a.Positives, fmt.Sprintf("TVL up %.1f%% over 7 days", change))
	}
}

func assessPriceTrend(rec *domain.AggregatedRecord, a *domain.RiskAssessment) {
	if rec.PriceChange.Week == nil {
		return
	}
	if *rec.PriceChange.Week < -30 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("price down %.1f%% over 7 days", -*rec.PriceChange.Week))
	}
}

func assessCapTier(rec *domain.AggregatedRecord, a *domain.RiskAssessment) {
	if rec.MarketCap == nil {
		return
	}
	switch {
	case *rec.MarketCap >= largeCapFloor:
		a.Positives = append(a.Positives, "large cap asset")
	case *rec.MarketCap >= midCapFloor:
		// mid caps are neutral
	default:
		a.Warnings = append(a.Warnings, "small cap asset, expect high volatility")
	}
}

// Score folds an assessment into the 0-100 score and its fixed band texts.
func Score(a domain.RiskAssessment) domain.RiskScore {
	score := baseScore
	score -= flagPenalty * len(a.Flags)
	score -= warningPenalty * len(a.Warnings)
	score += positiveBonus * len(a.Positives)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	classification, recommendation := band(score)
	return domain.RiskScore{
		Score:          score,
		Classification: classification,
		Recommendation: recommendation,
	}
}

// band maps a score to its fixed classification and recommendation text.
func band(score int) (string, string) {
	switch {
	case score >= 80:
		return "Low Risk", "Fundamentals look solid. Standard position sizing applies."
	case score >= 60:
		return "Moderate Risk", "Mostly healthy metrics with some caveats. Size positions accordingly."
	case score >= 40:
		return "Elevated Risk", "Several concerning signals. Only allocate what you can afford to lose."
	case score >= 20:
		return "High Risk", "Multiple red flags present. Extreme caution advised."
	default:
		return "Very High Risk", "Red flags dominate this asset. Avoid or treat as speculative only."
	}
}
