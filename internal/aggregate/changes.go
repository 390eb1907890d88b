package aggregate

import (
	"math"
	"time"

	"github.com/aristath/chainlens/internal/domain"
)

// Lookback windows for percentage-change calculation.
const (
	windowDay   = 24 * time.Hour
	windowWeek  = 7 * 24 * time.Hour
	windowMonth = 30 * 24 * time.Hour
	windowYear  = 365 * 24 * time.Hour
)

// fillChanges computes any window of cs that is still nil from the time
// series. Provider-supplied deltas always win; this only fills gaps.
// Windows are independent, a missing month does not block the day.
func fillChanges(cs *domain.ChangeSet, timestamps []int64, values []float64, current *float64, now time.Time) {
	if current == nil || len(timestamps) == 0 {
		return
	}
	if cs.Day == nil {
		cs.Day = seriesChange(timestamps, values, *current, windowDay, now)
	}
	if cs.Week == nil {
		cs.Week = seriesChange(timestamps, values, *current, windowWeek, now)
	}
	if cs.Month == nil {
		cs.Month = seriesChange(timestamps, values, *current, windowMonth, now)
	}
	if cs.Year == nil {
		cs.Year = seriesChange(timestamps, values, *current, windowYear, now)
	}
}

// seriesChange finds the series point whose timestamp is closest to
// now-window and returns the percentage change from it to current.
// An exact timestamp match is not required. Returns nil when the series
// is empty or the found value is zero or not finite.
func seriesChange(timestamps []int64, values []float64, current float64, window time.Duration, now time.Time) *float64 {
	if len(timestamps) == 0 || len(timestamps) != len(values) {
		return nil
	}

	target := now.Add(-window).Unix()
	best := 0
	bestDiff := absInt64(timestamps[0] - target)
	for i := 1; i < len(timestamps); i++ {
		if diff := absInt64(timestamps[i] - target); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}

	past := values[best]
	if past == 0 || math.IsNaN(past) || math.IsInf(past, 0) {
		return nil
	}

	change := (current - past) / past * 100
	if math.IsNaN(change) || math.IsInf(change, 0) {
		return nil
	}
	return &change
}

// tvlSeries splits a TVL history into parallel timestamp/value slices.
func tvlSeries(points []domain.TVLPoint) ([]int64, []float64) {
	ts := make([]int64, len(points))
	vals := make([]float64, len(points))
	for i, p := range points {
		ts[i] = p.Timestamp
		vals[i] = p.TVL
	}
	return ts, vals
}

// priceSeries splits a price history into parallel timestamp/value slices.
func priceSeries(points []domain.PricePoint) ([]int64, []float64) {
	ts := make([]int64, len(points))
	vals := make([]float64, len(points))
	for i, p := range points {
		ts[i] = p.Timestamp
		vals[i] = p.Price
	}
	return ts, vals
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
