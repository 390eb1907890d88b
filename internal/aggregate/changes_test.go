package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chainlens/internal/domain"
)

func TestSeriesChangeOneDay(t *testing.T) {
	t0 := int64(1_700_000_000)
	t1 := t0 + 86400
	now := time.Unix(t1, 0)

	ts, vals := tvlSeries([]domain.TVLPoint{
		{Timestamp: t0, TVL: 100},
		{Timestamp: t1, TVL: 110},
	})

	got := seriesChange(ts, vals, 110, windowDay, now)
	require.NotNil(t, got)
	assert.InDelta(t, 10.0, *got, 1e-9)
}

func TestSeriesChangeNearestWins(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	target := now.Add(-windowWeek).Unix()

	// No exact match. The point two hours off the target beats the one
	// two days off.
	ts := []int64{target - 2*86400, target + 7200, now.Unix()}
	vals := []float64{50, 80, 100}

	got := seriesChange(ts, vals, 100, windowWeek, now)
	require.NotNil(t, got)
	assert.InDelta(t, 25.0, *got, 1e-9)
}

func TestSeriesChangeNilCases(t *testing.T) {
	now := time.Now()

	assert.Nil(t, seriesChange(nil, nil, 100, windowDay, now))

	// A zero found value must not produce a division artifact.
	got := seriesChange([]int64{now.Add(-windowDay).Unix()}, []float64{0}, 100, windowDay, now)
	assert.Nil(t, got)
}

func TestFillChangesPrefersDirectDeltas(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cs := domain.ChangeSet{Day: domain.Float(3.5)}

	ts := []int64{now.Add(-windowDay).Unix(), now.Unix()}
	vals := []float64{100, 110}

	fillChanges(&cs, ts, vals, domain.Float(110), now)

	// The provider-supplied 1d delta survives, the missing windows fill.
	require.NotNil(t, cs.Day)
	assert.InDelta(t, 3.5, *cs.Day, 1e-9)
	assert.NotNil(t, cs.Week)
}

func TestFillChangesIndependentWindows(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cs := domain.ChangeSet{}

	fillChanges(&cs, nil, nil, domain.Float(110), now)
	assert.Nil(t, cs.Day)
	assert.Nil(t, cs.Year)

	cs = domain.ChangeSet{}
	fillChanges(&cs, []int64{now.Unix()}, []float64{100}, nil, now)
	assert.Nil(t, cs.Day)
}
