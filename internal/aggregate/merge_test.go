package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chainlens/internal/domain"
)

func TestFilterChainTVLs(t *testing.T) {
	in := map[string]float64{
		"Ethereum":          1e9,
		"Arbitrum":          2e8,
		"staking":           5e7,
		"pool2":             1e6,
		"borrowed":          3e6,
		"Ethereum-staking":  4e7,
		"Arbitrum-borrowed": 2e6,
		"Polygon-pool2":     1e5,
	}

	out := filterChainTVLs(in)
	require.Len(t, out, 2)
	assert.Contains(t, out, "Ethereum")
	assert.Contains(t, out, "Arbitrum")
}

func TestPickFloatOrderAndAttribution(t *testing.T) {
	rec := newRecord("x", domain.EntityToken)

	got := pickFloat(rec, "tvl", []floatSource{
		{"first", func() *float64 { return nil }},
		{"second", func() *float64 { return domain.Float(42) }},
		{"third", func() *float64 { return domain.Float(7) }},
	})

	require.NotNil(t, got)
	assert.Equal(t, 42.0, *got)
	assert.Equal(t, "second", rec.Sources["tvl"])
}

func TestPickFloatSkipsNonFinite(t *testing.T) {
	rec := newRecord("x", domain.EntityToken)

	got := pickFloat(rec, "price_usd", []floatSource{
		{"bad", func() *float64 { return domain.Float(math.NaN()) }},
		{"worse", func() *float64 { return domain.Float(math.Inf(1)) }},
		{"good", func() *float64 { return domain.Float(1.5) }},
	})

	require.NotNil(t, got)
	assert.Equal(t, 1.5, *got)
	assert.Equal(t, "good", rec.Sources["price_usd"])
}

func TestPickStringFallsThroughToQuery(t *testing.T) {
	rec := newRecord("some token", domain.EntityToken)

	name := pickString(rec, "name", []stringSource{
		{sourceCoinGecko, func() string { return "" }},
		{sourceQuery, func() string { return titleQuery("some token") }},
	})

	assert.Equal(t, "Some Token", name)
	assert.Equal(t, sourceQuery, rec.Sources["name"])
}

func TestInferredCategory(t *testing.T) {
	assert.Equal(t, "Chain", inferredCategory(domain.EntityChain))
	assert.Equal(t, "Token", inferredCategory(domain.EntityToken))
	assert.Equal(t, "Exchange", inferredCategory(domain.EntityExchange))
}
