package classify

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/registry"
)

func newTestClassifier() *Classifier {
	log := zerolog.Nop()
	return New(registry.Load(log), log)
}

func TestClassifyRegistryChain(t *testing.T) {
	c := newTestClassifier()

	for _, query := range []string{"ethereum", "ETH", "  Solana  ", "bsc"} {
		cls := c.Classify(query, nil)
		assert.Equal(t, domain.EntityChain, cls.Type, "query %q", query)
		assert.Equal(t, domain.ConfidenceHigh, cls.Confidence, "query %q", query)
	}
}

func TestClassifyAlias(t *testing.T) {
	c := newTestClassifier()

	cls := c.Classify("uniswap", nil)
	assert.Equal(t, domain.EntityProtocol, cls.Type)
	assert.Equal(t, domain.ConfidenceHigh, cls.Confidence)

	cls = c.Classify("chainlink", nil)
	assert.Equal(t, domain.EntityToken, cls.Type)
	assert.Equal(t, domain.ConfidenceHigh, cls.Confidence)

	cls = c.Classify("binance", nil)
	assert.Equal(t, domain.EntityExchange, cls.Type)
}

func TestClassifyNamePatterns(t *testing.T) {
	c := newTestClassifier()

	cls := c.Classify("unichain network", nil)
	assert.Equal(t, domain.EntityChain, cls.Type)
	assert.Equal(t, domain.ConfidenceMedium, cls.Confidence)

	cls = c.Classify("quickswap", nil)
	assert.Equal(t, domain.EntityProtocol, cls.Type)
	assert.Equal(t, domain.ConfidenceMedium, cls.Confidence)
}

func TestClassifyDataShape(t *testing.T) {
	c := newTestClassifier()

	// TVL spread over several chains means a deployed protocol.
	cls := c.Classify("someproto", &DataHints{
		Name:      "SomeProto",
		ChainTVLs: map[string]float64{"Ethereum": 1e9, "Arbitrum": 2e8},
	})
	assert.Equal(t, domain.EntityProtocol, cls.Type)
	assert.Equal(t, domain.ConfidenceHigh, cls.Confidence)

	// TVL only under the entity's own name means a chain.
	cls = c.Classify("newchain", &DataHints{
		Name:      "NewChain",
		ChainTVLs: map[string]float64{"NewChain": 5e8},
	})
	assert.Equal(t, domain.EntityChain, cls.Type)
	assert.Equal(t, domain.ConfidenceHigh, cls.Confidence)

	cls = c.Classify("mystery", &DataHints{Category: "Lending"})
	assert.Equal(t, domain.EntityProtocol, cls.Type)
}

func TestClassifyFallbacks(t *testing.T) {
	c := newTestClassifier()

	cls := c.Classify("obscurething", &DataHints{PriorType: domain.EntityProtocol})
	assert.Equal(t, domain.EntityProtocol, cls.Type)
	assert.Equal(t, domain.ConfidenceLow, cls.Confidence)

	cls = c.Classify("obscurething", nil)
	assert.Equal(t, domain.EntityToken, cls.Type)
	assert.Equal(t, domain.ConfidenceLow, cls.Confidence)
}

func TestReclassify(t *testing.T) {
	c := newTestClassifier()

	// High-confidence fresh signal overrides.
	got, changed := c.Reclassify(domain.EntityToken, "somename", &DataHints{
		Name:      "SomeName",
		ChainTVLs: map[string]float64{"Ethereum": 1e9, "Base": 1e8},
	})
	assert.True(t, changed)
	assert.Equal(t, domain.EntityProtocol, got)

	// Medium-confidence chain signal upgrades a default token.
	got, changed = c.Reclassify(domain.EntityToken, "foo", &DataHints{
		Name:   "Foo",
		HasTVL: true,
	})
	assert.True(t, changed)
	assert.Equal(t, domain.EntityChain, got)

	// No signal leaves the type alone.
	got, changed = c.Reclassify(domain.EntityProtocol, "unknownthing", nil)
	assert.False(t, changed)
	assert.Equal(t, domain.EntityProtocol, got)
}
