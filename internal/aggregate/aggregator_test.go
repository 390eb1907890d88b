package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chainlens/internal/classify"
	"github.com/aristath/chainlens/internal/clients/llamascrape"
	"github.com/aristath/chainlens/internal/config"
	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/registry"
)

type fakeChains struct {
	rec   *domain.ChainRecord
	err   error
	calls int
}

func (f *fakeChains) GetChain(ctx context.Context, name string) (*domain.ChainRecord, error) {
	f.calls++
	return f.rec, f.err
}

type fakeProtocols struct {
	rec   *domain.ProtocolRecord
	err   error
	calls int
}

func (f *fakeProtocols) GetProtocol(ctx context.Context, slug string) (*domain.ProtocolRecord, error) {
	f.calls++
	return f.rec, f.err
}

type fakeMarkets struct {
	id    string
	rec   *domain.MarketRecord
	err   error
	calls int
}

func (f *fakeMarkets) ResolveID(ctx context.Context, query string) (string, error) {
	return f.id, nil
}

func (f *fakeMarkets) GetCoin(ctx context.Context, id string) (*domain.MarketRecord, error) {
	f.calls++
	return f.rec, f.err
}

type fakeScraper struct {
	res   *llamascrape.Result
	err   error
	calls int
}

func (f *fakeScraper) FetchTVL(ctx context.Context, entityType domain.EntityType, query string) (*llamascrape.Result, error) {
	f.calls++
	return f.res, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		AggregateTimeout:   5 * time.Second,
		ProviderTimeout:    2 * time.Second,
		ScrapeTVLFloor:     1_000_000,
		HighPriorityScrape: []string{"tron"},
	}
}

func newTestAggregator(chains *fakeChains, protocols *fakeProtocols, markets *fakeMarkets, scraper *fakeScraper) *Aggregator {
	log := zerolog.Nop()
	reg := registry.Load(log)
	cls := classify.New(reg, log)
	return New(testConfig(), reg, cls, chains, protocols, markets, scraper, log)
}

func TestAggregateChainQuery(t *testing.T) {
	chains := &fakeChains{rec: &domain.ChainRecord{
		Name:   "Ethereum",
		Symbol: "ETH",
		TVL:    domain.Float(60e9),
	}}
	protocols := &fakeProtocols{err: errors.New("should not be called")}
	markets := &fakeMarkets{rec: &domain.MarketRecord{
		Name:     "Ethereum",
		Symbol:   "eth",
		PriceUSD: domain.Float(3200),
	}}
	scraper := &fakeScraper{res: &llamascrape.Result{TVL: 62e9, URL: "https://defillama.com/chain/ethereum"}}

	agg := newTestAggregator(chains, protocols, markets, scraper)
	rec, err := agg.Aggregate(context.Background(), "ethereum", Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.EntityChain, rec.Type)
	assert.Equal(t, 0, protocols.calls, "protocol provider must be skipped for chains")
	require.NotNil(t, rec.PriceUSD)
	require.NotNil(t, rec.TVL)

	// Chains prefer the scraped figure over the API one.
	assert.InDelta(t, 62e9, *rec.TVL, 1)
	assert.Equal(t, "defillama-scrape:https://defillama.com/chain/ethereum", rec.Sources["tvl"])
	assert.Equal(t, "ETH", rec.Symbol)
}

func TestAggregateAliasProtocol(t *testing.T) {
	chains := &fakeChains{err: errors.New("should not be called")}
	protocols := &fakeProtocols{rec: &domain.ProtocolRecord{
		Name:     "AAVE",
		Symbol:   "AAVE",
		Category: "Lending Pools",
		TVL:      domain.Float(12e9),
	}}
	markets := &fakeMarkets{rec: &domain.MarketRecord{
		Name:      "Aave",
		Symbol:    "aave",
		PriceUSD:  domain.Float(95),
		MarketCap: domain.Float(1.4e9),
	}}
	scraper := &fakeScraper{err: errors.New("down")}

	agg := newTestAggregator(chains, protocols, markets, scraper)
	rec, err := agg.Aggregate(context.Background(), "aave", Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.EntityProtocol, rec.Type)
	assert.Equal(t, 0, chains.calls, "chain provider must be skipped for protocols")

	// The curated category wins over the provider's.
	assert.Equal(t, "Lending", rec.Category)
	assert.Equal(t, "registry", rec.Sources["category"])

	require.NotNil(t, rec.TVL)
	assert.InDelta(t, 12e9, *rec.TVL, 1)
	assert.Equal(t, "defillama", rec.Sources["tvl"])
}

func TestAggregateAllProvidersFail(t *testing.T) {
	chains := &fakeChains{err: errors.New("timeout")}
	protocols := &fakeProtocols{err: errors.New("timeout")}
	markets := &fakeMarkets{err: errors.New("timeout")}
	scraper := &fakeScraper{err: errors.New("no page")}

	agg := newTestAggregator(chains, protocols, markets, scraper)
	rec, err := agg.Aggregate(context.Background(), "nonexistent-thing", Options{})

	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAggregateScrapeOnlyFallback(t *testing.T) {
	chains := &fakeChains{err: errors.New("down")}
	protocols := &fakeProtocols{err: errors.New("down")}
	markets := &fakeMarkets{err: errors.New("down")}
	scraper := &fakeScraper{res: &llamascrape.Result{TVL: 4.2e8, URL: "https://defillama.com/protocol/obscure"}}

	agg := newTestAggregator(chains, protocols, markets, scraper)
	rec, err := agg.Aggregate(context.Background(), "obscure protocol", Options{})
	require.NoError(t, err)

	require.NotNil(t, rec.TVL)
	assert.InDelta(t, 4.2e8, *rec.TVL, 1)
	assert.Equal(t, "Obscure Protocol", rec.Name)
	assert.Nil(t, rec.PriceUSD)
}

func TestAggregateConfirmatoryScrapeOnLowTVL(t *testing.T) {
	protocols := &fakeProtocols{rec: &domain.ProtocolRecord{
		Name: "TinyProto",
		TVL:  domain.Float(500),
	}}
	scraper := &fakeScraper{res: &llamascrape.Result{TVL: 3e6, URL: "https://defillama.com/protocol/tinyproto"}}
	markets := &fakeMarkets{err: errors.New("unknown")}
	chains := &fakeChains{err: errors.New("unknown")}

	agg := newTestAggregator(chains, protocols, markets, scraper)
	rec, err := agg.Aggregate(context.Background(), "tinyproto", Options{ExplicitType: domain.EntityProtocol})
	require.NoError(t, err)

	// API TVL below the floor triggers a confirmatory scrape, larger value wins.
	require.NotNil(t, rec.TVL)
	assert.InDelta(t, 3e6, *rec.TVL, 1)
	assert.Equal(t, 1, scraper.calls)
}

func TestAggregateKeepsAPITVLWhenScrapeSmaller(t *testing.T) {
	protocols := &fakeProtocols{rec: &domain.ProtocolRecord{
		Name: "TinyProto",
		TVL:  domain.Float(900_000),
	}}
	scraper := &fakeScraper{res: &llamascrape.Result{TVL: 100, URL: "https://defillama.com/protocol/tinyproto"}}
	markets := &fakeMarkets{err: errors.New("unknown")}
	chains := &fakeChains{err: errors.New("unknown")}

	agg := newTestAggregator(chains, protocols, markets, scraper)
	rec, err := agg.Aggregate(context.Background(), "tinyproto", Options{ExplicitType: domain.EntityProtocol})
	require.NoError(t, err)

	require.NotNil(t, rec.TVL)
	assert.InDelta(t, 900_000, *rec.TVL, 1)
	assert.Equal(t, "defillama", rec.Sources["tvl"])
}

func TestAggregateTokenHintLosesToRegistry(t *testing.T) {
	chains := &fakeChains{rec: &domain.ChainRecord{Name: "Ethereum", TVL: domain.Float(60e9)}}
	protocols := &fakeProtocols{}
	markets := &fakeMarkets{rec: &domain.MarketRecord{Name: "Ethereum", PriceUSD: domain.Float(3200)}}
	scraper := &fakeScraper{err: errors.New("down")}

	agg := newTestAggregator(chains, protocols, markets, scraper)
	rec, err := agg.Aggregate(context.Background(), "ethereum", Options{ExplicitType: domain.EntityToken})
	require.NoError(t, err)

	assert.Equal(t, domain.EntityChain, rec.Type)
	assert.Equal(t, 0, protocols.calls)
}

func TestAggregateReclassifiesFromDataShape(t *testing.T) {
	// Unknown query defaults to token, so every provider is tried. The
	// protocol record's multi-chain TVL breakdown corrects the type.
	chains := &fakeChains{err: errors.New("not a chain")}
	protocols := &fakeProtocols{rec: &domain.ProtocolRecord{
		Name: "FooProto",
		TVL:  domain.Float(2e9),
		ChainTVLs: map[string]float64{
			"Ethereum": 1.5e9,
			"Arbitrum": 0.5e9,
		},
	}}
	markets := &fakeMarkets{err: errors.New("unknown")}
	scraper := &fakeScraper{err: errors.New("down")}

	agg := newTestAggregator(chains, protocols, markets, scraper)
	rec, err := agg.Aggregate(context.Background(), "fooproto", Options{})
	require.NoError(t, err)

	assert.Equal(t, domain.EntityProtocol, rec.Type)
	assert.Len(t, rec.ChainTVLs, 2)
}

func TestAggregateEmptyQuery(t *testing.T) {
	agg := newTestAggregator(&fakeChains{}, &fakeProtocols{}, &fakeMarkets{}, &fakeScraper{err: errors.New("down")})
	_, err := agg.Aggregate(context.Background(), "   ", Options{})
	assert.ErrorIs(t, err, ErrNotFound)
}
