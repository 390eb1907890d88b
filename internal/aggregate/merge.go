package aggregate

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/aristath/chainlens/internal/domain"
)

// Source names used in the attribution map.
const (
	sourceCoinGecko = "coingecko"
	sourceDeFiLlama = "defillama"
	sourceScrape    = "defillama-scrape"
	sourceRegistry  = "registry"
	sourceQuery     = "query"
	sourceInferred  = "inferred"
)

// stringSource is one (source, extractor) pair in an ordered merge list.
// The first extractor returning a non-empty value wins the field.
type stringSource struct {
	name string
	get  func() string
}

// floatSource is the numeric counterpart. Non-finite values never win,
// a field is either a finite number or nil.
type floatSource struct {
	name string
	get  func() *float64
}

func pickString(rec *domain.AggregatedRecord, field string, sources []stringSource) string {
	for _, s := range sources {
		if v := s.get(); v != "" {
			rec.Sources[field] = s.name
			return v
		}
	}
	return ""
}

func pickFloat(rec *domain.AggregatedRecord, field string, sources []floatSource) *float64 {
	for _, s := range sources {
		if v := finiteOrNil(s.get()); v != nil {
			rec.Sources[field] = s.name
			return v
		}
	}
	return nil
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func newRecord(query string, entityType domain.EntityType) *domain.AggregatedRecord {
	return &domain.AggregatedRecord{
		Query:     query,
		Type:      entityType,
		Sources:   make(map[string]string),
		FetchedAt: time.Now().UTC(),
	}
}

// merge folds the surviving provider records into one attributed report.
// Per-field priority is a fixed ordered list evaluated first-non-null-wins.
func (a *Aggregator) merge(ctx context.Context, norm string, res resolution, prov *providerData) *domain.AggregatedRecord {
	rec := newRecord(norm, res.Type)
	now := rec.FetchedAt

	marketStr := func(get func(*domain.MarketRecord) string) func() string {
		return func() string {
			if prov.market == nil {
				return ""
			}
			return get(prov.market)
		}
	}
	marketNum := func(get func(*domain.MarketRecord) *float64) func() *float64 {
		return func() *float64 {
			if prov.market == nil {
				return nil
			}
			return get(prov.market)
		}
	}

	// Identity: market data has the cleanest display names and logos,
	// then the TVL providers, then the curated tables, then the query.
	rec.Name = pickString(rec, "name", []stringSource{
		{sourceCoinGecko, marketStr(func(m *domain.MarketRecord) string { return m.Name })},
		{sourceDeFiLlama, func() string {
			if prov.protocol != nil {
				return prov.protocol.Name
			}
			if prov.chain != nil {
				return prov.chain.Name
			}
			return ""
		}},
		{sourceRegistry, func() string { return res.DisplayName }},
		{sourceQuery, func() string { return titleQuery(norm) }},
	})

	rec.Symbol = strings.ToUpper(pickString(rec, "symbol", []stringSource{
		{sourceCoinGecko, marketStr(func(m *domain.MarketRecord) string { return m.Symbol })},
		{sourceDeFiLlama, func() string {
			if prov.protocol != nil {
				return prov.protocol.Symbol
			}
			if prov.chain != nil {
				return prov.chain.Symbol
			}
			return ""
		}},
		{sourceRegistry, func() string { return res.Symbol }},
	}))

	rec.Logo = pickString(rec, "logo", []stringSource{
		{sourceCoinGecko, marketStr(func(m *domain.MarketRecord) string { return m.Logo })},
		{sourceDeFiLlama, func() string {
			if prov.protocol != nil {
				return prov.protocol.Logo
			}
			return ""
		}},
	})

	// Category: the curated table is hand-checked and wins over whatever
	// the provider reports.
	rec.Category = pickString(rec, "category", []stringSource{
		{sourceRegistry, func() string { return res.Category }},
		{sourceDeFiLlama, func() string {
			if prov.protocol != nil {
				return prov.protocol.Category
			}
			return ""
		}},
		{sourceCoinGecko, marketStr(func(m *domain.MarketRecord) string {
			if len(m.Categories) > 0 {
				return m.Categories[0]
			}
			return ""
		})},
		{sourceInferred, func() string { return inferredCategory(res.Type) }},
	})

	// Market fields come from the market-data provider only.
	rec.PriceUSD = pickFloat(rec, "price_usd", []floatSource{
		{sourceCoinGecko, marketNum(func(m *domain.MarketRecord) *float64 { return m.PriceUSD })},
	})
	rec.MarketCap = pickFloat(rec, "market_cap", []floatSource{
		{sourceCoinGecko, marketNum(func(m *domain.MarketRecord) *float64 { return m.MarketCap })},
	})
	rec.FDV = pickFloat(rec, "fdv", []floatSource{
		{sourceCoinGecko, marketNum(func(m *domain.MarketRecord) *float64 { return m.FDV })},
	})
	rec.Volume24h = pickFloat(rec, "volume_24h", []floatSource{
		{sourceCoinGecko, marketNum(func(m *domain.MarketRecord) *float64 { return m.Volume24h })},
	})

	rec.CirculatingSupply = pickFloat(rec, "circulating_supply", []floatSource{
		{sourceCoinGecko, marketNum(func(m *domain.MarketRecord) *float64 { return m.CirculatingSupply })},
	})
	rec.TotalSupply = pickFloat(rec, "total_supply", []floatSource{
		{sourceCoinGecko, marketNum(func(m *domain.MarketRecord) *float64 { return m.TotalSupply })},
	})
	rec.MaxSupply = pickFloat(rec, "max_supply", []floatSource{
		{sourceCoinGecko, marketNum(func(m *domain.MarketRecord) *float64 { return m.MaxSupply })},
	})

	a.resolveTVL(ctx, norm, res, prov, rec)

	// TVL change windows: provider deltas first, then the time series.
	tvlCS := domain.ChangeSet{}
	var tvlHistory []domain.TVLPoint
	if prov.protocol != nil {
		tvlCS.Day = finiteOrNil(prov.protocol.Change1d)
		tvlCS.Week = finiteOrNil(prov.protocol.Change7d)
		tvlCS.Month = finiteOrNil(prov.protocol.Change30d)
		tvlHistory = prov.protocol.History
	} else if prov.chain != nil {
		tvlHistory = prov.chain.History
	}
	ts, vals := tvlSeries(tvlHistory)
	fillChanges(&tvlCS, ts, vals, rec.TVL, now)
	if hasAnyWindow(tvlCS) {
		rec.Sources["tvl_change"] = sourceDeFiLlama
	}
	rec.TVLChange = tvlCS

	// Price change windows come from the market-data provider only.
	if prov.market != nil {
		priceCS := domain.ChangeSet{
			Day:   finiteOrNil(prov.market.PriceChange1d),
			Week:  finiteOrNil(prov.market.PriceChange7d),
			Month: finiteOrNil(prov.market.PriceChange30d),
			Year:  finiteOrNil(prov.market.PriceChange1y),
		}
		pts, pvals := priceSeries(prov.market.PriceHistory)
		fillChanges(&priceCS, pts, pvals, rec.PriceUSD, now)
		if hasAnyWindow(priceCS) {
			rec.Sources["price_change"] = sourceCoinGecko
		}
		rec.PriceChange = priceCS
		rec.PriceHistory = prov.market.PriceHistory
	}

	if prov.protocol != nil && len(prov.protocol.ChainTVLs) > 0 {
		if filtered := filterChainTVLs(prov.protocol.ChainTVLs); len(filtered) > 0 {
			rec.ChainTVLs = filtered
			rec.Sources["chain_tvls"] = sourceDeFiLlama
		}
	}

	return rec
}

// resolveTVL applies the TVL preference rule: scraped figures win for
// chains and the high-priority names, and a suspiciously small API TVL
// gets a confirmatory scrape with the larger value taken.
func (a *Aggregator) resolveTVL(ctx context.Context, norm string, res resolution, prov *providerData, rec *domain.AggregatedRecord) {
	var apiTVL *float64
	apiSource := sourceDeFiLlama
	if prov.protocol != nil {
		apiTVL = finiteOrNil(prov.protocol.TVL)
	}
	if apiTVL == nil && prov.chain != nil {
		apiTVL = finiteOrNil(prov.chain.TVL)
	}

	if a.isHighPriorityScrape(norm, res) {
		if sr, err := a.scraper.FetchTVL(ctx, res.Type, norm); err == nil && sr.TVL > 0 {
			rec.TVL = domain.Float(sr.TVL)
			rec.Sources["tvl"] = sourceScrape + ":" + sr.URL
			return
		}
		// Scrape failed, fall back to whatever the API returned.
	}

	if apiTVL == nil {
		return
	}

	if *apiTVL < a.cfg.ScrapeTVLFloor {
		if sr, err := a.scraper.FetchTVL(ctx, res.Type, norm); err == nil && sr.TVL > *apiTVL {
			rec.TVL = domain.Float(sr.TVL)
			rec.Sources["tvl"] = sourceScrape + ":" + sr.URL
			return
		}
	}

	rec.TVL = apiTVL
	rec.Sources["tvl"] = apiSource
}

// syntheticChainKeys are accounting breakdowns the TVL provider mixes
// into the per-chain map. They are not chains and are dropped.
var syntheticChainKeys = map[string]bool{
	"staking":  true,
	"pool2":    true,
	"borrowed": true,
}

var syntheticChainSuffixes = []string{"-staking", "-borrowed", "-pool2"}

func filterChainTVLs(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for key, tvl := range in {
		if isSyntheticChainKey(key) {
			continue
		}
		out[key] = tvl
	}
	return out
}

func isSyntheticChainKey(key string) bool {
	lower := strings.ToLower(key)
	if syntheticChainKeys[lower] {
		return true
	}
	for _, suffix := range syntheticChainSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func hasAnyWindow(cs domain.ChangeSet) bool {
	return cs.Day != nil || cs.Week != nil || cs.Month != nil || cs.Year != nil
}

// inferredCategory is the category of last resort, derived from the type.
func inferredCategory(t domain.EntityType) string {
	switch t {
	case domain.EntityChain:
		return "Chain"
	case domain.EntityProtocol:
		return "Protocol"
	case domain.EntityExchange:
		return "Exchange"
	default:
		return "Token"
	}
}

// titleQuery upper-cases the first letter of each word for display.
func titleQuery(norm string) string {
	words := strings.Fields(norm)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
