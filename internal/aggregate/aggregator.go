// Package aggregate orchestrates one aggregation request: resolve the
// entity type, fan out to the providers the type calls for, apply the
// scrape fallback when everything else came back empty, and merge the
// surviving records into a single attributed report.
package aggregate

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/chainlens/internal/classify"
	"github.com/aristath/chainlens/internal/clientdata"
	"github.com/aristath/chainlens/internal/clients/llamascrape"
	"github.com/aristath/chainlens/internal/config"
	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/registry"
	"github.com/aristath/chainlens/internal/utils"
)

// ErrNotFound means no provider and no scrape fallback yielded any
// usable data for the query.
var ErrNotFound = errors.New("no data found for query")

// ChainProvider fetches chain-level TVL records.
type ChainProvider interface {
	GetChain(ctx context.Context, chainAPIName string) (*domain.ChainRecord, error)
}

// ProtocolProvider fetches protocol-level TVL records.
type ProtocolProvider interface {
	GetProtocol(ctx context.Context, slug string) (*domain.ProtocolRecord, error)
}

// MarketProvider fetches market data and resolves free-text queries to
// its canonical coin ids.
type MarketProvider interface {
	ResolveID(ctx context.Context, query string) (string, error)
	GetCoin(ctx context.Context, id string) (*domain.MarketRecord, error)
}

// Scraper is the HTML fallback for TVL figures.
type Scraper interface {
	FetchTVL(ctx context.Context, entityType domain.EntityType, query string) (*llamascrape.Result, error)
}

// Options tune a single aggregation call.
type Options struct {
	// ExplicitType is a caller-supplied type hint. A registry hit still
	// overrides a token-level hint, but a deliberate chain/protocol/
	// exchange hint is honored.
	ExplicitType domain.EntityType
	// ForceRefresh bypasses fresh cache reads for this request.
	ForceRefresh bool
}

// Aggregator ties the classifier and the provider clients together.
type Aggregator struct {
	cfg        *config.Config
	registry   *registry.Registry
	classifier *classify.Classifier
	chains     ChainProvider
	protocols  ProtocolProvider
	markets    MarketProvider
	scraper    Scraper
	log        zerolog.Logger
}

// New creates an aggregator over the given providers.
func New(
	cfg *config.Config,
	reg *registry.Registry,
	cls *classify.Classifier,
	chains ChainProvider,
	protocols ProtocolProvider,
	markets MarketProvider,
	scraper Scraper,
	log zerolog.Logger,
) *Aggregator {
	return &Aggregator{
		cfg:        cfg,
		registry:   reg,
		classifier: cls,
		chains:     chains,
		protocols:  protocols,
		markets:    markets,
		scraper:    scraper,
		log:        log.With().Str("component", "aggregator").Logger(),
	}
}

// resolution is the outcome of the type-resolution step: the entity
// type plus whatever canonical ids the registries could supply.
type resolution struct {
	Type        domain.EntityType
	Confidence  domain.Confidence
	RegistryHit bool

	ChainAPIName string
	ProtocolSlug string
	MarketID     string

	DisplayName string
	Symbol      string
	Category    string
}

// providerData holds whichever provider records survived the fan-out.
// Each field is written by exactly one goroutine before the join.
type providerData struct {
	chain    *domain.ChainRecord
	protocol *domain.ProtocolRecord
	market   *domain.MarketRecord
}

func (p *providerData) empty() bool {
	return p.chain == nil && p.protocol == nil && p.market == nil
}

// Aggregate resolves the query to an entity, queries the providers the
// resolved type calls for, and merges the results. Returns ErrNotFound
// only when every provider and the scrape fallback all came back empty.
func (a *Aggregator) Aggregate(ctx context.Context, query string, opts Options) (*domain.AggregatedRecord, error) {
	norm := utils.NormalizeQuery(query)
	if norm == "" {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.AggregateTimeout)
	defer cancel()
	if opts.ForceRefresh {
		ctx = clientdata.WithSkipCache(ctx)
	}

	res := a.resolve(norm, opts.ExplicitType)
	a.log.Debug().
		Str("query", norm).
		Str("type", string(res.Type)).
		Str("confidence", string(res.Confidence)).
		Msg("Resolved entity type")

	prov := a.fanOut(ctx, norm, res)

	if prov.empty() {
		return a.scrapeOnly(ctx, norm, res)
	}

	// Let the fetched data correct a weakly held type, curated registry
	// entries are never second-guessed.
	if !res.RegistryHit {
		if newType, changed := a.classifier.Reclassify(res.Type, norm, dataHints(prov)); changed {
			res.Type = newType
		}
	}

	return a.merge(ctx, norm, res, prov), nil
}

// resolve runs the type-resolution ladder over the static tables.
func (a *Aggregator) resolve(norm string, explicit domain.EntityType) resolution {
	if m, ok := a.registry.LookupChain(norm); ok {
		res := resolution{
			Type:         domain.EntityChain,
			Confidence:   domain.ConfidenceHigh,
			RegistryHit:  true,
			ChainAPIName: m.ChainAPIName,
			MarketID:     m.MarketAPIID,
			DisplayName:  m.DisplayName,
			Symbol:       m.Symbol,
			Category:     m.Category,
		}
		res.applyExplicit(explicit)
		return res
	}

	if al, ok := a.registry.LookupAlias(norm); ok {
		res := resolution{
			Type:         al.Type,
			Confidence:   domain.ConfidenceHigh,
			RegistryHit:  true,
			ProtocolSlug: al.ChainSlug,
			MarketID:     al.MarketID,
			DisplayName:  al.DisplayName,
			Symbol:       al.Symbol,
			Category:     al.Category,
		}
		res.applyExplicit(explicit)
		return res
	}

	if explicit != "" {
		return resolution{Type: explicit, Confidence: domain.ConfidenceLow}
	}

	cls := a.classifier.Classify(norm, nil)
	return resolution{Type: cls.Type, Confidence: cls.Confidence}
}

// applyExplicit lets a deliberate non-token hint override the registry
// type. Token-level hints lose to registry hits.
func (r *resolution) applyExplicit(explicit domain.EntityType) {
	if explicit != "" && explicit != domain.EntityToken && explicit != r.Type {
		r.Type = explicit
	}
}

// fanOut queries the providers the resolved type calls for, concurrently,
// with per-call timeouts nested inside the request deadline. Failures are
// absorbed per provider: the join keeps whichever calls succeeded.
func (a *Aggregator) fanOut(ctx context.Context, norm string, res resolution) *providerData {
	wantChain := res.Type == domain.EntityChain || res.Type == domain.EntityToken
	wantProtocol := res.Type == domain.EntityProtocol || res.Type == domain.EntityToken
	wantMarket := true

	out := &providerData{}
	var wg sync.WaitGroup

	if wantChain {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, a.cfg.ProviderTimeout)
			defer cancel()

			name := res.ChainAPIName
			if name == "" {
				name = norm
			}
			rec, err := a.chains.GetChain(cctx, name)
			if err != nil {
				a.log.Warn().Err(err).Str("chain", name).Msg("Chain provider failed")
				return
			}
			out.chain = rec
		}()
	}

	if wantProtocol {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, a.cfg.ProviderTimeout)
			defer cancel()

			slug := res.ProtocolSlug
			if slug == "" {
				slug = utils.Slugify(norm)
			}
			rec, err := a.protocols.GetProtocol(cctx, slug)
			if err != nil {
				a.log.Warn().Err(err).Str("slug", slug).Msg("Protocol provider failed")
				return
			}
			out.protocol = rec
		}()
	}

	if wantMarket {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, a.cfg.ProviderTimeout)
			defer cancel()

			id := res.MarketID
			if id == "" {
				resolved, err := a.markets.ResolveID(cctx, norm)
				if err != nil || resolved == "" {
					if err != nil {
						a.log.Warn().Err(err).Str("query", norm).Msg("Market id resolution failed")
					}
					return
				}
				id = resolved
			}
			rec, err := a.markets.GetCoin(cctx, id)
			if err != nil {
				a.log.Warn().Err(err).Str("id", id).Msg("Market provider failed")
				return
			}
			out.market = rec
		}()
	}

	wg.Wait()
	return out
}

// scrapeOnly is the last fallback: every provider came back empty, so
// try the HTML pages before giving up.
func (a *Aggregator) scrapeOnly(ctx context.Context, norm string, res resolution) (*domain.AggregatedRecord, error) {
	sr, err := a.scraper.FetchTVL(ctx, res.Type, norm)
	if err != nil {
		a.log.Info().Str("query", norm).Msg("No data from any provider or scrape")
		return nil, ErrNotFound
	}

	rec := newRecord(norm, res.Type)
	rec.Name = pickString(rec, "name", []stringSource{
		{sourceRegistry, func() string { return res.DisplayName }},
		{sourceQuery, func() string { return titleQuery(norm) }},
	})
	rec.Symbol = res.Symbol
	rec.Category = pickString(rec, "category", []stringSource{
		{sourceRegistry, func() string { return res.Category }},
		{sourceInferred, func() string { return inferredCategory(res.Type) }},
	})
	rec.TVL = domain.Float(sr.TVL)
	rec.Sources["tvl"] = sourceScrape + ":" + sr.URL
	return rec, nil
}

// dataHints extracts classification signals from fetched records.
func dataHints(prov *providerData) *classify.DataHints {
	if prov.protocol != nil {
		return &classify.DataHints{
			Name:      prov.protocol.Name,
			Category:  prov.protocol.Category,
			HasTVL:    prov.protocol.TVL != nil,
			ChainTVLs: prov.protocol.ChainTVLs,
		}
	}
	if prov.chain != nil {
		return &classify.DataHints{
			Name:   prov.chain.Name,
			HasTVL: prov.chain.TVL != nil,
		}
	}
	return nil
}

// isHighPriorityScrape reports whether the scraped TVL should be
// preferred for this entity.
func (a *Aggregator) isHighPriorityScrape(norm string, res resolution) bool {
	if res.Type == domain.EntityChain {
		return true
	}
	display := strings.ToLower(res.DisplayName)
	for _, name := range a.cfg.HighPriorityScrape {
		if norm == name || display == name {
			return true
		}
	}
	return false
}
