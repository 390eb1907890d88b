// Package defillama provides the chain/protocol TVL API client.
package defillama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/chainlens/internal/clientdata"
	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/fetch"
)

// Client for the DeFiLlama TVL API.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
	retry     fetch.Policy
}

// NewClient creates a new DeFiLlama API client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.llama.fi",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "defillama").Logger(),
		cacheRepo: cacheRepo,
		retry:     fetch.DefaultPolicy,
	}
}

// chainEntry is the wire shape of one /v2/chains element.
type chainEntry struct {
	Name        string   `json:"name"`
	TokenSymbol string   `json:"tokenSymbol"`
	GeckoID     string   `json:"gecko_id"`
	TVL         *float64 `json:"tvl"`
}

// GetChains returns all chains known to the provider with their current TVL.
func (c *Client) GetChains(ctx context.Context) ([]domain.ChainRecord, error) {
	const table, key = "defillama_chains", "all"

	var entries []chainEntry

	if raw := c.freshCache(ctx, table, key); raw != nil {
		if err := json.Unmarshal(raw, &entries); err == nil {
			return chainsToDomain(entries), nil
		}
	}

	reqURL := c.baseURL + "/v2/chains"
	err := fetch.DoWithRetry(ctx, c.retry, func() error {
		entries = nil
		return fetch.GetJSON(ctx, c.client, reqURL, &entries)
	})
	if err != nil {
		// API failed - stale data is better than no data
		if raw := c.staleCache(table, key); raw != nil {
			if jerr := json.Unmarshal(raw, &entries); jerr == nil {
				c.log.Warn().Err(err).Msg("API failed, using stale cached chain list")
				return chainsToDomain(entries), nil
			}
		}
		return nil, fmt.Errorf("failed to fetch chains: %w", err)
	}

	c.storeCache(table, key, entries, clientdata.TTLChains)

	c.log.Debug().Int("chains", len(entries)).Msg("Fetched chain list")
	return chainsToDomain(entries), nil
}

// GetChain returns one chain by its provider name (case-insensitive),
// including its TVL history.
func (c *Client) GetChain(ctx context.Context, chainAPIName string) (*domain.ChainRecord, error) {
	chains, err := c.GetChains(ctx)
	if err != nil {
		return nil, err
	}

	var found *domain.ChainRecord
	for i := range chains {
		if strings.EqualFold(chains[i].Name, chainAPIName) {
			found = &chains[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("chain %q not found in provider list", chainAPIName)
	}

	// History is best-effort: a chain record without it is still usable
	history, err := c.GetChainHistory(ctx, found.Name)
	if err != nil {
		c.log.Warn().Err(err).Str("chain", found.Name).Msg("Failed to fetch chain TVL history")
	} else {
		found.History = history
	}

	return found, nil
}

// GetChainHistory returns the TVL time series for a chain.
func (c *Client) GetChainHistory(ctx context.Context, chainAPIName string) ([]domain.TVLPoint, error) {
	const table = "defillama_chain_history"
	key := strings.ToLower(chainAPIName)

	var points []domain.TVLPoint

	if raw := c.freshCache(ctx, table, key); raw != nil {
		if err := json.Unmarshal(raw, &points); err == nil {
			return points, nil
		}
	}

	reqURL := c.baseURL + "/v2/historicalChainTvl/" + url.PathEscape(chainAPIName)
	err := fetch.DoWithRetry(ctx, c.retry, func() error {
		points = nil
		return fetch.GetJSON(ctx, c.client, reqURL, &points)
	})
	if err != nil {
		if raw := c.staleCache(table, key); raw != nil {
			if jerr := json.Unmarshal(raw, &points); jerr == nil {
				c.log.Warn().Err(err).Str("chain", chainAPIName).Msg("API failed, using stale cached history")
				return points, nil
			}
		}
		return nil, fmt.Errorf("failed to fetch chain history for %s: %w", chainAPIName, err)
	}

	c.storeCache(table, key, points, clientdata.TTLChainHistory)

	return points, nil
}

// protocolResponse is the wire shape of /protocol/{slug}.
type protocolResponse struct {
	Name      string             `json:"name"`
	Symbol    string             `json:"symbol"`
	Logo      string             `json:"logo"`
	Category  string             `json:"category"`
	URL       string             `json:"url"`
	ChainTVLs map[string]float64 `json:"currentChainTvls"`
	TVL       []domain.TVLPoint  `json:"tvl"`
}

// GetProtocol returns one protocol by slug, with per-chain TVL breakdown
// and TVL history.
func (c *Client) GetProtocol(ctx context.Context, slug string) (*domain.ProtocolRecord, error) {
	const table = "defillama_protocol"

	var resp protocolResponse

	if raw := c.freshCache(ctx, table, slug); raw != nil {
		if err := json.Unmarshal(raw, &resp); err == nil {
			return protocolToDomain(slug, &resp), nil
		}
	}

	reqURL := c.baseURL + "/protocol/" + url.PathEscape(slug)
	err := fetch.DoWithRetry(ctx, c.retry, func() error {
		resp = protocolResponse{}
		return fetch.GetJSON(ctx, c.client, reqURL, &resp)
	})
	if err != nil {
		if raw := c.staleCache(table, slug); raw != nil {
			if jerr := json.Unmarshal(raw, &resp); jerr == nil {
				c.log.Warn().Err(err).Str("slug", slug).Msg("API failed, using stale cached protocol")
				return protocolToDomain(slug, &resp), nil
			}
		}
		return nil, fmt.Errorf("failed to fetch protocol %s: %w", slug, err)
	}
	if resp.Name == "" {
		return nil, fmt.Errorf("protocol %s returned empty record", slug)
	}

	c.storeCache(table, slug, resp, clientdata.TTLProtocol)

	c.log.Debug().Str("slug", slug).Str("name", resp.Name).Msg("Fetched protocol")
	return protocolToDomain(slug, &resp), nil
}

// ProtocolListItem is one element of the /protocols list endpoint,
// used to build the search index.
type ProtocolListItem struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Symbol   string   `json:"symbol"`
	Logo     string   `json:"logo"`
	Category string   `json:"category"`
	TVL      *float64 `json:"tvl"`
	Change1d *float64 `json:"change_1d"`
	Change7d *float64 `json:"change_7d"`
}

// ListProtocols returns the full protocol list.
func (c *Client) ListProtocols(ctx context.Context) ([]ProtocolListItem, error) {
	const table, key = "defillama_protocol_list", "all"

	var items []ProtocolListItem

	if raw := c.freshCache(ctx, table, key); raw != nil {
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
	}

	reqURL := c.baseURL + "/protocols"
	err := fetch.DoWithRetry(ctx, c.retry, func() error {
		items = nil
		return fetch.GetJSON(ctx, c.client, reqURL, &items)
	})
	if err != nil {
		if raw := c.staleCache(table, key); raw != nil {
			if jerr := json.Unmarshal(raw, &items); jerr == nil {
				c.log.Warn().Err(err).Msg("API failed, using stale cached protocol list")
				return items, nil
			}
		}
		return nil, fmt.Errorf("failed to fetch protocol list: %w", err)
	}

	c.storeCache(table, key, items, clientdata.TTLProtocolList)

	c.log.Debug().Int("protocols", len(items)).Msg("Fetched protocol list")
	return items, nil
}

func chainsToDomain(entries []chainEntry) []domain.ChainRecord {
	records := make([]domain.ChainRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, domain.ChainRecord{
			Name:     e.Name,
			Symbol:   e.TokenSymbol,
			MarketID: e.GeckoID,
			TVL:      e.TVL,
		})
	}
	return records
}

func protocolToDomain(slug string, resp *protocolResponse) *domain.ProtocolRecord {
	rec := &domain.ProtocolRecord{
		Name:      resp.Name,
		Slug:      slug,
		Symbol:    resp.Symbol,
		Logo:      resp.Logo,
		Category:  resp.Category,
		URL:       resp.URL,
		ChainTVLs: resp.ChainTVLs,
		History:   resp.TVL,
	}

	// Current TVL is the newest history point
	if n := len(resp.TVL); n > 0 {
		rec.TVL = domain.Float(resp.TVL[n-1].TVL)
	}

	return rec
}

// freshCache returns unexpired cached data, or nil.
func (c *Client) freshCache(ctx context.Context, table, key string) json.RawMessage {
	if c.cacheRepo == nil || clientdata.SkipCache(ctx) {
		return nil
	}
	data, err := c.cacheRepo.GetIfFresh(table, key)
	if err != nil || data == nil {
		return nil
	}
	return data
}

// staleCache returns cached data even if expired, or nil.
func (c *Client) staleCache(table, key string) json.RawMessage {
	if c.cacheRepo == nil {
		return nil
	}
	data, err := c.cacheRepo.Get(table, key)
	if err != nil || data == nil {
		return nil
	}
	return data
}

// storeCache persists data best-effort; cache failures never block a request.
func (c *Client) storeCache(table, key string, data interface{}, ttl time.Duration) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store(table, key, data, ttl); err != nil {
		c.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to cache response")
	}
}
