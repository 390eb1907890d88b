// Package coingecko provides the market-data API client.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/chainlens/internal/clientdata"
	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/fetch"
)

// Client for the CoinGecko API.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
	retry     fetch.Policy
}

// NewClient creates a new CoinGecko API client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.coingecko.com/api/v3",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "coingecko").Logger(),
		cacheRepo: cacheRepo,
		retry:     fetch.DefaultPolicy,
	}
}

// coinResponse is the wire shape of /coins/{id}.
type coinResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Large string `json:"large"`
	} `json:"image"`
	Categories    []string `json:"categories"`
	MarketCapRank *int     `json:"market_cap_rank"`
	MarketData    struct {
		CurrentPrice          map[string]float64 `json:"current_price"`
		MarketCap             map[string]float64 `json:"market_cap"`
		FullyDilutedValuation map[string]float64 `json:"fully_diluted_valuation"`
		TotalVolume           map[string]float64 `json:"total_volume"`
		CirculatingSupply     *float64           `json:"circulating_supply"`
		TotalSupply           *float64           `json:"total_supply"`
		MaxSupply             *float64           `json:"max_supply"`
		PriceChangePercent24h *float64           `json:"price_change_percentage_24h"`
		PriceChangePercent7d  *float64           `json:"price_change_percentage_7d"`
		PriceChangePercent30d *float64           `json:"price_change_percentage_30d"`
		PriceChangePercent1y  *float64           `json:"price_change_percentage_1y"`
	} `json:"market_data"`
}

// GetCoin returns the full market record for a coin id, including a
// best-effort 30-day price history.
func (c *Client) GetCoin(ctx context.Context, id string) (*domain.MarketRecord, error) {
	const table = "coingecko_coin"

	var resp coinResponse

	if raw := c.freshCache(ctx, table, id); raw != nil {
		if err := json.Unmarshal(raw, &resp); err == nil && resp.ID != "" {
			record := coinToDomain(&resp)
			c.attachHistory(ctx, record)
			return record, nil
		}
	}

	reqURL := fmt.Sprintf(
		"%s/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false",
		c.baseURL, url.PathEscape(id),
	)
	err := fetch.DoWithRetry(ctx, c.retry, func() error {
		resp = coinResponse{}
		return fetch.GetJSON(ctx, c.client, reqURL, &resp)
	})
	if err != nil {
		if raw := c.staleCache(table, id); raw != nil {
			if jerr := json.Unmarshal(raw, &resp); jerr == nil && resp.ID != "" {
				c.log.Warn().Err(err).Str("id", id).Msg("API failed, using stale cached coin")
				record := coinToDomain(&resp)
				c.attachHistory(ctx, record)
				return record, nil
			}
		}
		return nil, fmt.Errorf("failed to fetch coin %s: %w", id, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("coin %s returned empty record", id)
	}

	c.storeCache(table, id, resp, clientdata.TTLMarketCoin)

	record := coinToDomain(&resp)
	c.attachHistory(ctx, record)

	c.log.Debug().Str("id", id).Str("name", record.Name).Msg("Fetched coin")
	return record, nil
}

// attachHistory adds the 30-day price series. History failures never
// fail the coin fetch.
func (c *Client) attachHistory(ctx context.Context, record *domain.MarketRecord) {
	history, err := c.GetMarketChart(ctx, record.ID, 30)
	if err != nil {
		c.log.Warn().Err(err).Str("id", record.ID).Msg("Failed to fetch price history")
		return
	}
	record.PriceHistory = history
}

// marketChartResponse is the wire shape of /coins/{id}/market_chart.
// Prices come as [timestamp_ms, price] pairs.
type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// GetMarketChart returns the price series for a coin over the given
// number of days. Timestamps are converted to Unix seconds.
func (c *Client) GetMarketChart(ctx context.Context, id string, days int) ([]domain.PricePoint, error) {
	const table = "coingecko_coin"
	key := fmt.Sprintf("%s:chart%d", id, days)

	var points []domain.PricePoint

	if raw := c.freshCache(ctx, table, key); raw != nil {
		if err := json.Unmarshal(raw, &points); err == nil {
			return points, nil
		}
	}

	reqURL := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d",
		c.baseURL, url.PathEscape(id), days)

	var resp marketChartResponse
	err := fetch.DoWithRetry(ctx, c.retry, func() error {
		resp = marketChartResponse{}
		return fetch.GetJSON(ctx, c.client, reqURL, &resp)
	})
	if err != nil {
		if raw := c.staleCache(table, key); raw != nil {
			if jerr := json.Unmarshal(raw, &points); jerr == nil {
				c.log.Warn().Err(err).Str("id", id).Msg("API failed, using stale cached price history")
				return points, nil
			}
		}
		return nil, fmt.Errorf("failed to fetch market chart for %s: %w", id, err)
	}

	points = make([]domain.PricePoint, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		points = append(points, domain.PricePoint{
			Timestamp: int64(p[0] / 1000),
			Price:     p[1],
		})
	}

	c.storeCache(table, key, points, clientdata.TTLMarketCoin)

	return points, nil
}

// searchResponse is the wire shape of /search.
type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Symbol        string `json:"symbol"`
		MarketCapRank *int   `json:"market_cap_rank"`
		Large         string `json:"large"`
	} `json:"coins"`
}

// ResolveID resolves a free-form query to the best-matching coin id.
// Returns an empty string when the provider has no candidates.
func (c *Client) ResolveID(ctx context.Context, query string) (string, error) {
	reqURL := c.baseURL + "/search?query=" + url.QueryEscape(query)

	var resp searchResponse
	err := fetch.DoWithRetry(ctx, c.retry, func() error {
		resp = searchResponse{}
		return fetch.GetJSON(ctx, c.client, reqURL, &resp)
	})
	if err != nil {
		return "", fmt.Errorf("failed to search for %q: %w", query, err)
	}

	if len(resp.Coins) == 0 {
		return "", nil
	}

	return resp.Coins[0].ID, nil
}

// MarketListItem is one element of the /coins/markets list endpoint,
// used to build the search index.
type MarketListItem struct {
	ID            string   `json:"id"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Image         string   `json:"image"`
	MarketCap     *float64 `json:"market_cap"`
	MarketCapRank *int     `json:"market_cap_rank"`
}

// ListMarkets returns the top coins by market cap, one page of up to 250.
func (c *Client) ListMarkets(ctx context.Context, page int) ([]MarketListItem, error) {
	const table = "coingecko_list"
	key := fmt.Sprintf("markets:page%d", page)

	var items []MarketListItem

	if raw := c.freshCache(ctx, table, key); raw != nil {
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
	}

	reqURL := fmt.Sprintf(
		"%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=250&page=%d",
		c.baseURL, page,
	)
	err := fetch.DoWithRetry(ctx, c.retry, func() error {
		items = nil
		return fetch.GetJSON(ctx, c.client, reqURL, &items)
	})
	if err != nil {
		if raw := c.staleCache(table, key); raw != nil {
			if jerr := json.Unmarshal(raw, &items); jerr == nil {
				c.log.Warn().Err(err).Msg("API failed, using stale cached market list")
				return items, nil
			}
		}
		return nil, fmt.Errorf("failed to fetch market list page %d: %w", page, err)
	}

	c.storeCache(table, key, items, clientdata.TTLCoinList)

	c.log.Debug().Int("page", page).Int("coins", len(items)).Msg("Fetched market list")
	return items, nil
}

func coinToDomain(resp *coinResponse) *domain.MarketRecord {
	record := &domain.MarketRecord{
		ID:                resp.ID,
		Name:              resp.Name,
		Symbol:            resp.Symbol,
		Logo:              resp.Image.Large,
		Categories:        resp.Categories,
		MarketCapRank:     resp.MarketCapRank,
		CirculatingSupply: resp.MarketData.CirculatingSupply,
		TotalSupply:       resp.MarketData.TotalSupply,
		MaxSupply:         resp.MarketData.MaxSupply,
		PriceChange1d:     resp.MarketData.PriceChangePercent24h,
		PriceChange7d:     resp.MarketData.PriceChangePercent7d,
		PriceChange30d:    resp.MarketData.PriceChangePercent30d,
		PriceChange1y:     resp.MarketData.PriceChangePercent1y,
	}

	if v, ok := resp.MarketData.CurrentPrice["usd"]; ok {
		record.PriceUSD = domain.Float(v)
	}
	if v, ok := resp.MarketData.MarketCap["usd"]; ok && v > 0 {
		record.MarketCap = domain.Float(v)
	}
	if v, ok := resp.MarketData.FullyDilutedValuation["usd"]; ok && v > 0 {
		record.FDV = domain.Float(v)
	}
	if v, ok := resp.MarketData.TotalVolume["usd"]; ok {
		record.Volume24h = domain.Float(v)
	}

	return record
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
