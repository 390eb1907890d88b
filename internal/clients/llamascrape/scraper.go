// Package llamascrape is the scrape fallback for TVL data: it reads the
// provider's public HTML pages when the structured API has no data or
// returns stale figures for major chains.
package llamascrape

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/chainlens/internal/clientdata"
	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/fetch"
	"github.com/aristath/chainlens/internal/utils"
)

// Client scrapes TVL figures from entity pages.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new scrape client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://defillama.com",
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log.With().Str("client", "llamascrape").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Result is a scraped TVL figure and the page it came from.
type Result struct {
	TVL float64 `json:"tvl"`
	URL string  `json:"url"`
}

// nextDataRe matches the embedded JSON payload in the page's script tag.
var nextDataRe = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__" type="application/json"[^>]*>(.*?)</script>`)

// tvlFieldRe matches raw tvl fields when the structured payload can't be decoded.
var tvlFieldRe = regexp.MustCompile(`"tvl"\s*:\s*([0-9]+(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?)`)

// tvlTextRe matches human-formatted TVL text, e.g. "Total Value Locked $62.4b".
var tvlTextRe = regexp.MustCompile(`(?i)total value locked[^$]{0,60}\$([0-9][0-9,.]*)\s*([bmk]?)`)

// FetchTVL probes plausible URL-slug spellings of the query until one
// page yields a usable TVL figure.
func (c *Client) FetchTVL(ctx context.Context, entityType domain.EntityType, query string) (*Result, error) {
	pathPrefix := "/protocol/"
	if entityType == domain.EntityChain {
		pathPrefix = "/chain/"
	}

	cacheKey := string(entityType) + ":" + utils.Slugify(query)
	if res := c.freshCache(ctx, cacheKey); res != nil {
		return res, nil
	}

	var lastErr error
	for _, slug := range utils.SlugVariants(query) {
		pageURL := c.baseURL + pathPrefix + slug

		body, err := fetch.Get(ctx, c.client, pageURL)
		if err != nil {
			lastErr = err
			continue
		}

		tvl, ok := extractTVL(string(body))
		if !ok {
			lastErr = fmt.Errorf("no TVL found on %s", pageURL)
			continue
		}

		result := &Result{TVL: tvl, URL: pageURL}
		c.storeCache(cacheKey, result)

		c.log.Debug().
			Str("url", pageURL).
			Float64("tvl", tvl).
			Msg("Scraped TVL")
		return result, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no slug variants for query %q", query)
	}
	return nil, fmt.Errorf("scrape failed for %q: %w", query, lastErr)
}

// extractTVL pulls a TVL figure out of the page HTML. Three layers:
// structured JSON payload, raw tvl fields, human-formatted TVL text.
func extractTVL(html string) (float64, bool) {
	if m := nextDataRe.FindStringSubmatch(html); m != nil {
		var payload interface{}
		if err := json.Unmarshal([]byte(m[1]), &payload); err == nil {
			// The entity page's headline TVL is the largest tvl figure in
			// the payload; smaller ones belong to sub-pools and rows.
			if tvl := maxTVLValue(payload); tvl > 0 {
				return tvl, true
			}
		}
	}

	if ms := tvlFieldRe.FindAllStringSubmatch(html, -1); ms != nil {
		best := 0.0
		for _, m := range ms {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > best {
				best = v
			}
		}
		if best > 0 {
			return best, true
		}
	}

	if m := tvlTextRe.FindStringSubmatch(html); m != nil {
		if v, ok := parseAbbreviated(m[1], m[2]); ok {
			return v, true
		}
	}

	return 0, false
}

// maxTVLValue walks a decoded JSON payload and returns the largest
// finite value found under a "tvl" key.
func maxTVLValue(node interface{}) float64 {
	best := 0.0

	switch v := node.(type) {
	case map[string]interface{}:
		for key, child := range v {
			if key == "tvl" {
				if f, ok := child.(float64); ok && !math.IsNaN(f) && !math.IsInf(f, 0) && f > best {
					best = f
					continue
				}
			}
			if sub := maxTVLValue(child); sub > best {
				best = sub
			}
		}
	case []interface{}:
		for _, child := range v {
			if sub := maxTVLValue(child); sub > best {
				best = sub
			}
		}
	}

	return best
}

// parseAbbreviated converts "62.4" + "b" into 62,400,000,000.
func parseAbbreviated(number, suffix string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
	if err != nil {
		return 0, false
	}

	switch strings.ToLower(suffix) {
	case "b":
		v *= 1e9
	case "m":
		v *= 1e6
	case "k":
		v *= 1e3
	}

	return v, true
}

func (c *Client) freshCache(ctx context.Context, key string) *Result {
	if c.cacheRepo == nil || clientdata.SkipCache(ctx) {
		return nil
	}
	data, err := c.cacheRepo.GetIfFresh("scrape_tvl", key)
	if err != nil || data == nil {
		return nil
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil
	}
	return &res
}

func (c *Client) storeCache(key string, res *Result) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Store("scrape_tvl", key, res, clientdata.TTLScrape); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to cache scrape result")
	}
}
