// Package domain contains the core data structures shared across chainlens.
// The domain layer is pure: no infrastructure dependencies.
package domain

import "time"

// EntityType categorizes what kind of crypto asset a query refers to.
// It determines which provider fallback chain the aggregator uses.
type EntityType string

const (
	// EntityChain is a base blockchain network (L1/L2/side/app-chain)
	EntityChain EntityType = "chain"
	// EntityProtocol is an application (DEX, lending market, etc.) deployed on one or more chains
	EntityProtocol EntityType = "protocol"
	// EntityToken is a plain tradeable asset with no chain/protocol identity of its own
	EntityToken EntityType = "token"
	// EntityExchange is a centralized trading venue
	EntityExchange EntityType = "exchange"
)

// Confidence expresses how strongly a classification signal fired.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// TVLPoint is one point of a TVL time series. Timestamp is Unix seconds.
type TVLPoint struct {
	Timestamp int64   `json:"date"`
	TVL       float64 `json:"totalLiquidityUSD"`
}

// PricePoint is one point of a price time series. Timestamp is Unix seconds.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// ChainRecord is the raw shape returned by the chain TVL provider.
type ChainRecord struct {
	Name     string     `json:"name"`
	Symbol   string     `json:"tokenSymbol"`
	MarketID string     `json:"gecko_id"` // canonical market-data id, when the provider knows it
	TVL      *float64   `json:"tvl"`
	History  []TVLPoint `json:"history,omitempty"`
}

// ProtocolRecord is the raw shape returned by the protocol TVL provider.
type ProtocolRecord struct {
	Name      string             `json:"name"`
	Slug      string             `json:"slug"`
	Symbol    string             `json:"symbol"`
	Logo      string             `json:"logo"`
	Category  string             `json:"category"`
	URL       string             `json:"url"`
	TVL       *float64           `json:"tvl"`
	ChainTVLs map[string]float64 `json:"currentChainTvls"`
	Change1d  *float64           `json:"change_1d"`
	Change7d  *float64           `json:"change_7d"`
	Change30d *float64           `json:"change_1m"`
	History   []TVLPoint         `json:"history,omitempty"`
}

// MarketRecord is the raw shape returned by the market-data provider.
type MarketRecord struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	Logo              string   `json:"logo"`
	Categories        []string `json:"categories"`
	PriceUSD          *float64 `json:"price_usd"`
	MarketCap         *float64 `json:"market_cap"`
	FDV               *float64 `json:"fdv"`
	Volume24h         *float64 `json:"volume_24h"`
	CirculatingSupply *float64 `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
	MaxSupply         *float64 `json:"max_supply"`
	MarketCapRank     *int     `json:"market_cap_rank"`
	PriceChange1d     *float64 `json:"price_change_24h"`
	PriceChange7d     *float64 `json:"price_change_7d"`
	PriceChange30d    *float64 `json:"price_change_30d"`
	PriceChange1y     *float64 `json:"price_change_1y"`
	PriceHistory      []PricePoint
}

// ChangeSet holds percentage changes per lookback window.
// A nil entry means the window could not be computed.
type ChangeSet struct {
	Day   *float64 `json:"1d"`
	Week  *float64 `json:"7d"`
	Month *float64 `json:"30d"`
	Year  *float64 `json:"365d"`
}

// AggregatedRecord is the merged output of one aggregation request.
// Built once, immutable after construction, never persisted.
// Every numeric field is either a finite value or nil, never NaN.
type AggregatedRecord struct {
	Query    string     `json:"query"`
	Type     EntityType `json:"type"`
	Name     string     `json:"name"`
	Symbol   string     `json:"symbol"`
	Logo     string     `json:"logo,omitempty"`
	Category string     `json:"category,omitempty"`

	PriceUSD  *float64 `json:"price_usd"`
	MarketCap *float64 `json:"market_cap"`
	FDV       *float64 `json:"fdv"`
	Volume24h *float64 `json:"volume_24h"`

	CirculatingSupply *float64 `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
	MaxSupply         *float64 `json:"max_supply"`

	TVL         *float64           `json:"tvl"`
	TVLChange   ChangeSet          `json:"tvl_change"`
	PriceChange ChangeSet          `json:"price_change"`
	ChainTVLs   map[string]float64 `json:"chain_tvls,omitempty"`

	PriceHistory []PricePoint `json:"price_history,omitempty"`

	// Sources records which provider supplied each top-level field,
	// for traceability and UI attribution.
	Sources map[string]string `json:"sources"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Quality grades how trustworthy a merged record looks.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

// ValidationResult reports internal-consistency checks on a merged record.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Quality  Quality  `json:"quality"`
}

// RiskAssessment lists independently evaluated risk signals.
type RiskAssessment struct {
	Flags     []string `json:"flags"`
	Warnings  []string `json:"warnings"`
	Positives []string `json:"positives"`
}

// RiskScore is the deterministic 0-100 score derived from a RiskAssessment.
type RiskScore struct {
	Score          int    `json:"score"`
	Classification string `json:"classification"`
	Recommendation string `json:"recommendation"`
}

// SearchItem is one entry of the autocomplete search index.
type SearchItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Symbol        string     `json:"symbol"`
	Type          EntityType `json:"type"`
	Source        string     `json:"source"`
	Aliases       []string   `json:"aliases,omitempty"`
	Logo          string     `json:"logo,omitempty"`
	TVL           *float64   `json:"tvl,omitempty"`
	MarketCap     *float64   `json:"market_cap,omitempty"`
	MarketCapRank *int       `json:"market_cap_rank,omitempty"`
}

// Float returns a pointer to v. Convenience for building records with optional fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
