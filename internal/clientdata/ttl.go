package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Volatile market data
	TTLMarketCoin = 30 * time.Minute // Prices, caps and volumes move constantly

	// Slower-moving chain/protocol data
	TTLChains       = time.Hour        // Chain list with current TVLs
	TTLProtocol     = 2 * time.Hour    // Protocol detail (TVL breakdown, history)
	TTLChainHistory = time.Hour        // Chain TVL time series
	TTLScrape       = 30 * time.Minute // Scraped page TVL (treated like market data)

	// List endpoints feeding the search index
	TTLCoinList     = 6 * time.Hour // Full coin id list
	TTLProtocolList = 6 * time.Hour // Full protocol list
	TTLSearchIndex  = 6 * time.Hour // Built index snapshot
)
