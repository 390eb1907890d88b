package registry

import "github.com/aristath/chainlens/internal/domain"

// chainMappings is the built-in chain registry. Names and symbols are
// matched exactly against the normalized query.
var chainMappings = []ChainMapping{
	{
		Names:        []string{"bitcoin", "btc network"},
		Symbols:      []string{"btc", "xbt"},
		ChainAPIName: "Bitcoin",
		MarketAPIID:  "bitcoin",
		Symbol:       "BTC",
		DisplayName:  "Bitcoin",
		Category:     "L1",
	},
	{
		Names:        []string{"ethereum", "ether"},
		Symbols:      []string{"eth"},
		ChainAPIName: "Ethereum",
		MarketAPIID:  "ethereum",
		Symbol:       "ETH",
		DisplayName:  "Ethereum",
		Category:     "L1",
	},
	{
		Names:        []string{"solana"},
		Symbols:      []string{"sol"},
		ChainAPIName: "Solana",
		MarketAPIID:  "solana",
		Symbol:       "SOL",
		DisplayName:  "Solana",
		Category:     "L1",
	},
	{
		Names:        []string{"bnb chain", "binance smart chain", "bsc", "binance chain"},
		Symbols:      []string{"bnb"},
		ChainAPIName: "BSC",
		MarketAPIID:  "binancecoin",
		Symbol:       "BNB",
		DisplayName:  "BNB Chain",
		Category:     "L1",
	},
	{
		Names:        []string{"tron"},
		Symbols:      []string{"trx"},
		ChainAPIName: "Tron",
		MarketAPIID:  "tron",
		Symbol:       "TRX",
		DisplayName:  "Tron",
		Category:     "L1",
	},
	{
		Names:        []string{"avalanche", "avalanche c-chain"},
		Symbols:      []string{"avax"},
		ChainAPIName: "Avalanche",
		MarketAPIID:  "avalanche-2",
		Symbol:       "AVAX",
		DisplayName:  "Avalanche",
		Category:     "L1",
	},
	{
		Names:        []string{"cardano"},
		Symbols:      []string{"ada"},
		ChainAPIName: "Cardano",
		MarketAPIID:  "cardano",
		Symbol:       "ADA",
		DisplayName:  "Cardano",
		Category:     "L1",
	},
	{
		Names:        []string{"polygon", "polygon pos", "matic network"},
		Symbols:      []string{"matic", "pol"},
		ChainAPIName: "Polygon",
		MarketAPIID:  "matic-network",
		Symbol:       "POL",
		DisplayName:  "Polygon",
		Category:     "sidechain",
	},
	{
		Names:        []string{"arbitrum", "arbitrum one"},
		Symbols:      []string{"arb"},
		ChainAPIName: "Arbitrum",
		MarketAPIID:  "arbitrum",
		Symbol:       "ARB",
		DisplayName:  "Arbitrum",
		Category:     "L2",
	},
	{
		Names:        []string{"optimism", "op mainnet"},
		Symbols:      []string{"op"},
		ChainAPIName: "Optimism",
		MarketAPIID:  "optimism",
		Symbol:       "OP",
		DisplayName:  "Optimism",
		Category:     "L2",
	},
	{
		Names:        []string{"base"},
		Symbols:      []string{},
		ChainAPIName: "Base",
		MarketAPIID:  "",
		Symbol:       "",
		DisplayName:  "Base",
		Category:     "L2",
	},
	{
		Names:        []string{"sui network", "sui"},
		Symbols:      []string{},
		ChainAPIName: "Sui",
		MarketAPIID:  "sui",
		Symbol:       "SUI",
		DisplayName:  "Sui",
		Category:     "L1",
	},
	{
		Names:        []string{"aptos"},
		Symbols:      []string{"apt"},
		ChainAPIName: "Aptos",
		MarketAPIID:  "aptos",
		Symbol:       "APT",
		DisplayName:  "Aptos",
		Category:     "L1",
	},
	{
		Names:        []string{"near protocol", "near"},
		Symbols:      []string{},
		ChainAPIName: "Near",
		MarketAPIID:  "near",
		Symbol:       "NEAR",
		DisplayName:  "NEAR Protocol",
		Category:     "L1",
	},
	{
		Names:        []string{"polkadot"},
		Symbols:      []string{"dot"},
		ChainAPIName: "Polkadot",
		MarketAPIID:  "polkadot",
		Symbol:       "DOT",
		DisplayName:  "Polkadot",
		Category:     "L1",
	},
	{
		Names:        []string{"cosmos", "cosmos hub"},
		Symbols:      []string{"atom"},
		ChainAPIName: "CosmosHub",
		MarketAPIID:  "cosmos",
		Symbol:       "ATOM",
		DisplayName:  "Cosmos Hub",
		Category:     "appchain",
	},
	{
		Names:        []string{"the open network", "ton"},
		Symbols:      []string{"toncoin"},
		ChainAPIName: "TON",
		MarketAPIID:  "the-open-network",
		Symbol:       "TON",
		DisplayName:  "The Open Network",
		Category:     "L1",
	},
	{
		Names:        []string{"hyperliquid"},
		Symbols:      []string{"hype"},
		ChainAPIName: "Hyperliquid L1",
		MarketAPIID:  "hyperliquid",
		Symbol:       "HYPE",
		DisplayName:  "Hyperliquid",
		Category:     "L1",
	},
	{
		Names:        []string{"sei network", "sei"},
		Symbols:      []string{},
		ChainAPIName: "Sei",
		MarketAPIID:  "sei-network",
		Symbol:       "SEI",
		DisplayName:  "Sei",
		Category:     "L1",
	},
	{
		Names:        []string{"linea"},
		Symbols:      []string{},
		ChainAPIName: "Linea",
		MarketAPIID:  "linea",
		Symbol:       "LINEA",
		DisplayName:  "Linea",
		Category:     "L2",
	},
}

// aliasEntries is the curated alias table for well-known protocols and
// tokens whose canonical ids are not derivable from their names.
var aliasEntries = []AliasEntry{
	{
		Queries:     []string{"aave", "aave protocol"},
		ChainSlug:   "aave",
		MarketID:    "aave",
		Symbol:      "AAVE",
		DisplayName: "Aave",
		Category:    "Lending",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"uniswap", "uni"},
		ChainSlug:   "uniswap",
		MarketID:    "uniswap",
		Symbol:      "UNI",
		DisplayName: "Uniswap",
		Category:    "DEX",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"lido", "lido finance", "steth"},
		ChainSlug:   "lido",
		MarketID:    "lido-dao",
		Symbol:      "LDO",
		DisplayName: "Lido",
		Category:    "Liquid Staking",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"curve", "curve finance", "crv"},
		ChainSlug:   "curve-dex",
		MarketID:    "curve-dao-token",
		Symbol:      "CRV",
		DisplayName: "Curve Finance",
		Category:    "DEX",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"makerdao", "maker", "sky protocol", "sky"},
		ChainSlug:   "sky-lending",
		MarketID:    "sky",
		Symbol:      "SKY",
		DisplayName: "Sky (MakerDAO)",
		Category:    "CDP",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"pendle"},
		ChainSlug:   "pendle",
		MarketID:    "pendle",
		Symbol:      "PENDLE",
		DisplayName: "Pendle",
		Category:    "Yield",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"gmx"},
		ChainSlug:   "gmx-v2-perps",
		MarketID:    "gmx",
		Symbol:      "GMX",
		DisplayName: "GMX",
		Category:    "Derivatives",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"jupiter", "jup"},
		ChainSlug:   "jupiter-aggregator",
		MarketID:    "jupiter-exchange-solana",
		Symbol:      "JUP",
		DisplayName: "Jupiter",
		Category:    "DEX Aggregator",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"raydium", "ray"},
		ChainSlug:   "raydium-amm",
		MarketID:    "raydium",
		Symbol:      "RAY",
		DisplayName: "Raydium",
		Category:    "DEX",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"compound", "comp"},
		ChainSlug:   "compound-v3",
		MarketID:    "compound-governance-token",
		Symbol:      "COMP",
		DisplayName: "Compound",
		Category:    "Lending",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"ethena", "usde"},
		ChainSlug:   "ethena-usde",
		MarketID:    "ethena",
		Symbol:      "ENA",
		DisplayName: "Ethena",
		Category:    "Yield",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"eigenlayer", "eigen"},
		ChainSlug:   "eigenlayer",
		MarketID:    "eigenlayer",
		Symbol:      "EIGEN",
		DisplayName: "EigenLayer",
		Category:    "Restaking",
		Type:        domain.EntityProtocol,
	},
	{
		Queries:     []string{"chainlink", "link"},
		ChainSlug:   "",
		MarketID:    "chainlink",
		Symbol:      "LINK",
		DisplayName: "Chainlink",
		Category:    "Oracle",
		Type:        domain.EntityToken,
	},
	{
		Queries:     []string{"tether", "usdt"},
		ChainSlug:   "",
		MarketID:    "tether",
		Symbol:      "USDT",
		DisplayName: "Tether",
		Category:    "Stablecoin",
		Type:        domain.EntityToken,
	},
	{
		Queries:     []string{"usd coin", "usdc"},
		ChainSlug:   "",
		MarketID:    "usd-coin",
		Symbol:      "USDC",
		DisplayName: "USDC",
		Category:    "Stablecoin",
		Type:        domain.EntityToken,
	},
	{
		Queries:     []string{"dogecoin", "doge"},
		ChainSlug:   "",
		MarketID:    "dogecoin",
		Symbol:      "DOGE",
		DisplayName: "Dogecoin",
		Category:    "Meme",
		Type:        domain.EntityToken,
	},
	{
		Queries:     []string{"binance", "binance exchange"},
		ChainSlug:   "",
		MarketID:    "binancecoin",
		Symbol:      "BNB",
		DisplayName: "Binance",
		Category:    "CEX",
		Type:        domain.EntityExchange,
	},
}
