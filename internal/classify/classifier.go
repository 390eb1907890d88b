// Package classify decides what kind of entity a query refers to.
// Classification is a pure function over the query, optional data hints
// from earlier provider calls, and the static registry tables.
package classify

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/registry"
	"github.com/aristath/chainlens/internal/utils"
)

// Classification is the result of one classify call.
type Classification struct {
	Type       domain.EntityType
	Confidence domain.Confidence
	Reason     string
}

// DataHints carries signals from a provider record that already exists
// when re-classifying mid-aggregation.
type DataHints struct {
	Name      string
	Category  string
	HasTVL    bool
	ChainTVLs map[string]float64
	PriorType domain.EntityType
}

// chainSuffixes are name endings that suggest a base chain.
var chainSuffixes = []string{" chain", " network", " rollup", "chain", "-l1", "-l2"}

// chainPrefixes are name beginnings that suggest a base chain.
var chainPrefixes = []string{"l1 ", "l2 "}

// dexSuffixes are name endings that suggest a trading venue. These are
// weaker than chain patterns and only fire when nothing else matched.
var dexSuffixes = []string{"swap", " dex", "-dex"}

// protocolCategories are provider category strings that identify a protocol.
var protocolCategories = map[string]bool{
	"dex":            true,
	"dexes":          true,
	"lending":        true,
	"yield":          true,
	"bridge":         true,
	"derivatives":    true,
	"cdp":            true,
	"liquid staking": true,
	"restaking":      true,
	"dex aggregator": true,
	"launchpad":      true,
	"yield aggregator": true,
}

// Classifier decides entity types from the registry tables plus heuristics.
type Classifier struct {
	registry *registry.Registry
	log      zerolog.Logger
}

// New creates a classifier backed by the given registry.
func New(reg *registry.Registry, log zerolog.Logger) *Classifier {
	return &Classifier{
		registry: reg,
		log:      log.With().Str("component", "classifier").Logger(),
	}
}

// Classify runs the priority ladder; the first matching step wins.
func (c *Classifier) Classify(query string, hints *DataHints) Classification {
	norm := utils.NormalizeQuery(query)

	// 1. Chain registry exact match
	if _, ok := c.registry.LookupChain(norm); ok {
		return Classification{domain.EntityChain, domain.ConfidenceHigh, "chain registry match"}
	}

	// 2. Alias table exact, then substring, match
	if alias, ok := c.registry.LookupAlias(norm); ok {
		return Classification{alias.Type, domain.ConfidenceHigh, "alias match"}
	}
	if alias, ok := c.lookupAliasSubstring(norm); ok {
		return Classification{alias.Type, domain.ConfidenceHigh, "alias substring match"}
	}

	// 3. Name-pattern heuristics
	for _, suffix := range chainSuffixes {
		if strings.HasSuffix(norm, suffix) && norm != suffix {
			return Classification{domain.EntityChain, domain.ConfidenceMedium, "chain-style name"}
		}
	}
	for _, prefix := range chainPrefixes {
		if strings.HasPrefix(norm, prefix) {
			return Classification{domain.EntityChain, domain.ConfidenceMedium, "chain-style name"}
		}
	}

	// 4. Data-shape heuristics, when a provider record already exists
	if hints != nil {
		if cls, ok := classifyFromHints(norm, hints); ok {
			return cls
		}
	}

	// Weak dex-style naming, only when no stronger signal fired
	for _, suffix := range dexSuffixes {
		if strings.HasSuffix(norm, suffix) && norm != suffix {
			return Classification{domain.EntityProtocol, domain.ConfidenceMedium, "dex-style name"}
		}
	}

	// 5. Caller-supplied prior type, else default to token
	if hints != nil && hints.PriorType != "" {
		return Classification{hints.PriorType, domain.ConfidenceLow, "caller hint"}
	}
	return Classification{domain.EntityToken, domain.ConfidenceLow, "default"}
}

// classifyFromHints applies the data-shape rules from a fetched record.
func classifyFromHints(norm string, hints *DataHints) (Classification, bool) {
	if len(hints.ChainTVLs) > 1 {
		return Classification{domain.EntityProtocol, domain.ConfidenceHigh, "TVL across multiple chains"}, true
	}
	if len(hints.ChainTVLs) == 1 {
		for chainName := range hints.ChainTVLs {
			if strings.EqualFold(chainName, hints.Name) || utils.NormalizeQuery(chainName) == norm {
				return Classification{domain.EntityChain, domain.ConfidenceHigh, "TVL on own chain only"}, true
			}
		}
	}
	if hints.HasTVL && len(hints.ChainTVLs) == 0 {
		return Classification{domain.EntityChain, domain.ConfidenceMedium, "TVL with no chain breakdown"}, true
	}

	category := strings.ToLower(strings.TrimSpace(hints.Category))
	if category == "chain" {
		return Classification{domain.EntityChain, domain.ConfidenceHigh, "provider category is chain"}, true
	}
	if protocolCategories[category] {
		return Classification{domain.EntityProtocol, domain.ConfidenceHigh, "protocol category"}, true
	}

	return Classification{}, false
}

// lookupAliasSubstring matches a query that contains a known alias term.
// Short terms are skipped to avoid matching on tickers inside words.
func (c *Classifier) lookupAliasSubstring(norm string) (*registry.AliasEntry, bool) {
	for i := range c.registry.Aliases() {
		alias := &c.registry.Aliases()[i]
		for _, term := range alias.Queries {
			if len(term) <= 3 {
				continue
			}
			if strings.Contains(norm, term) {
				return alias, true
			}
		}
	}
	return nil, false
}

// Reclassify returns a corrected type given fresh data, or the current
// type unchanged. A correction happens only when the fresh signal is
// high-confidence and differs, or a medium-confidence chain/protocol
// signal overrides a weakly held token type.
func (c *Classifier) Reclassify(current domain.EntityType, query string, hints *DataHints) (domain.EntityType, bool) {
	fresh := c.Classify(query, hints)

	if fresh.Confidence == domain.ConfidenceHigh && fresh.Type != current {
		c.log.Debug().
			Str("query", query).
			Str("from", string(current)).
			Str("to", string(fresh.Type)).
			Str("reason", fresh.Reason).
			Msg("Reclassified entity")
		return fresh.Type, true
	}

	if fresh.Confidence == domain.ConfidenceMedium &&
		current == domain.EntityToken &&
		(fresh.Type == domain.EntityChain || fresh.Type == domain.EntityProtocol) {
		c.log.Debug().
			Str("query", query).
			Str("from", string(current)).
			Str("to", string(fresh.Type)).
			Str("reason", fresh.Reason).
			Msg("Reclassified entity")
		return fresh.Type, true
	}

	return current, false
}
