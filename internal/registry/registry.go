// Package registry holds the static tables that map human queries to
// canonical provider identifiers: the chain registry and the curated
// alias table. Both are immutable after Load.
package registry

import (
	"github.com/rs/zerolog"

	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/utils"
)

// ChainMapping ties the spellings of a chain to its canonical provider ids.
type ChainMapping struct {
	Names        []string // accepted names, lowercase
	Symbols      []string // accepted ticker symbols, lowercase
	ChainAPIName string   // chain TVL provider name (e.g. "Ethereum")
	MarketAPIID  string   // market-data provider id (e.g. "ethereum")
	Symbol       string   // display ticker
	DisplayName  string
	Category     string // L1, L2, sidechain, appchain
}

// AliasEntry maps curated query spellings to a known entity.
// At most one entry should match a given normalized query exactly;
// overlaps are a data-quality bug caught at load time.
type AliasEntry struct {
	Queries     []string // accepted spellings, lowercase
	ChainSlug   string   // protocol TVL provider slug (protocols) or chain name (chains)
	MarketID    string   // market-data provider id
	Symbol      string
	DisplayName string
	Category    string
	Type        domain.EntityType
}

// Registry provides exact-term lookup over the static tables.
type Registry struct {
	chains  []ChainMapping
	aliases []AliasEntry

	chainByTerm map[string]*ChainMapping
	aliasByTerm map[string]*AliasEntry

	log zerolog.Logger
}

// Load builds the lookup indexes from the built-in tables.
// Duplicate terms are logged as warnings; first entry wins.
func Load(log zerolog.Logger) *Registry {
	r := &Registry{
		chains:      chainMappings,
		aliases:     aliasEntries,
		chainByTerm: make(map[string]*ChainMapping),
		aliasByTerm: make(map[string]*AliasEntry),
		log:         log.With().Str("component", "registry").Logger(),
	}

	for i := range r.chains {
		c := &r.chains[i]
		for _, term := range append(append([]string{}, c.Names...), c.Symbols...) {
			norm := utils.NormalizeQuery(term)
			if existing, ok := r.chainByTerm[norm]; ok {
				r.log.Warn().
					Str("term", norm).
					Str("existing", existing.DisplayName).
					Str("duplicate", c.DisplayName).
					Msg("Duplicate chain registry term")
				continue
			}
			r.chainByTerm[norm] = c
		}
	}

	for i := range r.aliases {
		a := &r.aliases[i]
		for _, term := range a.Queries {
			norm := utils.NormalizeQuery(term)
			if existing, ok := r.aliasByTerm[norm]; ok {
				r.log.Warn().
					Str("term", norm).
					Str("existing", existing.DisplayName).
					Str("duplicate", a.DisplayName).
					Msg("Duplicate alias term")
				continue
			}
			r.aliasByTerm[norm] = a
		}
	}

	r.log.Debug().
		Int("chains", len(r.chains)).
		Int("aliases", len(r.aliases)).
		Msg("Registry loaded")

	return r
}

// LookupChain returns the chain mapping matching the query exactly by
// name or symbol.
func (r *Registry) LookupChain(query string) (*ChainMapping, bool) {
	c, ok := r.chainByTerm[utils.NormalizeQuery(query)]
	return c, ok
}

// LookupAlias returns the alias entry matching the query exactly.
func (r *Registry) LookupAlias(query string) (*AliasEntry, bool) {
	a, ok := r.aliasByTerm[utils.NormalizeQuery(query)]
	return a, ok
}

// Chains returns all chain mappings.
func (r *Registry) Chains() []ChainMapping {
	return r.chains
}

// Aliases returns all alias entries.
func (r *Registry) Aliases() []AliasEntry {
	return r.aliases
}

// CuratedSearchItems converts both tables into search-index entries.
func (r *Registry) CuratedSearchItems() []domain.SearchItem {
	items := make([]domain.SearchItem, 0, len(r.chains)+len(r.aliases))

	for _, c := range r.chains {
		items = append(items, domain.SearchItem{
			ID:      c.MarketAPIID,
			Name:    c.DisplayName,
			Symbol:  c.Symbol,
			Type:    domain.EntityChain,
			Source:  "registry",
			Aliases: c.Names,
		})
	}

	for _, a := range r.aliases {
		items = append(items, domain.SearchItem{
			ID:      a.MarketID,
			Name:    a.DisplayName,
			Symbol:  a.Symbol,
			Type:    a.Type,
			Source:  "registry",
			Aliases: a.Queries,
		})
	}

	return items
}
