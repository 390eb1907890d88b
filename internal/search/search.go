package search

import (
	"context"
	"sort"

	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/fuzzy"
)

// DefaultLimit caps result counts when the caller does not say.
const DefaultLimit = 15

// matchThreshold drops weak fuzzy candidates before ranking.
const matchThreshold = 40.0

// Result is one ranked match.
type Result struct {
	domain.SearchItem
	Score float64 `json:"score"`
}

// Search matches the query against the current index and returns up to
// limit results ranked by match score plus prominence boosts. The first
// call after a cold start triggers a synchronous rebuild.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	idx := s.current()
	if idx == nil {
		if err := s.Rebuild(ctx); err != nil {
			return nil, err
		}
		idx = s.idx.Load()
	}

	results := make([]Result, 0, limit)
	for _, item := range idx.Items {
		fields := append([]string{item.Name, item.Symbol, item.ID}, item.Aliases...)
		score := fuzzy.ScoreFields(query, fields...)
		if score < matchThreshold {
			continue
		}
		results = append(results, Result{
			SearchItem: item,
			Score:      score + boost(item),
		})
	}

	// Name as a tie-breaker keeps the ordering deterministic.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Name < results[j].Name
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// boost rewards prominent assets so a partial match on a major chain
// outranks an exact match on a ghost-town protocol's alias.
func boost(item domain.SearchItem) float64 {
	b := 0.0
	if item.Type == domain.EntityChain {
		b += 10
	}
	if item.TVL != nil {
		switch {
		case *item.TVL > 1e9:
			b += 5
		case *item.TVL > 1e8:
			b += 3
		}
	}
	if item.MarketCapRank != nil {
		switch {
		case *item.MarketCapRank <= 100:
			b += 5
		case *item.MarketCapRank <= 500:
			b += 3
		}
	}
	if item.Logo != "" {
		b += 2
	}
	return b
}
