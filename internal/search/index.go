// Package search maintains the autocomplete index: a union of the
// provider list endpoints plus the curated registry entries, rebuilt on
// a schedule and swapped atomically so readers never see a partial index.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/chainlens/internal/clientdata"
	"github.com/aristath/chainlens/internal/clients/coingecko"
	"github.com/aristath/chainlens/internal/clients/defillama"
	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/registry"
	"github.com/aristath/chainlens/internal/utils"
)

// marketPages is how many 250-coin pages feed the index.
const marketPages = 2

const snapshotTable, snapshotKey = "search_index", "snapshot"

// ProtocolLister provides the protocol side of the index corpus.
type ProtocolLister interface {
	ListProtocols(ctx context.Context) ([]defillama.ProtocolListItem, error)
}

// MarketLister provides the coin side of the index corpus.
type MarketLister interface {
	ListMarkets(ctx context.Context, page int) ([]coingecko.MarketListItem, error)
}

// Index is one immutable build of the corpus.
type Index struct {
	Items   []domain.SearchItem
	BuiltAt time.Time
}

// Service owns the index lifecycle. Lookups read whatever build is
// current, rebuilds replace the whole index in one pointer swap.
type Service struct {
	protocols ProtocolLister
	markets   MarketLister
	registry  *registry.Registry
	cacheRepo *clientdata.Repository
	log       zerolog.Logger

	idx atomic.Pointer[Index]
}

// NewService creates the search service. cacheRepo is optional, without
// it snapshots are disabled and the index lives in memory only.
func NewService(protocols ProtocolLister, markets MarketLister, reg *registry.Registry, cacheRepo *clientdata.Repository, log zerolog.Logger) *Service {
	return &Service{
		protocols: protocols,
		markets:   markets,
		registry:  reg,
		cacheRepo: cacheRepo,
		log:       log.With().Str("component", "search").Logger(),
	}
}

// Rebuild fetches the list endpoints concurrently, unions them with the
// curated entries, and swaps the new index in. Provider failures shrink
// the corpus instead of failing the rebuild, as long as anything at all
// was collected.
func (s *Service) Rebuild(ctx context.Context) error {
	var (
		wg        sync.WaitGroup
		protoList []defillama.ProtocolListItem
		coinPages [marketPages][]coingecko.MarketListItem
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		list, err := s.protocols.ListProtocols(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("Protocol list unavailable for index rebuild")
			return
		}
		protoList = list
	}()

	for page := 1; page <= marketPages; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			items, err := s.markets.ListMarkets(ctx, page)
			if err != nil {
				s.log.Warn().Err(err).Int("page", page).Msg("Coin list page unavailable for index rebuild")
				return
			}
			coinPages[page-1] = items
		}(page)
	}

	wg.Wait()

	byID := make(map[string]domain.SearchItem)

	// Curated entries first: their types and aliases are hand-checked.
	for _, item := range s.registry.CuratedSearchItems() {
		upsert(byID, item)
	}
	for _, p := range protoList {
		upsert(byID, domain.SearchItem{
			ID:     p.Slug,
			Name:   p.Name,
			Symbol: p.Symbol,
			Type:   domain.EntityProtocol,
			Source: "defillama",
			Logo:   p.Logo,
			TVL:    p.TVL,
		})
	}
	for _, page := range coinPages {
		for _, c := range page {
			upsert(byID, domain.SearchItem{
				ID:            c.ID,
				Name:          c.Name,
				Symbol:        strings.ToUpper(c.Symbol),
				Type:          domain.EntityToken,
				Source:        "coingecko",
				Logo:          c.Image,
				MarketCap:     c.MarketCap,
				MarketCapRank: c.MarketCapRank,
			})
		}
	}

	if len(byID) == 0 {
		return errors.New("index rebuild collected no items")
	}

	items := make([]domain.SearchItem, 0, len(byID))
	for _, item := range byID {
		items = append(items, item)
	}

	idx := &Index{Items: items, BuiltAt: time.Now().UTC()}
	s.idx.Store(idx)
	s.snapshot(idx)

	s.log.Info().Int("items", len(items)).Msg("Search index rebuilt")
	return nil
}

// upsert inserts the item, or merges it field-by-field with an existing
// entry for the same normalized id. The entry with more populated
// fields becomes the base so list noise never erases curated data.
func upsert(byID map[string]domain.SearchItem, item domain.SearchItem) {
	key := utils.NormalizeQuery(item.ID)
	if key == "" {
		key = utils.NormalizeQuery(item.Name)
	}
	if key == "" {
		return
	}

	existing, ok := byID[key]
	if !ok {
		byID[key] = item
		return
	}
	byID[key] = mergeItems(existing, item)
}

func mergeItems(a, b domain.SearchItem) domain.SearchItem {
	if populated(b) > populated(a) {
		a, b = b, a
	}
	if a.Symbol == "" {
		a.Symbol = b.Symbol
	}
	if a.Logo == "" {
		a.Logo = b.Logo
	}
	if a.TVL == nil {
		a.TVL = b.TVL
	}
	if a.MarketCap == nil {
		a.MarketCap = b.MarketCap
	}
	if a.MarketCapRank == nil {
		a.MarketCapRank = b.MarketCapRank
	}
	if len(a.Aliases) == 0 {
		a.Aliases = b.Aliases
	}
	return a
}

func populated(item domain.SearchItem) int {
	n := 0
	for _, s := range []string{item.Name, item.Symbol, item.Logo} {
		if s != "" {
			n++
		}
	}
	for _, set := range []bool{item.TVL != nil, item.MarketCap != nil, item.MarketCapRank != nil, len(item.Aliases) > 0} {
		if set {
			n++
		}
	}
	return n
}

// current returns the live index, restoring it from the cached snapshot
// after a restart. Returns nil when no index exists yet.
func (s *Service) current() *Index {
	if idx := s.idx.Load(); idx != nil {
		return idx
	}
	if idx := s.loadSnapshot(); idx != nil {
		// Another goroutine may have rebuilt meanwhile, keep whichever won.
		s.idx.CompareAndSwap(nil, idx)
		return s.idx.Load()
	}
	return nil
}

func (s *Service) snapshot(idx *Index) {
	if s.cacheRepo == nil {
		return
	}
	blob, err := msgpack.Marshal(idx.Items)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode index snapshot")
		return
	}
	if err := s.cacheRepo.StoreRaw(snapshotTable, snapshotKey, blob, clientdata.TTLSearchIndex); err != nil {
		s.log.Warn().Err(err).Msg("Failed to store index snapshot")
	}
}

func (s *Service) loadSnapshot() *Index {
	if s.cacheRepo == nil {
		return nil
	}
	blob, err := s.cacheRepo.GetIfFresh(snapshotTable, snapshotKey)
	if err != nil || blob == nil {
		return nil
	}
	var items []domain.SearchItem
	if err := msgpack.Unmarshal(blob, &items); err != nil {
		s.log.Warn().Err(err).Msg("Discarding corrupt index snapshot")
		return nil
	}
	s.log.Info().Int("items", len(items)).Msg("Restored search index from snapshot")
	return &Index{Items: items, BuiltAt: time.Now().UTC()}
}

// RebuildJob adapts the rebuild for the cron scheduler.
type RebuildJob struct {
	service *Service
	timeout time.Duration
}

// NewRebuildJob wraps the service for scheduled rebuilds.
func NewRebuildJob(service *Service, timeout time.Duration) *RebuildJob {
	return &RebuildJob{service: service, timeout: timeout}
}

func (j *RebuildJob) Name() string { return "search_index_rebuild" }

func (j *RebuildJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.service.Rebuild(ctx)
}
