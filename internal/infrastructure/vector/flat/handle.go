package flat

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
	"github.com/naladwepo/procurement-assistant/internal/core/ports"
)

// snapshot pairs an index with the exact catalog it was built from, so a
// candidate id always resolves against the matching item set.
type snapshot struct {
	index   *Index
	catalog *domain.Catalog
}

// Handle is the shared entry point to the similarity index. Queries read
// the current snapshot lock-free; Rebuild constructs a new snapshot aside
// and publishes it with one atomic swap, so readers never observe a
// partially built index.
type Handle struct {
	embedder ports.Embedder
	builder  *Builder
	cache    *Cache
	logger   *slog.Logger

	current atomic.Pointer[snapshot]
}

func NewHandle(builder *Builder, embedder ports.Embedder, cache *Cache, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		embedder: embedder,
		builder:  builder,
		cache:    cache,
		logger:   logger,
	}
}

// Rebuild embeds the given items into a new index and swaps it in,
// returning the number of indexed items. A cached index with a matching
// catalog content hash is reused instead of re-embedding.
func (h *Handle) Rebuild(ctx context.Context, items []domain.CatalogItem) (int, error) {
	catalog := domain.NewCatalog(items)

	if h.cache != nil {
		if index, ok := h.cache.Load(catalog.ContentHash()); ok && index.Len() == catalog.Len() {
			h.current.Store(&snapshot{index: index, catalog: catalog})
			h.logger.Info("index restored from cache", "items", index.Len(), "content_hash", catalog.ContentHash())
			return index.Len(), nil
		}
	}

	index, err := h.builder.Build(ctx, catalog)
	if err != nil {
		return 0, fmt.Errorf("build index: %w", err)
	}

	if h.cache != nil && index.Len() > 0 {
		if err := h.cache.Save(catalog.ContentHash(), index); err != nil {
			h.logger.Warn("index cache save failed", "error", err)
		}
	}

	h.current.Store(&snapshot{index: index, catalog: catalog})
	return index.Len(), nil
}

func (h *Handle) Search(ctx context.Context, text string, k int) ([]domain.MatchCandidate, error) {
	s := h.current.Load()
	if s == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if s.index.Len() == 0 {
		// Empty catalog is a legitimate state, not a failure.
		return nil, nil
	}
	if k < 1 {
		k = 1
	}

	query, err := h.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "embed query", err)
	}

	return candidatesFrom(s.index, s.index.search(l2Normalize(query), k)), nil
}

// SimilarTo searches by an indexed item's own vector, excluding the item.
func (h *Handle) SimilarTo(_ context.Context, itemID int64, k int) ([]domain.MatchCandidate, error) {
	s := h.current.Load()
	if s == nil {
		return nil, domain.ErrIndexUnavailable
	}
	pos, ok := s.index.positionOf(itemID)
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "similar items", fmt.Errorf("item %d not indexed", itemID))
	}
	if k < 1 {
		k = 1
	}

	hits := s.index.search(s.index.vectorAt(pos), k+1)
	filtered := make([]hit, 0, k)
	for _, candidate := range hits {
		if candidate.pos == pos {
			continue
		}
		filtered = append(filtered, candidate)
		if len(filtered) == k {
			break
		}
	}
	return candidatesFrom(s.index, filtered), nil
}

func (h *Handle) Item(id int64) (domain.CatalogItem, bool) {
	s := h.current.Load()
	if s == nil {
		return domain.CatalogItem{}, false
	}
	return s.catalog.ByID(id)
}

func (h *Handle) Size() int {
	s := h.current.Load()
	if s == nil {
		return 0
	}
	return s.catalog.Len()
}

func (h *Handle) Ready() bool {
	return h.current.Load() != nil
}

func (h *Handle) ContentHash() string {
	s := h.current.Load()
	if s == nil {
		return ""
	}
	return s.catalog.ContentHash()
}

func candidatesFrom(index *Index, hits []hit) []domain.MatchCandidate {
	out := make([]domain.MatchCandidate, 0, len(hits))
	for i, h := range hits {
		out = append(out, domain.MatchCandidate{
			ItemID: index.ids[h.pos],
			Score:  h.score,
			Rank:   i + 1,
		})
	}
	return out
}
