package ports

import (
	"context"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
)

// CatalogSource supplies the frozen ordered catalog the index is built from.
type CatalogSource interface {
	Load(ctx context.Context) ([]domain.CatalogItem, error)
}

// CatalogPersister stores a loaded catalog snapshot for later reloads.
type CatalogPersister interface {
	ReplaceCatalog(ctx context.Context, items []domain.CatalogItem) error
}

// Embedder builds vectors for catalog entries and query text. The two
// methods frame their input differently (passage vs query); both sides
// must share one vector space, so an index is only valid with the embedder
// it was built with.
type Embedder interface {
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SimilarityIndex resolves free text to ranked catalog candidates and gives
// read access to the catalog snapshot the candidates reference.
type SimilarityIndex interface {
	Search(ctx context.Context, text string, k int) ([]domain.MatchCandidate, error)
	SimilarTo(ctx context.Context, itemID int64, k int) ([]domain.MatchCandidate, error)
	Item(id int64) (domain.CatalogItem, bool)
	Size() int
	Ready() bool
}

// IndexPublisher rebuilds the similarity index from a catalog snapshot and
// atomically swaps it in. Readers never observe a partially built index.
type IndexPublisher interface {
	Rebuild(ctx context.Context, items []domain.CatalogItem) (int, error)
	ContentHash() string
}

// StructuredParser is the language-model path of query decomposition. The
// call may block for the backend's full inference time; callers bound it
// with a context deadline and fall back on error.
type StructuredParser interface {
	ParseLineItems(ctx context.Context, query string) ([]domain.LineItemRequest, error)
}

// FallbackDecomposer is the deterministic path. It never fails: worst case
// it returns the whole trimmed query as a single line with quantity 1.
type FallbackDecomposer interface {
	Decompose(query string) []domain.LineItemRequest
}

// ComplexityClassifier decides whether a query needs decomposition at all.
type ComplexityClassifier interface {
	IsCompound(query string) bool
}

// HistoryStore persists completed resolutions.
type HistoryStore interface {
	Record(ctx context.Context, entry *domain.HistoryEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// MessageQueue broadcasts catalog reloads so every instance rebuilds.
type MessageQueue interface {
	PublishCatalogReloaded(ctx context.Context, contentHash string) error
	SubscribeCatalogReloaded(ctx context.Context, handler func(context.Context, string) error) error
}
