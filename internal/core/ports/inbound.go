package ports

import (
	"context"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
)

// QueryResolver is the inbound contract for end-to-end query resolution.
type QueryResolver interface {
	Resolve(ctx context.Context, query string, opts domain.ResolveOptions) (*domain.ResolutionResult, error)
}

// CatalogRebuilder is the inbound contract for reloading the catalog and
// republishing the similarity index. broadcast controls whether other
// instances are notified over the queue. Returns the size of the new index.
type CatalogRebuilder interface {
	Rebuild(ctx context.Context, broadcast bool) (int, error)
}

// HistoryReader is the inbound read model for past resolutions.
type HistoryReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}
