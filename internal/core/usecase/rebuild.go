package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/naladwepo/procurement-assistant/internal/core/ports"
)

// RebuildUseCase loads the catalog, republishes the similarity index and,
// when asked, tells the other instances to do the same.
type RebuildUseCase struct {
	source    ports.CatalogSource
	persister ports.CatalogPersister
	publisher ports.IndexPublisher
	queue     ports.MessageQueue
	metrics   Metrics
	logger    *slog.Logger
}

func NewRebuildUseCase(
	source ports.CatalogSource,
	persister ports.CatalogPersister,
	publisher ports.IndexPublisher,
	queue ports.MessageQueue,
	metrics Metrics,
	logger *slog.Logger,
) *RebuildUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &RebuildUseCase{
		source:    source,
		persister: persister,
		publisher: publisher,
		queue:     queue,
		metrics:   metrics,
		logger:    logger.With("component", "rebuild_usecase"),
	}
}

// Rebuild replaces the live index with one built from a fresh catalog load.
// The swap is atomic: queries keep hitting the previous index until the new
// one is complete.
func (uc *RebuildUseCase) Rebuild(ctx context.Context, broadcast bool) (int, error) {
	items, err := uc.source.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}
	if len(items) == 0 {
		// An empty catalog still produces a valid (empty) index; every
		// search against it comes back with no candidates.
		uc.logger.Warn("catalog source returned no items")
	}

	if uc.persister != nil {
		// Persistence failure must not block serving the new index.
		if err := uc.persister.ReplaceCatalog(ctx, items); err != nil {
			uc.logger.Warn("catalog persistence failed", "error", err)
		}
	}

	size, err := uc.publisher.Rebuild(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	uc.metrics.SetCatalogSize(size)
	uc.metrics.IncRebuild()
	uc.logger.Info("index rebuilt", "items", size, "content_hash", uc.publisher.ContentHash())

	if broadcast && uc.queue != nil {
		if err := uc.queue.PublishCatalogReloaded(ctx, uc.publisher.ContentHash()); err != nil {
			uc.logger.Warn("catalog reload broadcast failed", "error", err)
		}
	}

	return size, nil
}
