package usecase

import (
	"context"
	"fmt"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
	"github.com/naladwepo/procurement-assistant/internal/core/ports"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryUseCase reads back past resolutions.
type HistoryUseCase struct {
	store ports.HistoryStore
}

func NewHistoryUseCase(store ports.HistoryStore) *HistoryUseCase {
	return &HistoryUseCase{store: store}
}

func (uc *HistoryUseCase) ListRecent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	entries, err := uc.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
