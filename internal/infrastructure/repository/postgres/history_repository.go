package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082102)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS resolution_history (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	line_count INTEGER NOT NULL,
	found_count INTEGER NOT NULL,
	total_cost DOUBLE PRECISION NOT NULL,
	decomposed BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolution_history_created_at ON resolution_history(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Record(ctx context.Context, entry *domain.HistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO resolution_history (id, query, line_count, found_count, total_cost, decomposed, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		entry.ID, entry.Query, entry.LineCount, entry.FoundCount, entry.TotalCost, entry.Decomposed, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, query, line_count, found_count, total_cost, decomposed, created_at
FROM resolution_history
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		err := rows.Scan(
			&entry.ID, &entry.Query, &entry.LineCount, &entry.FoundCount,
			&entry.TotalCost, &entry.Decomposed, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}
