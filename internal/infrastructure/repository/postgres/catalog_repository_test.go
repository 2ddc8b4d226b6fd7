package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
)

func newCatalogRepoWithMock(t *testing.T) (*CatalogRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &CatalogRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestReplaceCatalogRunsInOneTransaction(t *testing.T) {
	repo, mock, done := newCatalogRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM catalog_items").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO catalog_items").
		WithArgs(int64(1), "Короб 200x200", 1500.0, "кабеленесущие системы", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO catalog_items").
		WithArgs(int64(2), "Крышка короба", 400.0, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceCatalog(context.Background(), []domain.CatalogItem{
		{ID: 1, Name: "Короб 200x200", Cost: 1500, Category: "кабеленесущие системы"},
		{ID: 2, Name: "Крышка короба", Cost: 400},
	})
	if err != nil {
		t.Fatalf("ReplaceCatalog() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceCatalogRollsBackOnInsertError(t *testing.T) {
	repo, mock, done := newCatalogRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM catalog_items").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO catalog_items").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.ReplaceCatalog(context.Background(), []domain.CatalogItem{
		{ID: 1, Name: "Короб", Cost: 1500},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadNormalizesNames(t *testing.T) {
	repo, mock, done := newCatalogRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "name", "cost", "category"}).
		AddRow(int64(1), "  Короб   200x200 ", 1500.0, "").
		AddRow(int64(2), "Крышка короба", 400.0, "крышки")
	mock.ExpectQuery("SELECT id, name, cost, category").
		WillReturnRows(rows)

	items, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].NormalizedName != "короб 200x200" {
		t.Fatalf("NormalizedName = %q", items[0].NormalizedName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHistoryRecordAndListRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()
	repo := NewHistoryRepository(db)

	createdAt := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO resolution_history").
		WithArgs("id-1", "короб и крышка", 2, 2, 1900.0, true, createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Record(context.Background(), &domain.HistoryEntry{
		ID:         "id-1",
		Query:      "короб и крышка",
		LineCount:  2,
		FoundCount: 2,
		TotalCost:  1900,
		Decomposed: true,
		CreatedAt:  createdAt,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	rows := sqlmock.NewRows([]string{"id", "query", "line_count", "found_count", "total_cost", "decomposed", "created_at"}).
		AddRow("id-1", "короб и крышка", 2, 2, 1900.0, true, createdAt)
	mock.ExpectQuery("SELECT id, query, line_count, found_count").
		WithArgs(20).
		WillReturnRows(rows)

	entries, err := repo.ListRecent(context.Background(), 20)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Query != "короб и крышка" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
