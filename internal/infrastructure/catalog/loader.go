// Package catalog loads supplier price lists into normalized catalog
// items. Suppliers ship CSV, XLSX and occasionally PDF; all three funnel
// into the same record shape with stable insertion-order ids.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
)

// FileSource loads a catalog from a single price-list file, dispatching on
// the file extension.
type FileSource struct {
	path   string
	logger *slog.Logger
}

func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, logger: logger}
}

func (s *FileSource) Load(ctx context.Context) ([]domain.CatalogItem, error) {
	var (
		rows []rawRow
		err  error
	)
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".csv":
		rows, err = readCSV(s.path)
	case ".xlsx":
		rows, err = readXLSX(s.path)
	case ".pdf":
		rows, err = readPDF(ctx, s.path)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", s.path, err)
	}

	items := buildItems(rows)
	s.logger.Info("catalog loaded", "path", s.path, "rows", len(rows), "items", len(items))
	return items, nil
}

// rawRow is one price-list row before normalization.
type rawRow struct {
	Name     string
	Price    string
	Category string
}

func buildItems(rows []rawRow) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(rows))
	var nextID int64 = 1
	for _, row := range rows {
		name := cleanName(row.Name)
		if name == "" {
			continue
		}
		items = append(items, domain.CatalogItem{
			ID:             nextID,
			Name:           name,
			NormalizedName: domain.NormalizeName(name),
			Cost:           ParsePrice(row.Price),
			Category:       strings.TrimSpace(row.Category),
		})
		nextID++
	}
	return items
}

var (
	trailingPriceRe = regexp.MustCompile(`\s*-\s*\d[\d\s]*руб\.?\s*$`)
	firstNumberRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// cleanName strips a price accidentally glued to the product name
// ("Короб 100x100 - 61263 руб." is a common supplier artifact).
func cleanName(name string) string {
	return strings.TrimSpace(trailingPriceRe.ReplaceAllString(name, ""))
}

// ParsePrice extracts the numeric value from a price cell: "61 263 руб.",
// "61263", "61263,50" all parse; anything without digits is 0.
func ParsePrice(raw string) float64 {
	cleaned := strings.NewReplacer(" ", "", " ", "", "руб.", "", "руб", "", ",", ".").Replace(raw)
	match := firstNumberRe.FindString(cleaned)
	if match == "" {
		return 0
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}
