package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Price lists come with either Russian or English headers; both map to the
// same columns. Files without a recognizable header fall back to
// positional name,price,category.
var headerAliases = map[string]string{
	"товар":     "name",
	"название":  "name",
	"name":      "name",
	"цена":      "price",
	"price":     "price",
	"стоимость": "price",
	"категория": "category",
	"category":  "category",
}

func readCSV(path string) ([]rawRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := mapColumns(header)
	rows := make([]rawRow, 0, 64)

	// Header row without known aliases is data: keep it.
	if columns == nil {
		columns = map[string]int{"name": 0, "price": 1, "category": 2}
		if row, ok := rowFrom(header, columns); ok {
			rows = append(rows, row)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if row, ok := rowFrom(record, columns); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for idx, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if canonical, ok := headerAliases[key]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = idx
			}
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil
	}
	return columns
}

func rowFrom(record []string, columns map[string]int) (rawRow, bool) {
	cell := func(key string) string {
		idx, ok := columns[key]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	row := rawRow{
		Name:     cell("name"),
		Price:    cell("price"),
		Category: cell("category"),
	}
	if strings.TrimSpace(row.Name) == "" {
		return rawRow{}, false
	}
	return row, true
}
