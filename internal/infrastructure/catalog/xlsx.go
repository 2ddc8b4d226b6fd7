package catalog

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

func readXLSX(path string) ([]rawRow, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	columns := mapColumns(records[0])
	rows := make([]rawRow, 0, len(records))

	start := 1
	if columns == nil {
		columns = map[string]int{"name": 0, "price": 1, "category": 2}
		start = 0
	}

	for _, record := range records[start:] {
		if row, ok := rowFrom(record, columns); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
