package catalog

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF price lists carry one item per line, name first, price last:
// "Гайка М6, оцинкованная 13 688 руб.". Lines without a trailing price
// are headers or page furniture and are skipped.
var pdfLineRe = regexp.MustCompile(`^(.{3,}?)[\s:–—-]+(\d[\d\s]*(?:[.,]\d+)?)\s*(?:руб\.?)?$`)

func readPDF(ctx context.Context, path string) ([]rawRow, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	rows := make([]rawRow, 0, 64)
	scanner := bufio.NewScanner(content)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		match := pdfLineRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		rows = append(rows, rawRow{
			Name:  strings.TrimSpace(match[1]),
			Price: match[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan pdf text: %w", err)
	}
	return rows, nil
}
