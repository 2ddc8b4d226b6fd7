package usecase

import "github.com/naladwepo/procurement-assistant/internal/core/domain"

// mergeDuplicateLines collapses lines that resolved to the same catalog item:
// quantities add up, the line total is recomputed, and the first occurrence
// keeps its position and requested-item text. Unmatched lines never merge.
func mergeDuplicateLines(lines []domain.ResolvedLine) []domain.ResolvedLine {
	merged := make([]domain.ResolvedLine, 0, len(lines))
	byItem := make(map[int64]int, len(lines))

	for _, line := range lines {
		if line.BestMatch == nil {
			merged = append(merged, line)
			continue
		}
		pos, seen := byItem[line.BestMatch.ID]
		if !seen {
			byItem[line.BestMatch.ID] = len(merged)
			merged = append(merged, line)
			continue
		}
		first := &merged[pos]
		first.Quantity += line.Quantity
		first.LineTotal = first.UnitPrice * float64(first.Quantity)
	}

	return merged
}
