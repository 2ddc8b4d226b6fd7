// Package decompose provides the deterministic fallback that splits a
// compound procurement query into line items when the language model is
// unavailable or rejected.
package decompose

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/naladwepo/procurement-assistant/internal/config"
	"github.com/naladwepo/procurement-assistant/internal/core/domain"
)

var leadingQuantityRe = regexp.MustCompile(`^(\d+)\s+(\p{L}.*)$`)

// Heuristic splits queries on punctuation and conjunction words. It never
// fails: a query that resists splitting comes back as a single line item.
type Heuristic struct {
	conjunctions []string
	stopWords    map[string]struct{}
	logger       *slog.Logger
}

func NewHeuristic(policy config.Policy, logger *slog.Logger) *Heuristic {
	stop := make(map[string]struct{}, len(policy.StopFragments))
	for _, w := range policy.StopFragments {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Heuristic{
		conjunctions: policy.Conjunctions,
		stopWords:    stop,
		logger:       logger.With("component", "heuristic_decomposer"),
	}
}

// Decompose splits query into line items. Fragments that are nothing but a
// kit word ("комплект", "набор") are dropped; a leading integer becomes the
// fragment's quantity.
func (h *Heuristic) Decompose(query string) []domain.LineItemRequest {
	fragments := h.split(query)

	items := make([]domain.LineItemRequest, 0, len(fragments))
	for _, fragment := range fragments {
		trimmed := strings.TrimSpace(fragment)
		if trimmed == "" {
			continue
		}
		if h.isStopFragment(trimmed) {
			continue
		}
		quantity := 1
		description := trimmed
		if m := leadingQuantityRe.FindStringSubmatch(trimmed); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 {
				quantity = n
				description = strings.TrimSpace(m[2])
			}
		}
		items = append(items, domain.LineItemRequest{
			Description:  description,
			Quantity:     quantity,
			SourcePhrase: trimmed,
		})
	}

	if len(items) == 0 {
		trimmed := strings.TrimSpace(query)
		items = append(items, domain.LineItemRequest{
			Description:  trimmed,
			Quantity:     1,
			SourcePhrase: trimmed,
		})
	}

	h.logger.Debug("heuristic decomposition", "query", query, "lines", len(items))
	return items
}

// split breaks the query on commas, plus signs and conjunction words. A
// colon after a kit word ("комплект: короб, крышка") discards the head and
// splits the tail only.
func (h *Heuristic) split(query string) []string {
	working := query
	if head, tail, ok := strings.Cut(working, ":"); ok {
		if h.isStopFragment(strings.TrimSpace(head)) {
			working = tail
		}
	}

	working = strings.ReplaceAll(working, "+", ",")
	for _, conj := range h.conjunctions {
		working = replaceWord(working, conj, ",")
	}
	return strings.Split(working, ",")
}

func (h *Heuristic) isStopFragment(fragment string) bool {
	words := strings.Fields(strings.ToLower(fragment))
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if _, ok := h.stopWords[strings.Trim(w, ".,;:!?")]; !ok {
			return false
		}
	}
	return true
}

// replaceWord swaps standalone occurrences of word for sep, leaving words
// that merely contain it ("игла" keeps its "и") untouched.
func replaceWord(s, word, sep string) string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.EqualFold(f, word) {
			out = append(out, sep)
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
