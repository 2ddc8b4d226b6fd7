package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
	"github.com/naladwepo/procurement-assistant/internal/core/ports"
)

// Resolution paths, reported to metrics.
const (
	pathSimple   = "simple"
	pathModel    = "model"
	pathFallback = "fallback"
)

// ResolveConfig carries the tunables of a resolution pipeline instance.
type ResolveConfig struct {
	TopK           int
	Alternatives   int
	Currency       string
	ParseTimeout   time.Duration
	ScoreThreshold float64
}

// ResolveUseCase turns a free-text procurement query into priced catalog
// lines: decompose, match every line against the similarity index, merge
// duplicates and total up.
type ResolveUseCase struct {
	parser     ports.StructuredParser
	fallback   ports.FallbackDecomposer
	classifier ports.ComplexityClassifier
	index      ports.SimilarityIndex
	history    ports.HistoryStore
	pool       *ants.Pool
	cfg        ResolveConfig
	metrics    Metrics
	logger     *slog.Logger
}

func NewResolveUseCase(
	parser ports.StructuredParser,
	fallback ports.FallbackDecomposer,
	classifier ports.ComplexityClassifier,
	index ports.SimilarityIndex,
	history ports.HistoryStore,
	pool *ants.Pool,
	cfg ResolveConfig,
	metrics Metrics,
	logger *slog.Logger,
) *ResolveUseCase {
	if cfg.TopK < 1 {
		cfg.TopK = 3
	}
	if cfg.Alternatives < 0 {
		cfg.Alternatives = 0
	}
	if cfg.Currency == "" {
		cfg.Currency = "RUB"
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &ResolveUseCase{
		parser:     parser,
		fallback:   fallback,
		classifier: classifier,
		index:      index,
		history:    history,
		pool:       pool,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger.With("component", "resolve_usecase"),
	}
}

func (uc *ResolveUseCase) Resolve(ctx context.Context, query string, opts domain.ResolveOptions) (*domain.ResolutionResult, error) {
	started := time.Now()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, domain.WrapError(domain.ErrInvalidQuery, "resolve query", errors.New("empty query"))
	}
	if !uc.index.Ready() {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "resolve query", errors.New("index not built"))
	}

	decomposition, path := uc.decompose(ctx, trimmed, opts)

	topK := opts.TopK
	if topK < 1 {
		topK = uc.cfg.TopK
	}

	lines := uc.resolveLines(ctx, decomposition.Lines, topK)
	lines = mergeDuplicateLines(lines)

	result := &domain.ResolutionResult{
		OriginalQuery: trimmed,
		Items:         lines,
		TotalItems:    len(lines),
		Currency:      uc.cfg.Currency,
		Decomposed:    decomposition.Structured,
	}
	for _, line := range lines {
		if line.BestMatch != nil {
			result.FoundItems++
			result.TotalCost += line.LineTotal
		}
	}

	uc.metrics.ObserveResolution(path, result.FoundItems, result.TotalItems, time.Since(started).Seconds())
	uc.recordHistory(ctx, result)

	uc.logger.Info("query resolved",
		"path", path,
		"lines", result.TotalItems,
		"found", result.FoundItems,
		"total_cost", result.TotalCost,
	)
	return result, nil
}

// decompose picks one of three paths: simple queries skip decomposition
// entirely, compound ones go through the language model when allowed, and
// any model failure lands on the deterministic splitter.
func (uc *ResolveUseCase) decompose(ctx context.Context, query string, opts domain.ResolveOptions) (domain.Decomposition, string) {
	if !uc.classifier.IsCompound(query) {
		return domain.Decomposition{
			Lines: []domain.LineItemRequest{{Description: query, Quantity: 1, SourcePhrase: query}},
		}, pathSimple
	}

	if opts.UseLanguageModel && uc.parser != nil {
		parseCtx := ctx
		if uc.cfg.ParseTimeout > 0 {
			var cancel context.CancelFunc
			parseCtx, cancel = context.WithTimeout(ctx, uc.cfg.ParseTimeout)
			defer cancel()
		}
		lines, err := uc.parser.ParseLineItems(parseCtx, query)
		if err == nil {
			return domain.Decomposition{Lines: lines, Structured: true}, pathModel
		}
		uc.logger.Warn("language model decomposition failed, using fallback", "error", err)
	}

	return domain.Decomposition{Lines: uc.fallback.Decompose(query)}, pathFallback
}

// resolveLines matches every line item concurrently. Results keep the order
// of the incoming lines regardless of which worker finishes first.
func (uc *ResolveUseCase) resolveLines(ctx context.Context, lines []domain.LineItemRequest, topK int) []domain.ResolvedLine {
	results := make([]domain.ResolvedLine, len(lines))

	var wg sync.WaitGroup
	for i, line := range lines {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = uc.resolveOne(ctx, line, topK)
		}
		if uc.pool == nil || uc.pool.Submit(task) != nil {
			task()
		}
	}
	wg.Wait()

	return results
}

// resolveOne never fails the whole query: a search error leaves the line
// unmatched and the rest of the answer intact.
func (uc *ResolveUseCase) resolveOne(ctx context.Context, line domain.LineItemRequest, topK int) domain.ResolvedLine {
	quantity := line.Quantity
	if quantity < 1 {
		quantity = 1
	}
	resolved := domain.ResolvedLine{
		RequestedItem: line.Description,
		Quantity:      quantity,
	}

	candidates, err := uc.index.Search(ctx, searchText(line), topK)
	if err != nil {
		uc.logger.Warn("line search failed", "item", line.Description, "error", err)
		return resolved
	}

	refs := uc.projectCandidates(candidates)
	if len(refs) == 0 {
		return resolved
	}

	best := refs[0]
	resolved.BestMatch = &best
	resolved.UnitPrice = best.UnitPrice
	resolved.LineTotal = best.UnitPrice * float64(quantity)
	if n := len(refs) - 1; n > 0 {
		if n > uc.cfg.Alternatives {
			n = uc.cfg.Alternatives
		}
		resolved.Alternatives = refs[1 : 1+n]
	}
	return resolved
}

// projectCandidates drops candidates under the score threshold and resolves
// the survivors against the catalog snapshot.
func (uc *ResolveUseCase) projectCandidates(candidates []domain.MatchCandidate) []domain.ProductRef {
	refs := make([]domain.ProductRef, 0, len(candidates))
	for _, c := range candidates {
		if c.Score < uc.cfg.ScoreThreshold {
			continue
		}
		item, ok := uc.index.Item(c.ItemID)
		if !ok {
			continue
		}
		refs = append(refs, domain.ProductRef{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.Cost,
			Score:     c.Score,
		})
	}
	return refs
}

func (uc *ResolveUseCase) recordHistory(ctx context.Context, result *domain.ResolutionResult) {
	if uc.history == nil {
		return
	}
	entry := &domain.HistoryEntry{
		ID:         uuid.NewString(),
		Query:      result.OriginalQuery,
		LineCount:  result.TotalItems,
		FoundCount: result.FoundItems,
		TotalCost:  result.TotalCost,
		Decomposed: result.Decomposed,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.history.Record(ctx, entry); err != nil {
		uc.logger.Warn("history record failed", "error", err)
	}
}

func searchText(line domain.LineItemRequest) string {
	if line.Specification == "" {
		return line.Description
	}
	return line.Description + " " + line.Specification
}
