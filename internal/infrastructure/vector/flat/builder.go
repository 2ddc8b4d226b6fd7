package flat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
	"github.com/naladwepo/procurement-assistant/internal/core/ports"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/resilience"
)

// Builder embeds catalog entries batch by batch on a shared worker pool
// and assembles a fresh Index. Building never touches a live index.
type Builder struct {
	embedder   ports.Embedder
	executor   *resilience.Executor
	classifier resilience.ErrorClassifier
	pool       *ants.Pool
	batchSize  int
	logger     *slog.Logger
}

func NewBuilder(
	embedder ports.Embedder,
	executor *resilience.Executor,
	classifier resilience.ErrorClassifier,
	pool *ants.Pool,
	batchSize int,
	logger *slog.Logger,
) *Builder {
	if batchSize < 1 {
		batchSize = 32
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		embedder:   embedder,
		executor:   executor,
		classifier: classifier,
		pool:       pool,
		batchSize:  batchSize,
		logger:     logger,
	}
}

func (b *Builder) Build(ctx context.Context, catalog *domain.Catalog) (*Index, error) {
	items := catalog.Items()
	if len(items) == 0 {
		return newIndex(0, 0), nil
	}

	vectors := make([][]float32, len(items))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for start := 0; start < len(items); start += b.batchSize {
		end := min(start+b.batchSize, len(items))
		offset := start

		texts := make([]string, 0, end-start)
		for _, item := range items[start:end] {
			texts = append(texts, item.NormalizedName)
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			batch, err := b.embedBatch(ctx, texts)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(vectors[offset:], batch)
		}

		if b.pool != nil {
			if err := b.pool.Submit(task); err == nil {
				continue
			}
		}
		task()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("embed catalog: %w", firstErr)
	}

	index := newIndex(len(vectors[0]), len(items))
	for pos, item := range items {
		if err := index.add(item.ID, l2Normalize(vectors[pos])); err != nil {
			return nil, fmt.Errorf("index item %d: %w", item.ID, err)
		}
	}

	b.logger.Info("index built", "items", index.Len(), "dimension", index.Dim())
	return index, nil
}

func (b *Builder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var batch [][]float32
	call := func(ctx context.Context) error {
		vectors, err := b.embedder.EmbedPassages(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}
		batch = vectors
		return nil
	}

	if b.executor == nil {
		if err := call(ctx); err != nil {
			return nil, err
		}
		return batch, nil
	}
	if err := b.executor.Execute(ctx, "embed.passages", call, b.classifier); err != nil {
		return nil, err
	}
	return batch, nil
}
