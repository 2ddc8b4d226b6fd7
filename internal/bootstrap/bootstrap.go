// Package bootstrap assembles the application graph shared by the api and
// indexer binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/naladwepo/procurement-assistant/internal/config"
	"github.com/naladwepo/procurement-assistant/internal/core/ports"
	"github.com/naladwepo/procurement-assistant/internal/core/usecase"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/catalog"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/complexity"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/decompose"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/llm/ollama"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/llm/openai"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/queue/nats"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/repository/postgres"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/resilience"
	"github.com/naladwepo/procurement-assistant/internal/infrastructure/vector/flat"
)

// Options toggles the optional subsystems. The indexer keeps everything it
// does not need switched off.
type Options struct {
	WithPostgres bool
	WithQueue    bool
	Metrics      usecase.Metrics
}

type App struct {
	Config config.Config
	Policy config.Policy
	Logger *slog.Logger

	Queue ports.MessageQueue
	Index *flat.Handle

	ResolveUC *usecase.ResolveUseCase
	RebuildUC *usecase.RebuildUseCase
	HistoryUC *usecase.HistoryUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	policy, err := loadPolicy(cfg, logger)
	if err != nil {
		return nil, err
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = usecase.NopMetrics{}
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	// Single attempt for decomposition: the heuristic fallback is cheaper
	// than retrying a slow model inside a user-facing request.
	parser := ollama.NewParserWithExecutor(ollamaClient, resilience.NewExecutor(resilience.SingleAttemptConfig()))

	embedder, err := buildEmbedder(cfg, ollamaClient, logger)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(cfg.SearchWorkers)
	if err != nil {
		return nil, fmt.Errorf("init worker pool: %w", err)
	}

	cache, err := flat.OpenCache(cfg.IndexCachePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open index cache: %w", err)
	}

	builder := flat.NewBuilder(embedder, executor, ollama.ClassifyError, pool, cfg.EmbedBatchSize, logger)
	index := flat.NewHandle(builder, embedder, cache, logger)

	closers := []func(){pool.Release, func() { _ = cache.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, error) {
		closeAll()
		return nil, err
	}

	var catalogRepo *postgres.CatalogRepository
	var historyStore ports.HistoryStore
	var historyUC *usecase.HistoryUseCase
	if opts.WithPostgres {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return fail(fmt.Errorf("open postgres: %w", err))
		}
		closers = append(closers, func() { _ = db.Close() })

		catalogRepo = postgres.NewCatalogRepository(db)
		if err := catalogRepo.EnsureSchema(ctx); err != nil {
			return fail(fmt.Errorf("ensure catalog schema: %w", err))
		}

		if cfg.HistoryEnabled {
			historyRepo := postgres.NewHistoryRepository(db)
			if err := historyRepo.EnsureSchema(ctx); err != nil {
				return fail(fmt.Errorf("ensure history schema: %w", err))
			}
			historyStore = historyRepo
			historyUC = usecase.NewHistoryUseCase(historyRepo)
		}
	}

	var queue ports.MessageQueue
	if opts.WithQueue {
		natsQueue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, logger, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return fail(fmt.Errorf("init message queue: %w", err))
		}
		closers = append(closers, natsQueue.Close)
		queue = natsQueue
	}

	var source ports.CatalogSource
	var persister ports.CatalogPersister
	switch {
	case cfg.CatalogPath != "":
		source = catalog.NewFileSource(cfg.CatalogPath, logger)
		if catalogRepo != nil {
			persister = catalogRepo
		}
	case catalogRepo != nil:
		// No file configured: serve whatever snapshot Postgres holds.
		source = catalogRepo
	default:
		return fail(fmt.Errorf("no catalog source configured: set CATALOG_PATH or enable postgres"))
	}

	classifier := complexity.NewClassifier(policy)
	heuristic := decompose.NewHeuristic(policy, logger)

	resolveUC := usecase.NewResolveUseCase(
		parser,
		heuristic,
		classifier,
		index,
		historyStore,
		pool,
		usecase.ResolveConfig{
			TopK:           cfg.ResolveTopK,
			Alternatives:   cfg.ResolveAlternatives,
			Currency:       cfg.ResolveCurrency,
			ParseTimeout:   time.Duration(cfg.ParseTimeoutSeconds) * time.Second,
			ScoreThreshold: policy.MatchScoreThreshold,
		},
		metrics,
		logger,
	)
	rebuildUC := usecase.NewRebuildUseCase(source, persister, index, queue, metrics, logger)

	return &App{
		Config:    cfg,
		Policy:    policy,
		Logger:    logger,
		Queue:     queue,
		Index:     index,
		ResolveUC: resolveUC,
		RebuildUC: rebuildUC,
		HistoryUC: historyUC,
		closeFn:   closeAll,
	}, nil
}

// SubscribeReloads rebuilds the local index whenever another instance
// broadcasts a catalog reload. Blocks until ctx is done.
func (a *App) SubscribeReloads(ctx context.Context) error {
	if a.Queue == nil {
		return nil
	}
	return a.Queue.SubscribeCatalogReloaded(ctx, func(ctx context.Context, contentHash string) error {
		if contentHash != "" && contentHash == a.Index.ContentHash() {
			a.Logger.Debug("skipping reload, catalog already current", "content_hash", contentHash)
			return nil
		}
		_, err := a.RebuildUC.Rebuild(ctx, false)
		return err
	})
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func loadPolicy(cfg config.Config, logger *slog.Logger) (config.Policy, error) {
	if cfg.PolicyPath == "" {
		return config.DefaultPolicy(), nil
	}
	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return config.Policy{}, fmt.Errorf("load policy: %w", err)
	}
	logger.Info("decomposition policy loaded", "path", cfg.PolicyPath)
	return policy, nil
}

func buildEmbedder(cfg config.Config, ollamaClient *ollama.Client, logger *slog.Logger) (ports.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		embedder, err := openai.NewEmbedder(cfg.OpenAIBaseURL, cfg.OpenAIEmbedModel, logger)
		if err != nil {
			return nil, fmt.Errorf("init openai embedder: %w", err)
		}
		return embedder, nil
	default:
		return ollama.NewEmbedder(ollamaClient), nil
	}
}
