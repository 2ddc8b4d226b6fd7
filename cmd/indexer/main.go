// The indexer is a one-shot job: load the catalog, embed it, warm the index
// cache and optionally persist the snapshot and notify running instances.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/naladwepo/procurement-assistant/internal/bootstrap"
	"github.com/naladwepo/procurement-assistant/internal/config"
	"github.com/naladwepo/procurement-assistant/internal/observability/logging"
)

func main() {
	broadcast := flag.Bool("broadcast", false, "notify running instances over the queue after the rebuild")
	persist := flag.Bool("persist", true, "store the catalog snapshot in postgres")
	flag.Parse()

	cfg := config.Load()
	logger := logging.NewJSONLogger("indexer", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{
		WithPostgres: *persist && cfg.PostgresDSN != "",
		WithQueue:    *broadcast && cfg.NATSURL != "",
	})
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	started := time.Now()
	size, err := app.RebuildUC.Rebuild(ctx, *broadcast)
	if err != nil {
		logger.Error("rebuild failed", "error", err)
		os.Exit(1)
	}

	logger.Info("rebuild complete",
		"items", size,
		"content_hash", app.Index.ContentHash(),
		"duration", time.Since(started).String(),
	)
}
