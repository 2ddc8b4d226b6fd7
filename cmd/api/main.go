package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/naladwepo/procurement-assistant/internal/adapters/http"
	"github.com/naladwepo/procurement-assistant/internal/bootstrap"
	"github.com/naladwepo/procurement-assistant/internal/config"
	"github.com/naladwepo/procurement-assistant/internal/core/ports"
	"github.com/naladwepo/procurement-assistant/internal/observability/logging"
	"github.com/naladwepo/procurement-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverMetrics := metrics.NewHTTPServerMetrics("api")

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{
		WithPostgres: cfg.PostgresDSN != "",
		WithQueue:    cfg.NATSURL != "",
		Metrics:      serverMetrics,
	})
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// Serve even if the first build fails: /healthz reports 503 and the
	// index comes up on the next successful reload.
	if _, err := app.RebuildUC.Rebuild(ctx, false); err != nil {
		logger.Warn("initial index build failed", "error", err)
	}

	go func() {
		if err := app.SubscribeReloads(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("reload subscription failed", "error", err)
		}
	}()

	var historyReader ports.HistoryReader
	if app.HistoryUC != nil {
		historyReader = app.HistoryUC
	}
	router := httpadapter.NewRouter(app.ResolveUC, app.RebuildUC, historyReader, app.Index, httpadapter.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		MaxConcurrent:  cfg.MaxConnections,
		Metrics:        serverMetrics,
	}).Handler()

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		logger.Error("listen failed", "port", cfg.APIPort, "error", err)
		os.Exit(1)
	}
	listener = netutil.LimitListener(listener, cfg.MaxConnections)

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", "error", err)
	}
}
