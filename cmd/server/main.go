package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/vessel-position-service/internal/adapter/http"
	"github.com/couchcryptid/vessel-position-service/internal/app"
	"github.com/couchcryptid/vessel-position-service/internal/config"
	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg, domain.Clock(), logger)
	if err != nil {
		logger.Error("failed to open stores", "error", err)
		os.Exit(1)
	}

	orchestrator := app.NewOrchestrator(cfg, stores, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, orchestrator, orchestrator, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := stores.Close(shutdownCtx); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
