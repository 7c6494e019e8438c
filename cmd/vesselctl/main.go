// Command vesselctl resolves vessels from the command line using the same
// pipeline as the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/vessel-position-service/internal/app"
	"github.com/couchcryptid/vessel-position-service/internal/config"
	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openService).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openService builds an orchestrator from the environment. Unless configured
// is set, stores are process-local.
func openService(ctx context.Context, configured bool) (service, func(context.Context) error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)

	var stores *app.Stores
	if configured {
		stores, err = app.OpenStores(ctx, cfg, domain.Clock(), logger)
	} else {
		stores, err = app.MemoryStores(cfg, domain.Clock(), logger)
	}
	if err != nil {
		return nil, nil, err
	}
	return app.NewOrchestrator(cfg, stores, observability.NewMetrics(), logger), stores.Close, nil
}
