// Package app assembles stores, providers and the orchestrator from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/vessel-position-service/internal/adapter/aisfinder"
	"github.com/couchcryptid/vessel-position-service/internal/adapter/inference"
	kafkaadapter "github.com/couchcryptid/vessel-position-service/internal/adapter/kafka"
	"github.com/couchcryptid/vessel-position-service/internal/adapter/mapbox"
	"github.com/couchcryptid/vessel-position-service/internal/adapter/openweather"
	"github.com/couchcryptid/vessel-position-service/internal/config"
	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
	"github.com/couchcryptid/vessel-position-service/internal/pipeline"
	"github.com/couchcryptid/vessel-position-service/internal/store/memory"
	mongostore "github.com/couchcryptid/vessel-position-service/internal/store/mongo"
	redisstore "github.com/couchcryptid/vessel-position-service/internal/store/redis"
	sqlstore "github.com/couchcryptid/vessel-position-service/internal/store/sql"
	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/mongo"
)

// Stores holds the configured cache and history along with their teardown.
type Stores struct {
	Cache   domain.Cache
	History domain.History

	closers []func(context.Context) error
}

func (s *Stores) onClose(fn func(context.Context) error) {
	s.closers = append(s.closers, fn)
}

// Close releases every backend in reverse order of creation.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// MemoryStores returns process-local stores with the expiry sweeper running.
func MemoryStores(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) (*Stores, error) {
	s := &Stores{History: memory.NewHistory()}
	if err := s.memoryCache(cfg, clock, logger); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stores) memoryCache(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) error {
	cache := memory.NewCache(cfg.CacheFreshness, cfg.CacheMaxVessels, clock)
	sweeper := memory.NewSweeper(cache, cfg.CacheSweepInterval, logger)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start cache sweeper: %w", err)
	}
	s.Cache = cache
	s.onClose(func(context.Context) error { sweeper.Stop(); return nil })
	return nil
}

// OpenStores connects the cache and history backends selected by cfg. When a
// Kafka topic is configured, history is also mirrored there.
func OpenStores(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) (*Stores, error) {
	s := &Stores{}
	if err := s.open(ctx, cfg, clock, logger); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Stores) open(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) error {
	var db *mongo.Database
	if cfg.CacheBackend == "mongo" || cfg.HistoryBackend == "mongo" {
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		s.onClose(client.Disconnect)
		db = client.Database(cfg.MongoDatabase)
	}

	switch cfg.CacheBackend {
	case "redis":
		cache, err := redisstore.NewCache(redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.CacheFreshness, clock)
		if err != nil {
			return err
		}
		s.onClose(func(context.Context) error { return cache.Close() })
		if err := cache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		s.Cache = cache
	case "mongo":
		cache, err := mongostore.NewCache(ctx, db, cfg.CacheFreshness, clock)
		if err != nil {
			return err
		}
		s.Cache = cache
	default:
		if err := s.memoryCache(cfg, clock, logger); err != nil {
			return err
		}
	}

	var primary domain.History
	switch cfg.HistoryBackend {
	case "sql":
		h, err := sqlstore.Open(cfg.HistorySQLDriver, cfg.HistorySQLDSN)
		if err != nil {
			return err
		}
		primary = h
		s.onClose(func(context.Context) error { return h.Close() })
	case "mongo":
		h, err := mongostore.NewHistory(ctx, db)
		if err != nil {
			return err
		}
		primary = h
	default:
		primary = memory.NewHistory()
	}

	s.History = primary
	if cfg.HistoryKafkaTopic != "" {
		w := kafkaadapter.NewWriter(cfg, logger)
		s.onClose(func(context.Context) error { return w.Close() })
		s.History = domain.MultiHistory{primary, w}
		logger.Info("history mirror enabled", "topic", cfg.HistoryKafkaTopic)
	}

	logger.Info("stores ready", "cache_backend", cfg.CacheBackend, "history_backend", cfg.HistoryBackend)
	return nil
}

// NewOrchestrator builds the provider adapters from cfg and composes them with stores.
func NewOrchestrator(cfg *config.Config, stores *Stores, metrics *observability.Metrics, logger *slog.Logger) *pipeline.Orchestrator {
	deps := pipeline.Dependencies{
		Resolver: domain.NewResolver(cfg.VesselNames),
		Cache:    stores.Cache,
		History:  stores.History,
		Position: aisfinder.NewClient(cfg.RapidAPIKey, cfg.AISBaseURL, cfg.AISHost, cfg.ProviderTimeout, metrics, logger),
		Weather:  openweather.NewClient(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.ProviderTimeout, metrics, logger),
		Imagery:  mapbox.NewClient(cfg.MapboxToken, cfg.MapboxBaseURL, cfg.ProviderTimeout, metrics, logger),
		Anomaly:  inference.NewClient(cfg.MLServiceURL, cfg.InferenceTimeout, metrics, logger),
	}
	return pipeline.New(deps, cfg.PersistTimeout, logger, metrics)
}
