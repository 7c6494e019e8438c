package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/couchcryptid/vessel-position-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Dependencies are the stores and providers an Orchestrator composes.
type Dependencies struct {
	Resolver *domain.Resolver
	Cache    domain.Cache
	History  domain.History
	Position domain.PositionProvider
	Weather  domain.WeatherProvider
	Imagery  domain.ImageryProvider
	Anomaly  domain.AnomalyDetector
}

// Orchestrator runs one resolution per call: resolve the key, consult the
// cache, fetch or substitute position data, persist, then attach imagery and
// the anomaly outcome.
type Orchestrator struct {
	deps           Dependencies
	persistTimeout time.Duration
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// New creates an Orchestrator. persistTimeout bounds the cache and history writes.
func New(deps Dependencies, persistTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		deps:           deps,
		persistTimeout: persistTimeout,
		logger:         logger,
		metrics:        metrics,
	}
}

// Resolve answers query with a consolidated record. It fails with
// domain.ErrVesselNotFound, domain.ErrNoPositionData, or the context error
// when ctx ends before position data is known.
func (o *Orchestrator) Resolve(ctx context.Context, query string) (domain.EnrichedRecord, error) {
	start := time.Now()

	key, err := o.deps.Resolver.Resolve(query)
	if err != nil {
		o.metrics.ResolutionErrors.WithLabelValues("not_found").Inc()
		return domain.EnrichedRecord{}, err
	}
	log := o.logger.With("mmsi", key)

	var rec domain.EnrichedRecord
	if entry, ok := o.lookupCache(ctx, key, log); ok {
		rec = fromCache(entry)
		rec.Imagery, rec.Anomaly = o.observe(ctx, rec.Position, log)
	} else {
		rec, err = o.fetch(ctx, key, log)
		if err != nil {
			return domain.EnrichedRecord{}, err
		}
	}

	o.metrics.Resolutions.WithLabelValues(string(rec.Provenance)).Inc()
	o.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	log.Info("vessel resolved", "provenance", rec.Provenance, "status", rec.StatusMessage,
		"duration", time.Since(start))
	return rec, nil
}

func (o *Orchestrator) lookupCache(ctx context.Context, key domain.VesselKey, log *slog.Logger) (domain.CacheEntry, bool) {
	entry, ok, err := o.deps.Cache.Get(ctx, key)
	switch {
	case err != nil:
		o.metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warn("cache lookup failed, treating as miss", "error", err)
		return domain.CacheEntry{}, false
	case !ok:
		o.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return domain.CacheEntry{}, false
	default:
		o.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return entry, true
	}
}

func fromCache(entry domain.CacheEntry) domain.EnrichedRecord {
	rec := entry.Record
	origin := rec.Provenance
	cachedAt := entry.CachedAt

	rec.Provenance = domain.ProvenanceCache
	rec.Origin = origin
	rec.CachedAt = &cachedAt
	rec.StatusMessage = domain.StatusMessage(domain.ProvenanceCache, origin, domain.FailureNone)
	return rec
}

// fetch runs the cache-miss path: position (or the degraded placeholder),
// weather and imagery, persistence, then anomaly assessment.
func (o *Orchestrator) fetch(ctx context.Context, key domain.VesselKey, log *slog.Logger) (domain.EnrichedRecord, error) {
	fix, err := o.deps.Position.Position(ctx, key)
	if err != nil && ctx.Err() != nil {
		// The caller left before the provider answered: nothing was fetched,
		// so nothing is substituted or persisted.
		o.metrics.ResolutionErrors.WithLabelValues("canceled").Inc()
		log.Info("resolution abandoned before position was known", "error", ctx.Err())
		return domain.EnrichedRecord{}, fmt.Errorf("fetch position: %w", ctx.Err())
	}
	class := domain.ClassOf(err)

	provenance, originMessage := domain.ProvenanceLive, domain.OriginLiveFetch
	switch {
	case err == nil:
		if fix.Key != key {
			log.Warn("position provider answered for a different vessel, keeping resolved key", "provider_mmsi", fix.Key)
			fix.Key = key
		}
	case class.Degradable():
		log.Warn("position provider degraded, substituting placeholder", "class", class.String(), "error", err)
		fix = domain.MockPosition(key)
		provenance, originMessage = domain.ProvenanceDegraded, domain.OriginMockFallback
	default:
		o.metrics.ResolutionErrors.WithLabelValues("no_position_data").Inc()
		log.Warn("position provider returned no usable fix", "class", class.String(), "error", err)
		return domain.EnrichedRecord{}, fmt.Errorf("%w: %w", domain.ErrNoPositionData, err)
	}

	weather, imagery := o.conditions(ctx, fix, log)

	rec := domain.EnrichedRecord{
		Position:      fix,
		Weather:       weather,
		Provenance:    provenance,
		StatusMessage: domain.StatusMessage(provenance, "", class),
	}
	o.persist(ctx, key, rec, originMessage, log)

	rec.Imagery = imagery
	rec.Anomaly = o.assess(ctx, imagery, log)
	return rec, nil
}

// conditions fetches weather and imagery for fix concurrently.
func (o *Orchestrator) conditions(ctx context.Context, fix domain.PositionFix, log *slog.Logger) (domain.WeatherSnapshot, []byte) {
	var (
		g       errgroup.Group
		weather domain.WeatherSnapshot
		imagery []byte
	)
	g.Go(func() error {
		w, err := o.deps.Weather.Current(ctx, fix.Latitude, fix.Longitude)
		if err != nil {
			log.Warn("weather fetch failed, using neutral default", "error", err)
			w = domain.NeutralWeather()
		}
		weather = w
		return nil
	})
	g.Go(func() error {
		imagery = o.image(ctx, fix, log)
		return nil
	})
	_ = g.Wait()
	return weather, imagery
}

// observe attaches imagery and the anomaly outcome for a cached position.
func (o *Orchestrator) observe(ctx context.Context, fix domain.PositionFix, log *slog.Logger) ([]byte, *domain.AnomalyOutcome) {
	imagery := o.image(ctx, fix, log)
	return imagery, o.assess(ctx, imagery, log)
}

func (o *Orchestrator) image(ctx context.Context, fix domain.PositionFix, log *slog.Logger) []byte {
	img, err := o.deps.Imagery.Image(ctx, fix.Latitude, fix.Longitude)
	if err != nil {
		log.Warn("imagery unavailable, omitting imagery and anomaly", "error", err)
		return nil
	}
	return img
}

// assess returns nil when there is no image to score.
func (o *Orchestrator) assess(ctx context.Context, imagery []byte, log *slog.Logger) *domain.AnomalyOutcome {
	if len(imagery) == 0 {
		o.metrics.AnomalyOutcomes.WithLabelValues("skipped").Inc()
		return nil
	}
	a, err := o.deps.Anomaly.Assess(ctx, imagery)
	if err != nil {
		o.metrics.AnomalyOutcomes.WithLabelValues(string(domain.AnomalyUnavailable)).Inc()
		log.Warn("anomaly inference unavailable", "error", err)
		return domain.Unavailable()
	}
	o.metrics.AnomalyOutcomes.WithLabelValues(string(domain.AnomalyAssessed)).Inc()
	return domain.Assessed(a)
}

// persist writes the cache entry and history entry. It is detached from the
// caller's cancellation so both writes are attempted once position data is
// known. Failures are logged and counted, never returned.
func (o *Orchestrator) persist(ctx context.Context, key domain.VesselKey, rec domain.EnrichedRecord, originMessage string, log *slog.Logger) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.persistTimeout)
	defer cancel()

	if err := o.deps.Cache.Put(pctx, key, rec); err != nil {
		o.metrics.PersistenceFailures.WithLabelValues("cache").Inc()
		log.Error("cache write failed", "error", err)
	}
	entry := domain.NewHistoryEntry(rec, originMessage)
	if err := o.deps.History.Append(pctx, entry); err != nil {
		o.metrics.PersistenceFailures.WithLabelValues("history").Inc()
		log.Error("history append failed", "id", entry.ID, "error", err)
	}
}

// ListHistory resolves query and returns up to limit history entries, newest first.
func (o *Orchestrator) ListHistory(ctx context.Context, query string, limit int) (domain.VesselKey, []domain.HistoryEntry, error) {
	key, err := o.deps.Resolver.Resolve(query)
	if err != nil {
		return "", nil, err
	}
	reader, ok := o.deps.History.(domain.HistoryReader)
	if !ok {
		return key, nil, domain.ErrHistoryUnsupported
	}
	entries, err := reader.List(ctx, key, limit)
	if err != nil {
		return key, nil, fmt.Errorf("list history: %w", err)
	}
	return key, entries, nil
}

// CheckReadiness pings every store that supports it.
func (o *Orchestrator) CheckReadiness(ctx context.Context) error {
	var errs []error
	for name, s := range map[string]any{"cache": o.deps.Cache, "history": o.deps.History} {
		p, ok := s.(domain.Pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
