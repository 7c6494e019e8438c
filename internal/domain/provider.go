package domain

import "context"

// PositionProvider looks up the latest position fix for a vessel.
type PositionProvider interface {
	// Position returns an error carrying a FailureClass on failure.
	Position(ctx context.Context, key VesselKey) (PositionFix, error)
}

// WeatherProvider fetches current weather at a coordinate. Implementations
// substitute NeutralWeather instead of failing.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) (WeatherSnapshot, error)
}

// ImageryProvider fetches a satellite raster centered on a coordinate.
type ImageryProvider interface {
	Image(ctx context.Context, lat, lon float64) ([]byte, error)
}

// AnomalyDetector scores an image. Failures wrap ErrInferenceUnavailable.
type AnomalyDetector interface {
	Assess(ctx context.Context, image []byte) (AnomalyAssessment, error)
}

// Cache is the perishable keyed store. Get applies the freshness window itself.
type Cache interface {
	Get(ctx context.Context, key VesselKey) (CacheEntry, bool, error)
	Put(ctx context.Context, key VesselKey, record EnrichedRecord) error
}

// History is the append-only resolution log.
type History interface {
	Append(ctx context.Context, entry HistoryEntry) error
}

// HistoryReader is implemented by history stores that can list past entries.
type HistoryReader interface {
	List(ctx context.Context, key VesselKey, limit int) ([]HistoryEntry, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
