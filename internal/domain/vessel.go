package domain

import (
	"regexp"
	"time"
)

// VesselKey is the canonical vessel identifier: a 9-digit MMSI.
type VesselKey string

var canonicalKeyPattern = regexp.MustCompile(`^\d{9}$`)

// IsCanonicalKey reports whether s already has the canonical MMSI shape.
func IsCanonicalKey(s string) bool {
	return canonicalKeyPattern.MatchString(s)
}

// String returns the key as a plain string.
func (k VesselKey) String() string { return string(k) }

// Provenance states where the position data of a record came from.
type Provenance string

const (
	ProvenanceCache    Provenance = "cache"
	ProvenanceLive     Provenance = "live"
	ProvenanceDegraded Provenance = "degraded"
)

// Origin messages recorded on history entries.
const (
	OriginLiveFetch    = "live fetch"
	OriginMockFallback = "mock fallback"
)

// PositionFix is a single observed vessel position.
type PositionFix struct {
	Key              VesselKey `json:"mmsi" validate:"required"`
	DisplayName      string    `json:"name"`
	SecondaryID      string    `json:"imo,omitempty"`
	Latitude         float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude        float64   `json:"longitude" validate:"gte=-180,lte=180"`
	CourseOverGround float64   `json:"course"`
	Speed            float64   `json:"speed"`
	ObservedAt       time.Time `json:"timestamp"`
}

// WeatherSnapshot is the weather at a position fix at the moment of enrichment.
type WeatherSnapshot struct {
	Condition     string   `json:"weather"`
	Description   string   `json:"weatherDescription"`
	TemperatureC  float64  `json:"temperature"`
	PressureHPa   float64  `json:"pressure"`
	HumidityPct   float64  `json:"humidity"`
	WindSpeed     float64  `json:"windspeed"`
	Rainfall      *float64 `json:"rain"`
	CloudCoverPct float64  `json:"clouds"`

	// Neutral is set when the weather adapter substituted its deterministic default.
	Neutral bool `json:"neutral,omitempty"`
}

// AnomalyAssessment is the inference service's verdict on one satellite image.
type AnomalyAssessment struct {
	IsAnomaly    bool    `json:"isAnomaly"`
	Confidence   float64 `json:"confidence"`
	CoveragePct  float64 `json:"coveragePct"`
	OverlayImage []byte  `json:"analysisImage,omitempty"`
}

// AnomalyStatus tags an AnomalyOutcome.
type AnomalyStatus string

const (
	AnomalyAssessed    AnomalyStatus = "assessed"
	AnomalyUnavailable AnomalyStatus = "unavailable"
)

// AnomalyOutcome either carries an assessment or marks the inference service as
// unavailable. An unavailable outcome never carries an assessment.
type AnomalyOutcome struct {
	Status     AnomalyStatus      `json:"status"`
	Assessment *AnomalyAssessment `json:"assessment,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Assessed wraps a successful assessment.
func Assessed(a AnomalyAssessment) *AnomalyOutcome {
	return &AnomalyOutcome{Status: AnomalyAssessed, Assessment: &a}
}

// Unavailable is the marker returned in place of an assessment when inference fails.
func Unavailable() *AnomalyOutcome {
	return &AnomalyOutcome{Status: AnomalyUnavailable, Error: "Service Unavailable"}
}

// EnrichedRecord is the unit persisted and returned by the pipeline.
type EnrichedRecord struct {
	Position      PositionFix     `json:"position"`
	Weather       WeatherSnapshot `json:"weather"`
	Provenance    Provenance      `json:"provenance"`
	StatusMessage string          `json:"temperatureMessage"`

	// Origin and CachedAt are only set on cache hits.
	Origin   Provenance `json:"origin,omitempty"`
	CachedAt *time.Time `json:"cachedAt,omitempty"`

	Imagery []byte          `json:"satelliteImage,omitempty"`
	Anomaly *AnomalyOutcome `json:"anomaly,omitempty"`
}

// Persistable returns a copy without the per-request imagery and anomaly data.
func (r EnrichedRecord) Persistable() EnrichedRecord {
	r.Imagery = nil
	r.Anomaly = nil
	r.Origin = ""
	r.CachedAt = nil
	return r
}

// CacheEntry is a perishable cached record.
type CacheEntry struct {
	Record   EnrichedRecord `json:"record"`
	CachedAt time.Time      `json:"cachedAt"`
}

// Fresh reports whether the entry is still inside the freshness window at now.
func (e CacheEntry) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(e.CachedAt) < window
}

// HistoryEntry is one append-only record of a resolution that reached persistence.
type HistoryEntry struct {
	ID            string         `json:"id"`
	Record        EnrichedRecord `json:"record"`
	CreatedAt     time.Time      `json:"createdAt"`
	OriginMessage string         `json:"originMessage"`
}
