package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vessel_position"

// Metrics holds the Prometheus counters and histograms for the resolution pipeline.
type Metrics struct {
	Resolutions      *prometheus.CounterVec // labels: provenance={cache,live,degraded}
	ResolutionErrors *prometheus.CounterVec // labels: kind={not_found,no_position_data,canceled}
	ResolveDuration  prometheus.Histogram

	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,canceled,rate_limited,upstream_unavailable,invalid_response}
	ProviderDuration *prometheus.HistogramVec // labels: provider

	// Store metrics.
	CacheLookups        *prometheus.CounterVec // labels: result={hit,miss,error}
	PersistenceFailures *prometheus.CounterVec // labels: store={cache,history}

	AnomalyOutcomes *prometheus.CounterVec // labels: status={assessed,unavailable,skipped}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.Resolutions,
		m.ResolutionErrors,
		m.ResolveDuration,
		m.ProviderRequests,
		m.ProviderDuration,
		m.CacheLookups,
		m.PersistenceFailures,
		m.AnomalyOutcomes,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      help("Successful resolutions by provenance."),
		}, []string{"provenance"}),
		ResolutionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_errors_total",
			Help:      help("Failed resolutions by error kind."),
		}, []string{"kind"}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      help("End-to-end duration of a resolution."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      help("Upstream provider requests by provider and outcome."),
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      help("Upstream provider request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      help("Cache lookups by result."),
		}, []string{"result"}),
		PersistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      help("Failed cache or history writes."),
		}, []string{"store"}),
		AnomalyOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomaly_outcomes_total",
			Help:      help("Anomaly assessments by status."),
		}, []string{"status"}),
	}
}
