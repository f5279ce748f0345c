package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// location service.
type Metrics struct {
	FacilitiesFetched prometheus.Counter
	FetchErrors       prometheus.Counter
	RefreshDuration   prometheus.Histogram
	PipelineRunning   prometheus.Gauge

	// Facility snapshot gauges, updated after every refresh.
	FacilitiesTotal      prometheus.Gauge
	FacilitiesUnresolved prometheus.Gauge
	MarkersRendered      prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,empty,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Single-facility "locate" actions from the dashboard.
	LocateRequests *prometheus.CounterVec // labels: outcome={resolved,miss}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.FacilitiesFetched,
		m.FetchErrors,
		m.RefreshDuration,
		m.PipelineRunning,
		m.FacilitiesTotal,
		m.FacilitiesUnresolved,
		m.MarkersRendered,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.LocateRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FacilitiesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pkl_location",
			Name:      "facilities_fetched_total",
			Help:      "Total facility records fetched from the dashboard backend.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pkl_location",
			Name:      "fetch_errors_total",
			Help:      "Total facility list fetch failures.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pkl_location",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-enrich refresh cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pkl_location",
			Name:      "pipeline_running",
			Help:      "1 when the refresh pipeline is active, 0 when shut down.",
		}),
		FacilitiesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pkl_location",
			Name:      "facilities_total",
			Help:      "Facility records in the current snapshot.",
		}),
		FacilitiesUnresolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pkl_location",
			Name:      "facilities_unresolved",
			Help:      "Facilities in the current snapshot still lacking coordinates.",
		}),
		MarkersRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pkl_location",
			Name:      "markers_rendered",
			Help:      "Markers in the current map view model.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pkl_location",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pkl_location",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pkl_location",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pkl_location",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
		LocateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pkl_location",
			Name:      "locate_requests_total",
			Help:      "User-triggered single-facility lookups by outcome.",
		}, []string{"outcome"}),
	}
}
