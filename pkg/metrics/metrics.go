package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Search metrics
	SearchesTotal     *prometheus.CounterVec
	SearchDuration    *prometheus.HistogramVec
	SearchesInFlight  prometheus.Gauge
	SearchCacheLookup *prometheus.CounterVec

	// Normalization metrics
	NormalizeRows      *prometheus.CounterVec
	NormalizeDefaulted *prometheus.CounterVec

	// Backend API metrics
	BackendAPICalls    *prometheus.CounterVec
	BackendAPIDuration *prometheus.HistogramVec
	BackendAPIFailures *prometheus.CounterVec

	// Saved ads
	SavedAdOperations *prometheus.CounterVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ad_searches_total",
				Help: "Total number of ad searches",
			},
			[]string{"status", "stage"},
		),

		SearchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ad_search_duration_seconds",
				Help:    "Ad search duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"platform"},
		),

		SearchesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ad_searches_in_flight",
				Help: "Number of ad searches currently in progress",
			},
		),

		SearchCacheLookup: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ad_search_cache_lookups_total",
				Help: "Search result store lookups by outcome",
			},
			[]string{"outcome"},
		),

		NormalizeRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ad_normalize_rows_total",
				Help: "Raw rows seen by the ad normalizer",
			},
			[]string{"platform", "outcome"},
		),

		NormalizeDefaulted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ad_normalize_defaulted_fields_total",
				Help: "Fields resolved to their default value during normalization",
			},
			[]string{"platform", "field"},
		),

		BackendAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_api_calls_total",
				Help: "Total number of scraping backend calls",
			},
			[]string{"api", "status"},
		),

		BackendAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_api_duration_seconds",
				Help:    "Scraping backend call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"api"},
		),

		BackendAPIFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_api_failures_total",
				Help: "Total number of scraping backend failures",
			},
			[]string{"api", "error_type"},
		),

		SavedAdOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saved_ad_operations_total",
				Help: "Saved ad operations by kind and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *Metrics) RecordSearch(status, stage, platform string, duration time.Duration) {
	m.SearchesTotal.WithLabelValues(status, stage).Inc()
	m.SearchDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// outcome is hit, miss or stale
func (m *Metrics) RecordCacheLookup(outcome string) {
	m.SearchCacheLookup.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordNormalizedRows(platform string, normalized, dropped int) {
	m.NormalizeRows.WithLabelValues(platform, "normalized").Add(float64(normalized))
	m.NormalizeRows.WithLabelValues(platform, "dropped").Add(float64(dropped))
}

func (m *Metrics) RecordDefaultedField(platform, field string, count int) {
	m.NormalizeDefaulted.WithLabelValues(platform, field).Add(float64(count))
}

func (m *Metrics) RecordBackendAPICall(api, status string, duration time.Duration) {
	m.BackendAPICalls.WithLabelValues(api, status).Inc()
	m.BackendAPIDuration.WithLabelValues(api).Observe(duration.Seconds())
}

func (m *Metrics) RecordBackendAPIFailure(api, errorType string) {
	m.BackendAPIFailures.WithLabelValues(api, errorType).Inc()
}

func (m *Metrics) RecordSavedAdOperation(operation, outcome string) {
	m.SavedAdOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncSearchesInFlight() {
	m.SearchesInFlight.Inc()
}

func (m *Metrics) DecSearchesInFlight() {
	m.SearchesInFlight.Dec()
}

func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
