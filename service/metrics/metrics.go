package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Helius API metrics
	heliusAPICallsTotal       *prometheus.CounterVec
	heliusAPICallDuration     *prometheus.HistogramVec
	heliusTransactionsPerCall prometheus.Histogram

	// Classification metrics
	tradesClassifiedTotal *prometheus.CounterVec
	tradesSkippedTotal    *prometheus.CounterVec
	batchDuration         *prometheus.HistogramVec

	// HTTP metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	cacheLookupsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		heliusAPICallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helius_api_calls_total",
				Help: "Total number of Helius API calls by method and status",
			},
			[]string{"method", "status"},
		),
		heliusAPICallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "helius_api_call_duration_seconds",
				Help:    "Duration of Helius API calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),
		heliusTransactionsPerCall: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "helius_transactions_per_fetch",
				Help:    "Number of raw transactions returned per fetch",
				Buckets: []float64{1, 10, 50, 100, 250, 500, 1000},
			},
		),
		tradesClassifiedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trades_classified_total",
				Help: "Total number of trades classified by direction",
			},
			[]string{"fee_payer", "direction"},
		),
		tradesSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trades_skipped_total",
				Help: "Total number of raw transactions skipped during classification",
			},
			[]string{"fee_payer", "reason"},
		),
		batchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classification_batch_duration_seconds",
				Help:    "Duration of batch classification in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		cacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "result_cache_lookups_total",
				Help: "Total number of classified-result cache lookups",
			},
			[]string{"handler", "outcome"},
		),
	}
}

// Helius API metric helpers

// RecordAPICall records a Helius API call with duration.
func (m *Metrics) RecordAPICall(method, status string, duration float64) {
	m.heliusAPICallsTotal.WithLabelValues(method, status).Inc()
	m.heliusAPICallDuration.WithLabelValues(method).Observe(duration)
}

// RecordTransactionsPerFetch records the number of raw transactions returned.
func (m *Metrics) RecordTransactionsPerFetch(count float64) {
	m.heliusTransactionsPerCall.Observe(count)
}

// Classification metric helpers

// RecordTradeClassified records a successful classification.
func (m *Metrics) RecordTradeClassified(feePayer, direction string) {
	m.tradesClassifiedTotal.WithLabelValues(feePayer, direction).Inc()
}

// RecordTradeSkipped records a raw transaction skipped during a batch.
func (m *Metrics) RecordTradeSkipped(feePayer, reason string) {
	m.tradesSkippedTotal.WithLabelValues(feePayer, reason).Inc()
}

// RecordBatch records a batch run with duration.
func (m *Metrics) RecordBatch(status string, duration float64) {
	m.batchDuration.WithLabelValues(status).Observe(duration)
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// RecordCacheLookup records a hit or miss on the classified-result cache.
func (m *Metrics) RecordCacheLookup(handler string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(handler, outcome).Inc()
}

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
