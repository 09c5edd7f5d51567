// Package metrics provides Prometheus metrics for the rate-oracle service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PriceQueriesTotal counts price computations by outcome.
	PriceQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_price_queries_total",
			Help: "Total number of oracle price computations",
		},
		[]string{"status"},
	)

	// PriceQueryDuration observes the latency of a full price computation,
	// including all on-chain reads.
	PriceQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oracle_price_query_duration_seconds",
			Help:    "Duration of oracle price computations",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// CollaboratorReadErrorsTotal counts failed reads against external
	// feeds and converters.
	CollaboratorReadErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_collaborator_read_errors_total",
			Help: "Total number of failed feed/converter reads",
		},
		[]string{"collaborator"},
	)

	// ScaleFactorDigits exposes the decimal digit count of the derived
	// scale factor, set once at construction.
	ScaleFactorDigits = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "oracle_scale_factor_digits",
			Help: "Number of decimal digits of the derived scale factor",
		},
	)

	// HTTPRequestsTotal counts HTTP requests by endpoint and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration observes HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		PriceQueriesTotal,
		PriceQueryDuration,
		CollaboratorReadErrorsTotal,
		ScaleFactorDigits,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address.
func ServeHTTP(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordPriceQuery records one price computation.
func RecordPriceQuery(status string, duration time.Duration) {
	PriceQueriesTotal.WithLabelValues(status).Inc()
	PriceQueryDuration.Observe(duration.Seconds())
}

// RecordCollaboratorError records a failed external read.
func RecordCollaboratorError(collaborator string) {
	CollaboratorReadErrorsTotal.WithLabelValues(collaborator).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
