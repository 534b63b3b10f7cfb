package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting gateway metrics.
type Metrics struct {
	// RequestCounter tracks HTTP requests by route pattern and status.
	// Labels: route, status
	RequestCounter *prometheus.CounterVec

	// RequestDuration measures handler latency in seconds.
	// Labels: route
	RequestDuration *prometheus.HistogramVec

	// StoreQueryDuration measures document store call latency in seconds.
	// Labels: collection, operation (findOne|find|aggregate|count)
	StoreQueryDuration *prometheus.HistogramVec

	// StoreErrorCounter counts store faults surfaced to clients.
	// Labels: collection
	StoreErrorCounter *prometheus.CounterVec
}

// NewMetrics creates and registers all gateway metrics with the given
// registerer. Passing nil registers with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chaingate_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chaingate_http_request_duration_seconds",
			Help:    "HTTP handler latency.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route"}),

		StoreQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chaingate_store_query_duration_seconds",
			Help:    "Document store call latency.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}, []string{"collection", "operation"}),

		StoreErrorCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chaingate_store_errors_total",
			Help: "Store faults surfaced to clients.",
		}, []string{"collection"}),
	}
}
