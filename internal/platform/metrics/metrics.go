package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide HTTP metrics shared by all handlers.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	EndpointLatency *prometheus.HistogramVec
	InFlight        prometheus.Gauge
}

// New creates and registers all HTTP-level Prometheus metrics
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signet_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status code",
		}, []string{"endpoint", "status"}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signet_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		InFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "signet_http_requests_in_flight",
			Help: "Current number of in-flight HTTP requests",
		}),
	}
}

// IncrementRequests counts a completed request for an endpoint and status code.
func (m *Metrics) IncrementRequests(endpoint, status string) {
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

func (m *Metrics) IncrementInFlight() {
	m.InFlight.Inc()
}

func (m *Metrics) DecrementInFlight() {
	m.InFlight.Dec()
}
