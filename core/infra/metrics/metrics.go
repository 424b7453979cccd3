package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// KVMetrics captures per-request measurements for the KV protocol surface.
type KVMetrics interface {
	ObserveKVRequest(operation, status string, latencySeconds float64)
	ObserveObjectSize(operation string, sizeBytes float64)
}

// HTTPMetrics captures request metrics for non-KV routes (admin, health).
type HTTPMetrics interface {
	ObserveRequest(method, route, status string, durationSeconds float64)
}

// Noop implements both interfaces without emitting anything.
type Noop struct{}

func (Noop) ObserveKVRequest(string, string, float64)       {}
func (Noop) ObserveObjectSize(string, float64)              {}
func (Noop) ObserveRequest(string, string, string, float64) {}

// Prom implements KVMetrics and HTTPMetrics backed by Prometheus.
type Prom struct {
	kvRequests   *prometheus.CounterVec
	kvLatency    *prometheus.HistogramVec
	objectSize   *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewProm constructs metrics registered on the default registerer.
func NewProm(namespace string) *Prom {
	return NewPromWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewPromWithRegisterer constructs metrics on an explicit registerer.
func NewPromWithRegisterer(namespace string, reg prometheus.Registerer) *Prom {
	p := &Prom{
		kvRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kv_requests_total",
			Help:      "KV requests by operation and status code",
		}, []string{"operation", "status"}),
		kvLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kv_request_duration_seconds",
			Help:      "KV request latency by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		objectSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kv_object_size_bytes",
			Help:      "Object sizes observed per operation",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(p.kvRequests, p.kvLatency, p.objectSize, p.httpRequests, p.httpLatency)
	return p
}

func (p *Prom) ObserveKVRequest(operation, status string, latencySeconds float64) {
	p.kvRequests.WithLabelValues(operation, status).Inc()
	p.kvLatency.WithLabelValues(operation).Observe(latencySeconds)
}

func (p *Prom) ObserveObjectSize(operation string, sizeBytes float64) {
	p.objectSize.WithLabelValues(operation).Observe(sizeBytes)
}

func (p *Prom) ObserveRequest(method, route, status string, durationSeconds float64) {
	p.httpRequests.WithLabelValues(method, route, status).Inc()
	p.httpLatency.WithLabelValues(method, route).Observe(durationSeconds)
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
