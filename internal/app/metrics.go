package app

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carries the service counters on a private registry so that
// multiple servers (tests included) never fight over collector names.
type Metrics struct {
	registry *prometheus.Registry

	FeedRequests   *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	UpstreamErrors prometheus.Counter
}

// NewMetrics creates and registers all service collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		FeedRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tsfeed_requests_total",
			Help: "Feed requests by HTTP status code.",
		}, []string{"status"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "tsfeed_cache_hits_total",
			Help: "Feed requests answered from the cache.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "tsfeed_cache_misses_total",
			Help: "Feed requests that triggered an assembly.",
		}),
		UpstreamErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tsfeed_upstream_errors_total",
			Help: "Feed builds aborted by an upstream failure.",
		}),
	}
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) countRequest(status int) {
	m.FeedRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}
