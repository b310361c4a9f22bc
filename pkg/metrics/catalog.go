package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records outbound catalog API calls and query cache lookups.
type CatalogMetrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	cache    *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Duration of catalog API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_request_failures_total",
		Help: "Failed catalog API requests by failure kind.",
	}, []string{"operation", "kind"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog query cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(duration, failures, cache)
	return &CatalogMetrics{
		duration: duration,
		failures: failures,
		cache:    cache,
	}
}

// ObserveDuration records the duration for the named operation.
func (c *CatalogMetrics) ObserveDuration(operation string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncFailure increments the failure counter for the operation and failure kind.
func (c *CatalogMetrics) IncFailure(operation, kind string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(operation), normalizeLabel(kind)).Inc()
}

// IncCacheLookup counts a cache hit, miss or error.
func (c *CatalogMetrics) IncCacheLookup(result string) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
