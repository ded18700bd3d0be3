package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusExporter exports metrics to Prometheus format.
type PrometheusExporter struct {
	collector *Collector

	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	cacheHitRate     prometheus.Gauge
	cacheKeys        prometheus.Gauge
	cacheMemoryBytes prometheus.Gauge
	cacheEvictions   prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec
	traitUpdates     *prometheus.CounterVec
	schemaReloads    prometheus.Counter
}

// NewPrometheusExporter creates a new Prometheus exporter.
func NewPrometheusExporter(collector *Collector) *PrometheusExporter {
	return &PrometheusExporter{
		collector: collector,
		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dyntraits_read_cache_hits_total",
			Help: "Total number of cache hits for denormalized trait reads",
		}),
		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dyntraits_read_cache_misses_total",
			Help: "Total number of cache misses for denormalized trait reads",
		}),
		cacheHitRate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dyntraits_read_cache_hit_rate",
			Help: "Current read cache hit rate (0.0 to 1.0)",
		}),
		cacheKeys: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dyntraits_read_cache_keys_current",
			Help: "Current number of keys in the read cache",
		}),
		cacheMemoryBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dyntraits_read_cache_memory_bytes",
			Help: "Current memory usage of the read cache in bytes",
		}),
		cacheEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dyntraits_read_cache_evictions_total",
			Help: "Total number of cache evictions due to memory limits",
		}),
		httpRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dyntraits_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"operation"},
		),
		httpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dyntraits_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
			[]string{"operation"},
		),
		httpErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dyntraits_http_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"operation"},
		),
		traitUpdates: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dyntraits_trait_updates_total",
				Help: "Total number of trait value updates by event type",
			},
			[]string{"event_type"},
		),
		schemaReloads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dyntraits_schema_reloads_total",
			Help: "Total number of schema reloads (local and notified)",
		}),
	}
}

// Update updates Gauge metrics from the collector.
// Counters are updated via middleware, so only update gauges here.
// This should be called periodically (e.g., every 10 seconds).
func (e *PrometheusExporter) Update() {
	cacheMetrics := e.collector.GetCacheMetrics()
	e.cacheHitRate.Set(cacheMetrics.HitRate)
	e.cacheKeys.Set(float64(cacheMetrics.KeysCurrent))
	e.cacheMemoryBytes.Set(float64(cacheMetrics.MemoryBytes))
}

// RecordRequest records a request in Prometheus.
func (e *PrometheusExporter) RecordRequest(operation string) {
	e.httpRequests.WithLabelValues(operation).Inc()
}

// RecordDuration records a duration in Prometheus.
func (e *PrometheusExporter) RecordDuration(operation string, durationSeconds float64) {
	e.httpDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordError records an error in Prometheus.
func (e *PrometheusExporter) RecordError(operation string) {
	e.httpErrors.WithLabelValues(operation).Inc()
}

// RecordTraitUpdate records a committed trait update by event type.
func (e *PrometheusExporter) RecordTraitUpdate(eventType string) {
	e.traitUpdates.WithLabelValues(eventType).Inc()
}

// RecordSchemaReload records a schema reload.
func (e *PrometheusExporter) RecordSchemaReload() {
	e.schemaReloads.Inc()
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit() {
	e.cacheHits.Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss() {
	e.cacheMisses.Inc()
}

// RecordCacheEviction records a cache eviction.
func (e *PrometheusExporter) RecordCacheEviction() {
	e.cacheEvictions.Inc()
}
