// Package metrics provides Prometheus metrics for the pitchcast prediction service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pitchcast service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Prediction metrics
	predictions       *prometheus.CounterVec
	predictionLatency *prometheus.HistogramVec
	predictionErrors  *prometheus.CounterVec
	disabledSports    prometheus.Gauge

	// Cache metrics
	cacheHits              *prometheus.CounterVec
	cacheMisses            *prometheus.CounterVec
	cacheEvictions         *prometheus.CounterVec
	cacheEntries           *prometheus.GaugeVec
	cacheIntegrityFailures *prometheus.CounterVec

	// Access and audit metrics
	accessDecisions *prometheus.CounterVec
	auditRecords    *prometheus.CounterVec

	// Hand-off metrics
	snapshots     *prometheus.CounterVec
	queueDepth    *prometheus.GaugeVec
	queueCapacity *prometheus.GaugeVec
	batchEntities *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Observer
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitchcast",
		subsystem:        "engine",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.predictions = m.counterVec("predictions_total",
		"Predictions served by kind, sport and source (computed or cached)", "kind", "sport", "source")
	m.predictionLatency = m.histogramVec("prediction_latency_milliseconds",
		"Time to serve a prediction in milliseconds", m.histogramBuckets, "kind")
	m.predictionErrors = m.counterVec("prediction_errors_total",
		"Prediction failures by kind and error type", "kind", "error_type")
	m.disabledSports = m.gauge("disabled_sports",
		"Number of sports disabled by profile validation")

	m.cacheHits = m.counterVec("cache_hits_total", "Cache hits by store", "store")
	m.cacheMisses = m.counterVec("cache_misses_total", "Cache misses by store", "store")
	m.cacheEvictions = m.counterVec("cache_evictions_total",
		"Cache entries removed by store and reason (capacity, expired, invalidated)", "store", "reason")
	m.cacheEntries = m.gaugeVec("cache_entries", "Current cache entries by store", "store")
	m.cacheIntegrityFailures = m.counterVec("cache_integrity_failures_total",
		"Cached values discarded by integrity checks", "store")

	m.accessDecisions = m.counterVec("access_decisions_total",
		"Access gate decisions by action and outcome", "action", "outcome")
	m.auditRecords = m.counterVec("audit_records_total",
		"Audit records by status (written, dropped)", "status")

	m.snapshots = m.counterVec("snapshots_total",
		"Prediction snapshots by status (published, dropped, failed)", "status")
	m.queueDepth = m.gaugeVec("queue_depth", "Current hand-off queue depth", "queue")
	m.queueCapacity = m.gaugeVec("queue_capacity", "Hand-off queue capacity", "queue")
	m.batchEntities = m.counterVec("batch_entities_total",
		"Entities processed by batch sweeps by status", "batch", "status")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogramVec("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}).WithLabelValues()
}

// RecordPrediction counts a served prediction.
func RecordPrediction(kind, sport string, cached bool) {
	source := "computed"
	if cached {
		source = "cached"
	}
	globalManager.predictions.WithLabelValues(kind, sport, source).Inc()
}

// RecordPredictionLatency records serve time in milliseconds.
func RecordPredictionLatency(kind string, latencyMs float64) {
	globalManager.predictionLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordPredictionError counts a failed prediction.
func RecordPredictionError(kind, errorType string) {
	globalManager.predictionErrors.WithLabelValues(kind, errorType).Inc()
}

// UpdateDisabledSports sets the number of disabled sports.
func UpdateDisabledSports(count int) {
	globalManager.disabledSports.Set(float64(count))
}

// RecordCacheHit counts a cache hit.
func RecordCacheHit(store string) {
	globalManager.cacheHits.WithLabelValues(store).Inc()
}

// RecordCacheMiss counts a cache miss.
func RecordCacheMiss(store string) {
	globalManager.cacheMisses.WithLabelValues(store).Inc()
}

// RecordCacheEvictions counts n removed entries.
func RecordCacheEvictions(store, reason string, n int) {
	if n <= 0 {
		return
	}
	globalManager.cacheEvictions.WithLabelValues(store, reason).Add(float64(n))
}

// UpdateCacheEntries sets the current entry count of a store.
func UpdateCacheEntries(store string, n int) {
	globalManager.cacheEntries.WithLabelValues(store).Set(float64(n))
}

// RecordCacheIntegrityFailure counts a discarded cached value.
func RecordCacheIntegrityFailure(store string) {
	globalManager.cacheIntegrityFailures.WithLabelValues(store).Inc()
}

// RecordAccessDecision counts a gate decision.
func RecordAccessDecision(action string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	globalManager.accessDecisions.WithLabelValues(action, outcome).Inc()
}

// RecordAuditRecord counts an audit record by status.
func RecordAuditRecord(status string) {
	globalManager.auditRecords.WithLabelValues(status).Inc()
}

// RecordSnapshot counts a snapshot hand-off by status.
func RecordSnapshot(status string) {
	globalManager.snapshots.WithLabelValues(status).Inc()
}

// UpdateQueueDepth sets the depth of a named queue.
func UpdateQueueDepth(queue string, depth int) {
	globalManager.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// UpdateQueueCapacity sets the capacity of a named queue.
func UpdateQueueCapacity(queue string, capacity int) {
	globalManager.queueCapacity.WithLabelValues(queue).Set(float64(capacity))
}

// RecordBatchEntity counts one entity processed by a batch sweep.
func RecordBatchEntity(batch string, ok bool) {
	status := "failed"
	if ok {
		status = "ok"
	}
	globalManager.batchEntities.WithLabelValues(batch, status).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method string, statusCode int) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method string, statusCode int, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Observe(durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
