// Package metrics provides Prometheus metrics for the skillbest service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// passBuckets covers the improvement loop bound for realistic competitor counts.
var passBuckets = []float64{1, 2, 3, 4, 5, 8, 13, 21, 34} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Ingestion
	sheetsIngested     prometheus.Counter
	sheetsDuplicate    prometheus.Counter
	scoringLatency     prometheus.Histogram
	leaderboardUpdates prometheus.Counter
	scoringErrors      prometheus.Counter
	leaderboardErrors  prometheus.Counter

	// Operational health
	queueSize        prometheus.Gauge
	workerCount      prometheus.Gauge
	totalCompetitors prometheus.Gauge

	// Queue
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Repository
	repositoryRecordsTotal  prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Assignment engine
	assignmentRuns      prometheus.Counter
	assignmentDuration  prometheus.Histogram
	assignmentPasses    prometheus.Histogram
	assignmentRollDowns prometheus.Counter
	assignmentSwaps     prometheus.Counter
	categoriesAssigned  prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillbest",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(auto promauto.Factory, name, help string) prometheus.Counter {
	return auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(auto promauto.Factory, name, help string) prometheus.Gauge {
	return auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(auto promauto.Factory, name, help string, buckets []float64) prometheus.Histogram {
	return auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) counterVec(auto promauto.Factory, name, help string, labels ...string) *prometheus.CounterVec {
	return auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.sheetsIngested = m.counter(auto, "sheets_ingested_total", "Total number of score sheets stored")
	m.sheetsDuplicate = m.counter(auto, "sheets_duplicate_total", "Total number of duplicate sheet submissions")
	m.scoringLatency = m.histogram(auto, "scoring_latency_milliseconds", "Sheet total computation latency in milliseconds", m.histogramBuckets)
	m.leaderboardUpdates = m.counter(auto, "leaderboard_updates_total", "Total number of leaderboard upserts")
	m.scoringErrors = m.counter(auto, "scoring_errors_total", "Total number of sheet scoring errors")
	m.leaderboardErrors = m.counter(auto, "leaderboard_errors_total", "Total number of leaderboard update errors")

	m.queueSize = m.gauge(auto, "queue_size", "Current size of the sheet queue")
	m.workerCount = m.gauge(auto, "worker_count", "Configured number of ingestion workers")
	m.totalCompetitors = m.gauge(auto, "total_competitors", "Number of competitors with a stored sheet")

	m.queueCapacity = m.gauge(auto, "queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge(auto, "queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueued = m.counter(auto, "queue_enqueue_total", "Total number of sheets enqueued")
	m.queueDequeued = m.counter(auto, "queue_dequeue_total", "Total number of sheets dequeued")
	m.queueEnqueueErrors = m.counter(auto, "queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.workerActiveCount = m.gauge(auto, "worker_active_count", "Number of running workers")
	m.workerProcessingLatency = m.histogram(auto, "worker_processing_latency_milliseconds", "Per-sheet worker processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter(auto, "worker_errors_total", "Total number of worker processing errors")

	m.repositoryRecordsTotal = m.gauge(auto, "repository_records_total", "Number of sheets held by the store")
	m.repositoryUpdateLatency = m.histogram(auto, "repository_update_latency_milliseconds", "Store upsert latency in milliseconds", m.histogramBuckets)
	m.repositoryQueryLatency = m.histogram(auto, "repository_query_latency_milliseconds", "Store query latency in milliseconds", m.histogramBuckets)

	m.assignmentRuns = m.counter(auto, "assignment_runs_total", "Total number of assignment engine runs")
	m.assignmentDuration = m.histogram(auto, "assignment_duration_milliseconds", "Assignment engine run duration in milliseconds", m.histogramBuckets)
	m.assignmentPasses = m.histogram(auto, "assignment_passes", "Improvement passes executed per engine run", passBuckets)
	m.assignmentRollDowns = m.counter(auto, "assignment_rolldowns_total", "Categories claimed during improvement passes")
	m.assignmentSwaps = m.counter(auto, "assignment_swaps_total", "Weakest-category upgrades performed")
	m.categoriesAssigned = m.gauge(auto, "categories_assigned", "Categories assigned by the last engine run")

	m.httpRequests = m.counterVec(auto, "http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec(auto, "errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByType = m.counterVec(auto, "errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec(auto, "errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")
	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "error_latency_milliseconds",
		Help:    "Latency of failed operations in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge(auto, "system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge(auto, "system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram(auto, "system_gc_pause_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets)
}

// RecordSheetIngested increments the stored sheets counter.
func RecordSheetIngested() { globalManager.sheetsIngested.Inc() }

// RecordSheetDuplicate increments the duplicate submissions counter.
func RecordSheetDuplicate() { globalManager.sheetsDuplicate.Inc() }

// RecordScoringLatency observes a sheet total computation.
func RecordScoringLatency(latencyMs float64) { globalManager.scoringLatency.Observe(latencyMs) }

// RecordLeaderboardUpdate increments the leaderboard upsert counter.
func RecordLeaderboardUpdate() { globalManager.leaderboardUpdates.Inc() }

// RecordScoringError increments the scoring error counter.
func RecordScoringError() { globalManager.scoringErrors.Inc() }

// RecordLeaderboardError increments the leaderboard error counter.
func RecordLeaderboardError() { globalManager.leaderboardErrors.Inc() }

// UpdateQueueSize sets the queue size gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateWorkerCount sets the worker count gauge.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateTotalCompetitors sets the stored competitors gauge.
func UpdateTotalCompetitors(count int) { globalManager.totalCompetitors.Set(float64(count)) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization gauge.
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }

// RecordQueueEnqueue increments the enqueued counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeued counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the rejected enqueue counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerActiveCount sets the running workers gauge.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// RecordWorkerProcessingLatency observes one processed sheet.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// UpdateRepositoryRecordsTotal sets the stored sheets gauge.
func UpdateRepositoryRecordsTotal(count int) { globalManager.repositoryRecordsTotal.Set(float64(count)) }

// RecordRepositoryUpdateLatency observes a store upsert.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency observes a store query.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordAssignmentRun records the outcome of one engine run.
func RecordAssignmentRun(durationMs float64, passes, rollDowns, swaps, assigned int) {
	globalManager.assignmentRuns.Inc()
	globalManager.assignmentDuration.Observe(durationMs)
	globalManager.assignmentPasses.Observe(float64(passes))
	globalManager.assignmentRollDowns.Add(float64(rollDowns))
	globalManager.assignmentSwaps.Add(float64(swaps))
	globalManager.categoriesAssigned.Set(float64(assigned))
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent increments the per-component error counter.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType increments the per-type error counter.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments the per-endpoint error counter.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency observes the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the allocated heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
