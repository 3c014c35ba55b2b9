package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the learning service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Learning engine
	feedbackEvents        *prometheus.CounterVec
	learnLatency          prometheus.Histogram
	complexityLevel       prometheus.Gauge
	overallMastery        prometheus.Gauge
	categoryMastery       *prometheus.GaugeVec
	knownIngredients      prometheus.Gauge
	knownTechniques       prometheus.Gauge
	knownCombinations     prometheus.Gauge
	successfulInnovations prometheus.Gauge

	// Persistence
	snapshotSaves       *prometheus.CounterVec
	snapshotSaveLatency prometheus.Histogram
	snapshotVersion     prometheus.Gauge
	snapshotLastUnix    prometheus.Gauge
	archiveWrites       *prometheus.CounterVec

	// Persist queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Persist workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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
		namespace:        "chef",
		subsystem:        "learning",
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

func (m *Manager) opts(name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) counter(auto promauto.Factory, name, help string) prometheus.Counter {
	return auto.NewCounter(prometheus.CounterOpts(m.opts(name, help)))
}

func (m *Manager) gauge(auto promauto.Factory, name, help string) prometheus.Gauge {
	return auto.NewGauge(prometheus.GaugeOpts(m.opts(name, help)))
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.feedbackEvents = auto.NewCounterVec(
		prometheus.CounterOpts(m.opts("feedback_events_total", "Feedback events by outcome (accepted, invalid, duplicate)")),
		[]string{"outcome"},
	)
	m.learnLatency = auto.NewHistogram(m.histogramOpts(
		"learn_latency_milliseconds", "Time spent applying one feedback event to the engine",
		[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	))
	m.complexityLevel = m.gauge(auto, "complexity_level", "Current complexity level (0-100)")
	m.overallMastery = m.gauge(auto, "mastery_overall", "Mean mastery across all categories")
	m.categoryMastery = auto.NewGaugeVec(
		prometheus.GaugeOpts(m.opts("mastery_category", "Mastery value per skill category")),
		[]string{"category"},
	)
	m.knownIngredients = m.gauge(auto, "known_ingredients", "Ingredients present in the compatibility matrix")
	m.knownTechniques = m.gauge(auto, "known_techniques", "Techniques with a recorded proficiency")
	m.knownCombinations = m.gauge(auto, "known_combinations", "Distinct ingredient/technique combinations attempted")
	m.successfulInnovations = m.gauge(auto, "successful_innovations", "Novel ingredient sets that earned a perfect rating")

	m.snapshotSaves = auto.NewCounterVec(
		prometheus.CounterOpts(m.opts("snapshot_saves_total", "Snapshot save attempts by result (saved, stale, error)")),
		[]string{"result"},
	)
	m.snapshotSaveLatency = auto.NewHistogram(m.histogramOpts(
		"snapshot_save_latency_milliseconds", "Snapshot save latency in milliseconds", m.histogramBuckets,
	))
	m.snapshotVersion = m.gauge(auto, "snapshot_version", "Version of the last snapshot written")
	m.snapshotLastUnix = m.gauge(auto, "snapshot_last_unix", "Unix time of the last snapshot written")
	m.archiveWrites = auto.NewCounterVec(
		prometheus.CounterOpts(m.opts("archive_writes_total", "Archive writes by result (ok, error, rejected)")),
		[]string{"result"},
	)

	m.queueSize = m.gauge(auto, "persist_queue_size", "Current number of pending persistence jobs")
	m.queueCapacity = m.gauge(auto, "persist_queue_capacity", "Maximum number of pending persistence jobs")
	m.queueUtilization = m.gauge(auto, "persist_queue_utilization", "Persist queue fill ratio (0-1)")
	m.queueEnqueued = m.counter(auto, "persist_queue_enqueued_total", "Jobs enqueued")
	m.queueDequeued = m.counter(auto, "persist_queue_dequeued_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counter(auto, "persist_queue_enqueue_errors_total", "Jobs rejected by the queue")
	m.queueProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"persist_queue_latency_milliseconds", "Time a job spent waiting in the queue", m.histogramBuckets,
	))

	m.workerActiveCount = m.gauge(auto, "persist_workers_active", "Running persistence workers")
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"persist_worker_latency_milliseconds", "Time a worker spent on one job", m.histogramBuckets,
	))
	m.workerErrors = m.counter(auto, "persist_worker_errors_total", "Jobs that failed in a worker")

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts(m.opts("http_requests_total", "Total number of HTTP requests by endpoint and method")),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts(m.opts("errors_by_component_total", "Total number of errors by component")),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts(m.opts("errors_by_type_total", "Total number of errors by type")),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts(m.opts("errors_by_endpoint_total", "Total number of errors by endpoint")),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = m.gauge(auto, "system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge(auto, "system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// Feedback outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
)

// RecordFeedback counts a feedback event by outcome.
func RecordFeedback(outcome string) {
	globalManager.feedbackEvents.WithLabelValues(outcome).Inc()
}

// RecordLearnLatency records how long one learn call held the engine.
func RecordLearnLatency(latencyMs float64) {
	globalManager.learnLatency.Observe(latencyMs)
}

// UpdateComplexityLevel sets the complexity level gauge.
func UpdateComplexityLevel(level int) {
	globalManager.complexityLevel.Set(float64(level))
}

// UpdateMastery sets the overall and per-category mastery gauges.
func UpdateMastery(overall float64, categories map[string]float64) {
	globalManager.overallMastery.Set(overall)
	for name, v := range categories {
		globalManager.categoryMastery.WithLabelValues(name).Set(v)
	}
}

// UpdateKnowledge sets the known-entity gauges.
func UpdateKnowledge(ingredients, techniques, combinations, innovations int) {
	globalManager.knownIngredients.Set(float64(ingredients))
	globalManager.knownTechniques.Set(float64(techniques))
	globalManager.knownCombinations.Set(float64(combinations))
	globalManager.successfulInnovations.Set(float64(innovations))
}

// Snapshot save results.
const (
	SnapshotSaved = "saved"
	SnapshotStale = "stale"
	SnapshotError = "error"
)

// RecordSnapshotSave records one snapshot save attempt.
func RecordSnapshotSave(result string, latencyMs float64) {
	globalManager.snapshotSaves.WithLabelValues(result).Inc()
	if result == SnapshotSaved {
		globalManager.snapshotSaveLatency.Observe(latencyMs)
	}
}

// UpdateSnapshotWritten marks the version and time of the last written snapshot.
func UpdateSnapshotWritten(version uint64, unix int64) {
	globalManager.snapshotVersion.Set(float64(version))
	globalManager.snapshotLastUnix.Set(float64(unix))
}

// RecordArchiveWrite counts an archive write by result.
func RecordArchiveWrite(result string) {
	globalManager.archiveWrites.WithLabelValues(result).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records how long a job waited in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
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
