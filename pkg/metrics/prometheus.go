// Package metrics provides Prometheus metrics for the gridiron prediction service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Model metrics
	predictions      prometheus.Counter
	predictionErrors *prometheus.CounterVec
	ratingsLoaded    prometheus.Gauge
	ratedTeams       prometheus.Gauge

	// Tuning metrics
	tuningRuns      *prometheus.CounterVec
	tuningDuration  *prometheus.HistogramVec
	tuningBestScore prometheus.Gauge
	tuningTrials    prometheus.Counter
	tasksInFlight   prometheus.Gauge
	gamesReplayed   prometheus.Counter

	// Roster metrics
	rosterComputations prometheus.Counter
	malformedRows      *prometheus.CounterVec

	// Data access metrics
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	fetchErrors  *prometheus.CounterVec
	fetchRetries prometheus.Counter

	// Queue metrics
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueue  prometheus.Counter
	queueRejected prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of /metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gridiron",
		subsystem:        "model",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus collectors.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.predictions = m.counter("predictions_total", "Total number of successful matchup predictions")
	m.predictionErrors = m.counterVec("prediction_errors_total", "Failed predictions by reason", "reason")
	m.ratingsLoaded = m.gauge("ratings_loaded", "1 when a rating snapshot is installed, 0 otherwise")
	m.ratedTeams = m.gauge("rated_teams", "Number of teams in the installed rating snapshot")

	m.tuningRuns = m.counterVec("tuning_runs_total", "Tuning runs by mode and final status", "mode", "status")
	m.tuningDuration = m.histogramVec("tuning_duration_seconds", "Wall time of tuning runs",
		[]float64{1, 2.5, 5, 10, 20, 40, 80, 160}, "mode")
	m.tuningBestScore = m.gauge("tuning_best_score", "Validation score of the installed configuration (lower is better)")
	m.tuningTrials = m.counter("tuning_trials_total", "Total tuning trials evaluated")
	m.tasksInFlight = m.gauge("tuning_tasks_in_flight", "Tuning tasks pending or running")
	m.gamesReplayed = m.counter("games_replayed_total", "Games replayed through the rating update rule")

	m.rosterComputations = m.counter("roster_strength_computations_total", "Roster strength computations")
	m.malformedRows = m.counterVec("malformed_rows_total", "Rows skipped during parsing or aggregation", "table", "reason")

	m.cacheHits = m.counterVec("cache_hits_total", "Table cache hits by kind", "kind")
	m.cacheMisses = m.counterVec("cache_misses_total", "Table cache misses by kind", "kind")
	m.fetchLatency = m.histogramVec("fetch_latency_milliseconds", "Upstream download latency",
		[]float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}, "kind")
	m.fetchErrors = m.counterVec("fetch_errors_total", "Upstream download failures by kind", "kind")
	m.fetchRetries = m.counter("fetch_retries_total", "Download retry attempts")

	m.queueSize = m.gauge("queue_size", "Tuning jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Tuning queue capacity")
	m.queueEnqueue = m.counter("queue_enqueued_total", "Tuning jobs accepted by the queue")
	m.queueRejected = m.counter("queue_rejected_total", "Tuning jobs rejected by the queue")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_milliseconds",
		Help:        "Average GC pause time",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

// Model metrics.

// RecordPrediction counts a successful prediction.
func RecordPrediction() { globalManager.predictions.Inc() }

// RecordPredictionError counts a failed prediction.
func RecordPredictionError(reason string) {
	globalManager.predictionErrors.WithLabelValues(reason).Inc()
}

// UpdateRatingsLoaded reports whether a rating snapshot is installed and how many teams it rates.
func UpdateRatingsLoaded(loaded bool, teams int) {
	v := 0.0
	if loaded {
		v = 1
	}
	globalManager.ratingsLoaded.Set(v)
	globalManager.ratedTeams.Set(float64(teams))
}

// Tuning metrics.

// RecordTuningRun counts a finished tuning run and observes its duration.
func RecordTuningRun(mode, status string, elapsed time.Duration) {
	globalManager.tuningRuns.WithLabelValues(mode, status).Inc()
	globalManager.tuningDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// UpdateTuningBestScore sets the score of the installed configuration.
func UpdateTuningBestScore(score float64) { globalManager.tuningBestScore.Set(score) }

// RecordTuningTrial counts one evaluated trial.
func RecordTuningTrial() { globalManager.tuningTrials.Inc() }

// UpdateTasksInFlight sets the number of pending or running tuning tasks.
func UpdateTasksInFlight(n int) { globalManager.tasksInFlight.Set(float64(n)) }

// RecordGamesReplayed adds to the replayed games counter.
func RecordGamesReplayed(n int) { globalManager.gamesReplayed.Add(float64(n)) }

// Roster metrics.

// RecordRosterComputation counts one roster strength computation.
func RecordRosterComputation() { globalManager.rosterComputations.Inc() }

// RecordMalformedRows adds skipped rows for a table and reason.
func RecordMalformedRows(table, reason string, n int) {
	if n <= 0 {
		return
	}
	globalManager.malformedRows.WithLabelValues(table, reason).Add(float64(n))
}

// Data access metrics.

// RecordCacheHit counts a cache hit for a table kind.
func RecordCacheHit(kind string) { globalManager.cacheHits.WithLabelValues(kind).Inc() }

// RecordCacheMiss counts a cache miss for a table kind.
func RecordCacheMiss(kind string) { globalManager.cacheMisses.WithLabelValues(kind).Inc() }

// RecordFetchLatency observes an upstream download.
func RecordFetchLatency(kind string, latencyMs float64) {
	globalManager.fetchLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordFetchError counts a failed download.
func RecordFetchError(kind string) { globalManager.fetchErrors.WithLabelValues(kind).Inc() }

// RecordFetchRetry counts a retry attempt.
func RecordFetchRetry() { globalManager.fetchRetries.Inc() }

// Queue metrics.

// UpdateQueueSize sets the number of waiting jobs.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() { globalManager.queueEnqueue.Inc() }

// RecordQueueRejected counts a rejected job.
func RecordQueueRejected() { globalManager.queueRejected.Inc() }

// HTTP metrics.

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

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

// System metrics.

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
