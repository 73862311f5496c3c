// Package metrics provides Prometheus metrics for the swing analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Analysis metrics
	analysesSubmitted prometheus.Counter
	analysesCompleted prometheus.Counter
	analysesFailed    *prometheus.CounterVec
	analysesDuplicate prometheus.Counter
	analysisLatency   prometheus.Histogram
	compositeScore    prometheus.Histogram
	eventsDetected    *prometheus.CounterVec
	lowConfidence     prometheus.Counter

	// Leaderboard metrics
	leaderboardUpdates prometheus.Counter
	totalPlayers       prometheus.Gauge
	storeLatency       *prometheus.HistogramVec

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueRejected    *prometheus.CounterVec

	// Worker metrics
	workerActive            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errors *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "swingscope",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.analysesSubmitted = m.counter("analyses_submitted_total", "Total number of swing analyses accepted")
	m.analysesCompleted = m.counter("analyses_completed_total", "Total number of swing analyses completed")
	m.analysesFailed = m.counterVec("analyses_failed_total", "Total number of swing analyses that failed", "reason")
	m.analysesDuplicate = m.counter("analyses_duplicate_total", "Total number of duplicate analysis submissions")
	m.analysisLatency = m.histogram("analysis_latency_milliseconds", "Segmentation and scoring latency in milliseconds", m.histogramBuckets)
	m.compositeScore = m.histogram("composite_score", "Distribution of composite swing scores", prometheus.LinearBuckets(10, 10, 10))
	m.eventsDetected = m.counterVec("events_detected_total", "Swing events detected per phase", "phase")
	m.lowConfidence = m.counter("low_confidence_total", "Sequences flagged as low confidence")

	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Total number of player best-score improvements")
	m.totalPlayers = m.gauge("total_players", "Players on the leaderboard")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Result store latency in milliseconds", "op")

	m.queueSize = m.gauge("queue_size", "Current size of the analysis queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the analysis queue")
	m.queueUtilization = m.gauge("queue_utilization", "Fraction of the analysis queue in use")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Analyses enqueued")
	m.queueRejected = m.counterVec("queue_rejected_total", "Analyses rejected by the queue", "reason")

	m.workerActive = m.gauge("worker_active", "Running analysis workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "End to end job latency in milliseconds", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errors = m.counterVec("errors_total", "Errors by component and type", "component", "type")
}

// RecordAnalysisSubmitted counts an accepted submission.
func RecordAnalysisSubmitted() { globalManager.analysesSubmitted.Inc() }

// RecordAnalysisDuplicate counts a duplicate submission.
func RecordAnalysisDuplicate() { globalManager.analysesDuplicate.Inc() }

// RecordAnalysisCompleted records a finished analysis with its latency and score.
func RecordAnalysisCompleted(latencyMs float64, score int) {
	globalManager.analysesCompleted.Inc()
	globalManager.analysisLatency.Observe(latencyMs)
	globalManager.compositeScore.Observe(float64(score))
}

// RecordAnalysisFailed counts a failed analysis.
func RecordAnalysisFailed(reason string) { globalManager.analysesFailed.WithLabelValues(reason).Inc() }

// RecordEventDetected counts a detected swing phase.
func RecordEventDetected(phase string) { globalManager.eventsDetected.WithLabelValues(phase).Inc() }

// RecordLowConfidence counts a low confidence sequence.
func RecordLowConfidence() { globalManager.lowConfidence.Inc() }

// RecordLeaderboardUpdate counts a best-score improvement.
func RecordLeaderboardUpdate() { globalManager.leaderboardUpdates.Inc() }

// UpdateTotalPlayers sets the number of ranked players.
func UpdateTotalPlayers(count int) { globalManager.totalPlayers.Set(float64(count)) }

// RecordStoreLatency observes a result store operation.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateQueueSize sets the current queue length and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueRejected counts a job the queue refused.
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// UpdateWorkerActive sets the running worker count.
func UpdateWorkerActive(count int) { globalManager.workerActive.Set(float64(count)) }

// RecordWorkerProcessingLatency observes one job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordHTTPRequest counts an HTTP request and observes its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordError counts an error by component and type.
func RecordError(component, errorType string) {
	globalManager.errors.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
