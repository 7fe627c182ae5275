// Package metrics provides Prometheus metrics for the calgrid service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the calgrid service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Layout Metrics
	layoutsComputed  *prometheus.CounterVec
	layoutLatency    *prometheus.HistogramVec
	layoutErrors     prometheus.Counter
	eventsPositioned prometheus.Counter
	eventsSkipped    *prometheus.CounterVec
	occurrences      prometheus.Counter
	expansionCapped  prometheus.Counter

	// Store Metrics
	storeOps    *prometheus.CounterVec
	storeEvents prometheus.Gauge

	// ICS Sync Metrics
	icsSyncRuns     *prometheus.CounterVec
	icsImported     prometheus.Counter
	icsSyncDuration prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
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
		namespace:        "calgrid",
		subsystem:        "",
		histogramBuckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.layoutsComputed = auto.NewCounterVec(
		m.counterOpts("layouts_total", "Total number of layouts computed by view type"),
		[]string{"view"},
	)
	m.layoutLatency = auto.NewHistogramVec(
		m.histogramOpts("layout_latency_milliseconds", "Layout computation latency in milliseconds"),
		[]string{"view"},
	)
	m.layoutErrors = auto.NewCounter(m.counterOpts("layout_errors_total", "Total number of rejected layout requests"))
	m.eventsPositioned = auto.NewCounter(m.counterOpts("events_positioned_total", "Total number of events positioned"))
	m.eventsSkipped = auto.NewCounterVec(
		m.counterOpts("events_skipped_total", "Total number of events left out of a layout by reason"),
		[]string{"reason"},
	)
	m.occurrences = auto.NewCounter(m.counterOpts("occurrences_expanded_total", "Total number of occurrences generated from repeating events"))
	m.expansionCapped = auto.NewCounter(m.counterOpts("expansion_capped_total", "Total number of repeating events that hit the occurrence cap"))

	m.storeOps = auto.NewCounterVec(
		m.counterOpts("store_operations_total", "Total number of event store operations by operation and result"),
		[]string{"op", "result"},
	)
	m.storeEvents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_events",
		Help:        "Number of events currently stored",
		ConstLabels: m.constLabels,
	})

	m.icsSyncRuns = auto.NewCounterVec(
		m.counterOpts("ics_sync_total", "Total number of ICS source syncs by source and result"),
		[]string{"source", "result"},
	)
	m.icsImported = auto.NewCounter(m.counterOpts("ics_events_imported_total", "Total number of events imported from ICS feeds"))
	m.icsSyncDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ics_sync_duration_seconds",
		Help:        "Duration of a full ICS sync in seconds",
		ConstLabels: m.constLabels,
		Buckets:     prometheus.DefBuckets,
	})

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
}

// Layout Metrics.

// RecordLayout records a computed layout of the given view type.
func (m *Manager) RecordLayout(view string, latencyMs float64, positioned int) {
	m.layoutsComputed.WithLabelValues(view).Inc()
	m.layoutLatency.WithLabelValues(view).Observe(latencyMs)
	m.eventsPositioned.Add(float64(positioned))
}

// RecordLayoutError increments the rejected layout counter.
func (m *Manager) RecordLayoutError() { m.layoutErrors.Inc() }

// RecordEventSkipped increments the skipped counter for reason.
func (m *Manager) RecordEventSkipped(reason string) {
	m.eventsSkipped.WithLabelValues(reason).Inc()
}

// RecordExpansion records occurrences generated and events that hit the cap.
func (m *Manager) RecordExpansion(occurrences, capped int) {
	m.occurrences.Add(float64(occurrences))
	m.expansionCapped.Add(float64(capped))
}

// Store Metrics.

// RecordStoreOp counts one store operation; result is "ok" or an error kind.
func (m *Manager) RecordStoreOp(op, result string) {
	m.storeOps.WithLabelValues(op, result).Inc()
}

// UpdateStoreEvents sets the number of stored events.
func (m *Manager) UpdateStoreEvents(n int) { m.storeEvents.Set(float64(n)) }

// ICS Metrics.

// RecordICSSync counts one per-source sync attempt.
func (m *Manager) RecordICSSync(source, result string, imported int) {
	m.icsSyncRuns.WithLabelValues(source, result).Inc()
	m.icsImported.Add(float64(imported))
}

// RecordICSSyncDuration observes the duration of a full sync.
func (m *Manager) RecordICSSyncDuration(seconds float64) { m.icsSyncDuration.Observe(seconds) }

// HTTP Metrics.

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics.

// RecordErrorByComponent records an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Package-level helpers record on the global manager.

// RecordLayout records a computed layout on the global manager.
func RecordLayout(view string, latencyMs float64, positioned int) {
	globalManager.RecordLayout(view, latencyMs, positioned)
}

// RecordLayoutError increments the global rejected layout counter.
func RecordLayoutError() { globalManager.RecordLayoutError() }

// RecordEventSkipped increments the global skipped counter for reason.
func RecordEventSkipped(reason string) { globalManager.RecordEventSkipped(reason) }

// RecordExpansion records recurrence expansion on the global manager.
func RecordExpansion(occurrences, capped int) { globalManager.RecordExpansion(occurrences, capped) }

// RecordStoreOp counts one store operation on the global manager.
func RecordStoreOp(op, result string) { globalManager.RecordStoreOp(op, result) }

// UpdateStoreEvents sets the global stored events gauge.
func UpdateStoreEvents(n int) { globalManager.UpdateStoreEvents(n) }

// RecordICSSync counts one per-source sync attempt on the global manager.
func RecordICSSync(source, result string, imported int) {
	globalManager.RecordICSSync(source, result, imported)
}

// RecordICSSyncDuration observes a full sync duration on the global manager.
func RecordICSSyncDuration(seconds float64) { globalManager.RecordICSSyncDuration(seconds) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
