package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// Window metrics
	WindowsOpen prometheus.Gauge
	AppsRunning prometheus.Gauge

	// Launch metrics
	LaunchesTotal *prometheus.CounterVec
	AppUsage      *prometheus.CounterVec
	Prefetches    *prometheus.CounterVec

	// Lifecycle metrics
	LifecycleEvents *prometheus.CounterVec

	// Location metrics
	LocationSyncs       *prometheus.CounterVec
	RestorationFailures *prometheus.CounterVec

	// Session metrics
	PreferencesSaved  prometheus.Counter
	PreferencesErrors prometheus.Counter

	// Registry metrics
	RegistryApps prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
	stop      chan struct{}
	stopOnce  sync.Once

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	OpenWindows       int64   `json:"open_windows"`
	RunningApps       int64   `json:"running_apps"`
	TotalLaunches     int64   `json:"total_launches"`
	FailedLaunches    int64   `json:"failed_launches"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"total_duration_seconds"`
	RequestCount      int64   `json:"request_count"`
}

// NewMetrics creates a metrics collector backed by its own registry.
// A nil registry gets a fresh one, so several collectors can coexist in tests.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),
		stop:      make(chan struct{}),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webdesk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webdesk_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webdesk_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Service metrics
		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_service_calls_total",
				Help: "Total number of service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webdesk_service_duration_seconds",
				Help:    "Service call duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"service", "method"},
		),

		// Window metrics
		WindowsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdesk_windows_open",
				Help: "Number of open windows",
			},
		),
		AppsRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdesk_apps_running",
				Help: "Number of apps with at least one mounted window",
			},
		),

		// Launch metrics
		LaunchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_launches_total",
				Help: "Total number of app launches",
			},
			[]string{"app", "status"},
		),
		AppUsage: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_app_usage_total",
				Help: "Number of launches that opened a new window, per app",
			},
			[]string{"app"},
		),
		Prefetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_prefetches_total",
				Help: "Number of related apps warmed after a launch",
			},
			[]string{"app"},
		),

		// Lifecycle metrics
		LifecycleEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_lifecycle_events_total",
				Help: "Total number of lifecycle events emitted",
			},
			[]string{"type"},
		),

		// Location metrics
		LocationSyncs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_location_syncs_total",
				Help: "Total number of location synchronizations",
			},
			[]string{"direction"},
		),
		RestorationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_restoration_failures_total",
				Help: "Total number of failed location restorations",
			},
			[]string{"outcome"},
		),

		// Session metrics
		PreferencesSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webdesk_preferences_saved_total",
				Help: "Total number of preference snapshots written",
			},
		),
		PreferencesErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webdesk_preferences_errors_total",
				Help: "Total number of failed preference writes",
			},
		),

		// Registry metrics
		RegistryApps: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdesk_registry_apps",
				Help: "Number of apps in registry",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdesk_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webdesk_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webdesk_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// Registry exposes the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Close stops the uptime updater
func (m *Metrics) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		case <-m.stop:
			return
		}
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordServiceCall records a service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordLaunch records the outcome of an app launch
func (m *Metrics) RecordLaunch(appID string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.LaunchesTotal.WithLabelValues(appID, status).Inc()

	m.mu.Lock()
	m.snapshot.TotalLaunches++
	if !success {
		m.snapshot.FailedLaunches++
	}
	m.mu.Unlock()
}

// RecordAppUsage counts a launch that created a window
func (m *Metrics) RecordAppUsage(appID string) {
	m.AppUsage.WithLabelValues(appID).Inc()
}

// RecordPrefetch counts a related app warmed after launching appID
func (m *Metrics) RecordPrefetch(appID string) {
	m.Prefetches.WithLabelValues(appID).Inc()
}

// RecordLifecycleEvent counts an emitted lifecycle event
func (m *Metrics) RecordLifecycleEvent(eventType string) {
	m.LifecycleEvents.WithLabelValues(eventType).Inc()
}

// RecordLocationSync counts a synchronization in one direction
func (m *Metrics) RecordLocationSync(direction string) {
	m.LocationSyncs.WithLabelValues(direction).Inc()
}

// RecordRestorationFailure counts a failed restoration; outcome is "retry" or "abandoned"
func (m *Metrics) RecordRestorationFailure(outcome string) {
	m.RestorationFailures.WithLabelValues(outcome).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetWindowsOpen sets the number of open windows
func (m *Metrics) SetWindowsOpen(count int) {
	m.WindowsOpen.Set(float64(count))
	m.mu.Lock()
	m.snapshot.OpenWindows = int64(count)
	m.mu.Unlock()
}

// SetAppsRunning sets the number of running apps
func (m *Metrics) SetAppsRunning(count int) {
	m.AppsRunning.Set(float64(count))
	m.mu.Lock()
	m.snapshot.RunningApps = int64(count)
	m.mu.Unlock()
}

// IncPreferencesSaved increments the saved preferences counter
func (m *Metrics) IncPreferencesSaved() {
	m.PreferencesSaved.Inc()
}

// IncPreferencesErrors increments the failed preference writes counter
func (m *Metrics) IncPreferencesErrors() {
	m.PreferencesErrors.Inc()
}

// SetRegistryApps sets the number of apps in registry
func (m *Metrics) SetRegistryApps(count int) {
	m.RegistryApps.Set(float64(count))
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current metric values
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
