package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking. A nil collector
// turns every tracker into a no-op.
type HandlerMetrics struct {
	metrics *monitoring.Metrics
	started time.Time
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics, started: time.Now()}
}

func (hm *HandlerMetrics) track(service, operation string) func() {
	timer := monitoring.NewTimer(hm.metrics, service, operation)
	return func() { timer.Stop("success") }
}

// TrackRegistryOperation tracks app registry operations
func (hm *HandlerMetrics) TrackRegistryOperation(operation string) func() {
	return hm.track("app_registry", operation)
}

// TrackLaunchOperation tracks launcher operations
func (hm *HandlerMetrics) TrackLaunchOperation(operation string) func() {
	return hm.track("launcher", operation)
}

// TrackWindowOperation tracks window store operations
func (hm *HandlerMetrics) TrackWindowOperation(operation string) func() {
	return hm.track("window_store", operation)
}

// TrackLocationOperation tracks location sync operations
func (hm *HandlerMetrics) TrackLocationOperation(operation string) func() {
	return hm.track("location_sync", operation)
}

// TrackSessionOperation tracks session operations
func (hm *HandlerMetrics) TrackSessionOperation(operation string) func() {
	return hm.track("session_manager", operation)
}

// MetricsReport is the JSON form of the collector
type MetricsReport struct {
	Timestamp time.Time                  `json:"timestamp"`
	Backend   monitoring.MetricsSnapshot `json:"backend"`
	Summary   MetricsSummary             `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	ErrorRate         float64 `json:"error_rate"`
	ActiveConnections int64   `json:"active_connections"`
	LaunchFailureRate float64 `json:"launch_failure_rate"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Report builds a report from the current snapshot
func (hm *HandlerMetrics) Report() (MetricsReport, bool) {
	if hm.metrics == nil {
		return MetricsReport{}, false
	}
	snap := hm.metrics.Snapshot()

	summary := MetricsSummary{
		TotalRequests:     snap.TotalRequests,
		AverageLatencyMs:  snap.AverageLatency() * 1000,
		ActiveConnections: snap.ActiveConnections,
		UptimeSeconds:     time.Since(hm.started).Seconds(),
	}
	if snap.TotalRequests > 0 {
		summary.ErrorRate = float64(snap.TotalErrors) / float64(snap.TotalRequests)
	}
	if snap.TotalLaunches > 0 {
		summary.LaunchFailureRate = float64(snap.FailedLaunches) / float64(snap.TotalLaunches)
	}

	return MetricsReport{
		Timestamp: time.Now(),
		Backend:   snap,
		Summary:   summary,
	}, true
}

// PrometheusMetrics serves the exposition format
func (h *Handlers) PrometheusMetrics(c *gin.Context) {
	if h.metrics.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	h.metrics.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// MetricsJSON serves the collector as JSON
func (h *Handlers) MetricsJSON(c *gin.Context) {
	report, ok := h.metrics.Report()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, report)
}
