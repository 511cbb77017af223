package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndependentRegistries(t *testing.T) {
	first := NewMetrics(nil)
	defer first.Close()
	second := NewMetrics(nil)
	defer second.Close()

	first.SetWindowsOpen(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(first.WindowsOpen))
	assert.Equal(t, float64(0), testutil.ToFloat64(second.WindowsOpen))
}

func TestRecordLaunch(t *testing.T) {
	m := NewMetrics(nil)
	defer m.Close()

	m.RecordLaunch("terminal", true)
	m.RecordLaunch("terminal", false)
	m.RecordLaunch("notes", true)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.LaunchesTotal.WithLabelValues("terminal", "failure")))
	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalLaunches)
	assert.Equal(t, int64(1), snap.FailedLaunches)
}

func TestHTTPSnapshot(t *testing.T) {
	m := NewMetrics(nil)
	defer m.Close()

	m.RecordHTTPRequest("GET", "/apps", "200", 10*time.Millisecond, 0, 100)
	m.RecordHTTPRequest("GET", "/apps/:id", "404", 30*time.Millisecond, 0, 20)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
	assert.InDelta(t, 0.02, snap.AverageLatency(), 0.0001)
	assert.Zero(t, MetricsSnapshot{}.AverageLatency())
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(nil)
	defer m.Close()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/windows/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/windows/win_abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/windows/:id", "200")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics(nil)
	defer m.Close()
	m.RecordLifecycleEvent("mount")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `webdesk_lifecycle_events_total{type="mount"} 1`)
}

func TestTimerWithoutMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		NewTimer(nil, "launcher", "launch").Stop("success")
	})
}
