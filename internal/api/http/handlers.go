package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/lifecycle"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/location"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/registry"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/session"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/utils"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Deps are the components the handlers operate on. Session, Metrics and
// Tracer are optional.
type Deps struct {
	Apps      *registry.Manager
	Windows   *window.Store
	Viewport  *window.StaticViewport
	Lifecycle *lifecycle.Manager
	Launcher  *launcher.Launcher
	Location  *location.Service
	Session   *session.Manager
	Metrics   *monitoring.Metrics
	Tracer    *tracing.Tracer
	Logger    *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	apps      *registry.Manager
	windows   *window.Store
	viewport  *window.StaticViewport
	lifecycle *lifecycle.Manager
	launcher  *launcher.Launcher
	location  *location.Service
	session   *session.Manager
	metrics   *HandlerMetrics
	tracer    *tracing.Tracer
	hasher    *utils.Hasher
	logger    *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		apps:      deps.Apps,
		windows:   deps.Windows,
		viewport:  deps.Viewport,
		lifecycle: deps.Lifecycle,
		launcher:  deps.Launcher,
		location:  deps.Location,
		session:   deps.Session,
		metrics:   NewHandlerMetrics(deps.Metrics),
		tracer:    deps.Tracer,
		hasher:    utils.DefaultHasher(),
		logger:    logger,
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "WebDesk Service (Go)",
		"version": Version,
	})
}

// Health handles the detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"registry": h.apps.Stats(),
		"windows":  h.windows.Count(),
		"running":  len(h.lifecycle.RunningApps()),
		"location": h.location.Status(),
		"viewport": h.viewport.Viewport(),
	}
	if h.session != nil {
		body["session"] = h.session.Stats()
	}
	c.JSON(http.StatusOK, body)
}
