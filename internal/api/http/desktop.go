package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/domain/location"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/utils"
)

var errInvalidLimit = errors.New("limit must be a non-negative integer")

// RunningApps lists apps with at least one mounted window
func (h *Handlers) RunningApps(c *gin.Context) {
	if appID := c.Query("app_id"); appID != "" {
		state, ok := h.lifecycle.AppState(appID)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"app_id": appID, "running": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"app_id": appID, "running": true, "state": state})
		return
	}
	c.JSON(http.StatusOK, gin.H{"apps": h.lifecycle.RunningApps()})
}

// EventHistory returns recent lifecycle events, oldest first. limit keeps
// only the newest n.
func (h *Handlers) EventHistory(c *gin.Context) {
	events := h.lifecycle.EventHistory()
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, errInvalidLimit)
			return
		}
		if n < len(events) {
			events = events[len(events)-n:]
		}
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// ClearEventHistory drops the event history
func (h *Handlers) ClearEventHistory(c *gin.Context) {
	h.lifecycle.ClearEventHistory()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Navigate reconciles an external navigation event into the window store
func (h *Handlers) Navigate(c *gin.Context) {
	defer h.metrics.TrackLocationOperation("navigate")()

	var req types.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateLocation(req.URL); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.navigate(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.Warn("Navigation failed", zap.String("url", req.URL), zap.Error(err))
		c.JSON(statusFor(err), gin.H{
			"error":    err.Error(),
			"result":   result,
			"location": h.location.Current(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":   result,
		"location": h.location.Current(),
	})
}

func (h *Handlers) navigate(ctx context.Context, url string) (location.Result, error) {
	if h.tracer == nil {
		return h.location.HandleNavigation(ctx, url)
	}

	span, ctx := h.tracer.StartSpan(ctx, "location.navigate")
	defer func() {
		span.Finish()
		h.tracer.Submit(span)
	}()
	span.SetTag("url", url)

	result, err := h.location.HandleNavigation(ctx, url)
	span.SetTag("action", string(result.Action))
	if err != nil {
		span.SetError(err)
	}
	return result, err
}

// Location reports the current derived location
func (h *Handlers) Location(c *gin.Context) {
	c.JSON(http.StatusOK, h.location.Status())
}

// SessionStats reports saved positions and autosave timers
func (h *Handlers) SessionStats(c *gin.Context) {
	if h.session == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session persistence disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":       h.session.Stats(),
		"preferences": h.session.Preferences(),
	})
}

// SaveSession persists window preferences now
func (h *Handlers) SaveSession(c *gin.Context) {
	defer h.metrics.TrackSessionOperation("save")()

	if h.session == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session persistence disabled"})
		return
	}
	if err := h.session.Save(c.Request.Context()); err != nil {
		h.logger.Error("Failed to save preferences", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": h.session.Stats()})
}
