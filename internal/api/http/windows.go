package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/utils"
)

// ListWindows returns every window together with the z-order
func (h *Handlers) ListWindows(c *gin.Context) {
	if appID := c.Query("app_id"); appID != "" {
		if err := utils.ValidateID(appID, "app_id", true); err != nil {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"windows": h.windows.WindowsByApp(appID)})
		return
	}

	body := gin.H{
		"windows": h.windows.List(),
		"z_order": h.windows.ZOrder(),
	}
	if focused, ok := h.windows.Focused(); ok {
		body["focused"] = focused.ID
	}
	c.JSON(http.StatusOK, body)
}

// GetWindow returns one window
func (h *Handlers) GetWindow(c *gin.Context) {
	windowID, ok := h.windowParam(c)
	if !ok {
		return
	}
	win, found := h.windows.Get(windowID)
	if !found {
		windowNotFound(c, windowID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": win})
}

// FocusWindow brings a window to the front
func (h *Handlers) FocusWindow(c *gin.Context) {
	defer h.metrics.TrackWindowOperation("focus")()

	windowID, ok := h.windowParam(c)
	if !ok {
		return
	}
	if !h.windows.Has(windowID) {
		windowNotFound(c, windowID)
		return
	}
	h.launcher.FocusApp(windowID)
	h.respondWindow(c, windowID)
}

// MinimizeWindow hides a window in the taskbar
func (h *Handlers) MinimizeWindow(c *gin.Context) {
	defer h.metrics.TrackWindowOperation("minimize")()
	h.windowAction(c, h.launcher.MinimizeApp)
}

// RestoreWindow un-minimizes a window
func (h *Handlers) RestoreWindow(c *gin.Context) {
	defer h.metrics.TrackWindowOperation("restore")()
	h.windowAction(c, h.launcher.RestoreApp)
}

// MaximizeWindow toggles the maximized state of a window
func (h *Handlers) MaximizeWindow(c *gin.Context) {
	defer h.metrics.TrackWindowOperation("maximize")()
	h.windowAction(c, h.launcher.MaximizeApp)
}

// SnapWindow docks a window to a screen edge
func (h *Handlers) SnapWindow(c *gin.Context) {
	defer h.metrics.TrackWindowOperation("snap")()

	windowID, ok := h.windowParam(c)
	if !ok {
		return
	}
	var req types.SnapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	switch req.Position {
	case types.SnapLeft, types.SnapRight, types.SnapFull:
	default:
		badRequest(c, fmt.Errorf("unknown snap position %q", req.Position))
		return
	}
	if err := h.launcher.SnapApp(windowID, req.Position); err != nil {
		respondError(c, err)
		return
	}
	h.respondWindow(c, windowID)
}

// UpdateBounds moves or resizes a window. Only the given fields change.
func (h *Handlers) UpdateBounds(c *gin.Context) {
	defer h.metrics.TrackWindowOperation("bounds")()

	windowID, ok := h.windowParam(c)
	if !ok {
		return
	}
	var partial types.PartialBounds
	if err := c.ShouldBindJSON(&partial); err != nil {
		badRequest(c, err)
		return
	}
	if (partial.W != nil && *partial.W <= 0) || (partial.H != nil && *partial.H <= 0) {
		respondError(c, fmt.Errorf("window %s: %w", windowID, types.ErrInvalidBounds))
		return
	}
	if !h.windows.UpdateWindowBounds(windowID, partial) {
		windowNotFound(c, windowID)
		return
	}
	h.respondWindow(c, windowID)
}

// CloseWindow asks a window's app to close; force=true skips its veto
func (h *Handlers) CloseWindow(c *gin.Context) {
	defer h.metrics.TrackWindowOperation("close")()

	windowID, ok := h.windowParam(c)
	if !ok {
		return
	}
	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, fmt.Errorf("force: %w", err))
			return
		}
		force = parsed
	}
	if !h.windows.Has(windowID) {
		windowNotFound(c, windowID)
		return
	}

	if !h.launcher.CloseApp(c.Request.Context(), windowID, force) {
		c.JSON(http.StatusConflict, gin.H{
			"closed":    false,
			"window_id": windowID,
			"error":     "close vetoed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": true, "window_id": windowID})
}

// SetViewport resizes the desktop and pulls windows back into view
func (h *Handlers) SetViewport(c *gin.Context) {
	var vp types.Viewport
	if err := c.ShouldBindJSON(&vp); err != nil {
		badRequest(c, err)
		return
	}
	if vp.Width <= 0 || vp.Height <= 0 || vp.TaskbarHeight < 0 || vp.TaskbarHeight >= vp.Height {
		badRequest(c, fmt.Errorf("viewport %dx%d (taskbar %d): %w",
			vp.Width, vp.Height, vp.TaskbarHeight, types.ErrInvalidBounds))
		return
	}

	h.viewport.Set(vp)
	moved := h.windows.ClampToViewport()
	c.JSON(http.StatusOK, gin.H{"viewport": vp, "adjusted": moved})
}

func (h *Handlers) windowParam(c *gin.Context) (string, bool) {
	windowID := c.Param("id")
	if err := utils.ValidateID(windowID, "window_id", true); err != nil {
		badRequest(c, err)
		return "", false
	}
	return windowID, true
}

func (h *Handlers) windowAction(c *gin.Context, action func(string) bool) {
	windowID, ok := h.windowParam(c)
	if !ok {
		return
	}
	if !h.windows.Has(windowID) {
		windowNotFound(c, windowID)
		return
	}
	// Existing windows only refuse when the app forbids the change
	if !action(windowID) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "operation not permitted for this app",
			"window_id": windowID,
		})
		return
	}
	h.respondWindow(c, windowID)
}

func (h *Handlers) respondWindow(c *gin.Context, windowID string) {
	win, ok := h.windows.Get(windowID)
	if !ok {
		windowNotFound(c, windowID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": win})
}
