package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/utils"
)

// ListApps lists the registered applications. The response carries an ETag
// so the desktop shell can revalidate its icon grid cheaply.
func (h *Handlers) ListApps(c *gin.Context) {
	defer h.metrics.TrackRegistryOperation("list")()

	apps := h.apps.List()
	if category := c.Query("category"); category != "" {
		if err := utils.ValidateCategory(category, false); err != nil {
			badRequest(c, err)
			return
		}
		filtered := apps[:0]
		for _, app := range apps {
			if app.Category == category {
				filtered = append(filtered, app)
			}
		}
		apps = filtered
	}

	body := gin.H{
		"apps":  apps,
		"stats": h.apps.Stats(),
	}
	if etag, err := h.hasher.ETag(body); err == nil {
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
	}
	c.JSON(http.StatusOK, body)
}

// GetApp returns one registration
func (h *Handlers) GetApp(c *gin.Context) {
	appID := c.Param("id")
	if err := utils.ValidateID(appID, "app_id", true); err != nil {
		badRequest(c, err)
		return
	}

	reg, ok := h.apps.Get(appID)
	if !ok {
		respondError(c, fmt.Errorf("app %s: %w", appID, types.ErrAppNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"app":     reg,
		"window":  reg.WindowConfig(),
		"running": h.lifecycle.IsAppRunning(appID),
	})
}

// RegisterApp adds or replaces a registration
func (h *Handlers) RegisterApp(c *gin.Context) {
	defer h.metrics.TrackRegistryOperation("register")()

	var reg types.AppRegistration
	if err := c.ShouldBindJSON(&reg); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateRegistration(reg); err != nil {
		badRequest(c, err)
		return
	}

	existed := h.apps.Has(reg.ID)
	if err := h.apps.Register(reg); err != nil {
		badRequest(c, err)
		return
	}
	stored, _ := h.apps.Get(reg.ID)

	h.logger.Info("App registered", zap.String("app_id", reg.ID), zap.Bool("replaced", existed))

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"app": stored})
}

// UnregisterApp removes a registration. Open windows of the app stay open.
func (h *Handlers) UnregisterApp(c *gin.Context) {
	defer h.metrics.TrackRegistryOperation("unregister")()

	appID := c.Param("id")
	if err := utils.ValidateID(appID, "app_id", true); err != nil {
		badRequest(c, err)
		return
	}
	if !h.apps.Unregister(appID) {
		respondError(c, fmt.Errorf("app %s: %w", appID, types.ErrAppNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "app_id": appID})
}

// LaunchApp opens (or focuses) a window of an app. The body is optional.
func (h *Handlers) LaunchApp(c *gin.Context) {
	defer h.metrics.TrackLaunchOperation("launch")()

	appID := c.Param("id")
	if err := utils.ValidateID(appID, "app_id", true); err != nil {
		badRequest(c, err)
		return
	}

	var req types.LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	if err := validateLaunch(req); err != nil {
		badRequest(c, err)
		return
	}
	if !h.apps.Has(appID) {
		respondError(c, fmt.Errorf("app %s: %w", appID, types.ErrAppNotFound))
		return
	}

	result := h.launcher.Launch(c.Request.Context(), appID, req)
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}

	status := http.StatusCreated
	if result.ExistingWindow {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func validateLaunch(req types.LaunchRequest) error {
	switch req.Mode {
	case types.LaunchModeDefault, types.LaunchModeDesktop, types.LaunchModeStartMenu, types.LaunchModeData:
	default:
		return fmt.Errorf("unknown launch mode %q", req.Mode)
	}
	if err := utils.ValidateString(req.Title, "title", 0, utils.MaxNameLength, false); err != nil {
		return err
	}
	if b := req.Bounds; b != nil && (b.W <= 0 || b.H <= 0) {
		return fmt.Errorf("bounds: %w", types.ErrInvalidBounds)
	}
	return utils.ValidateLaunchData(req.Data)
}
