package http

import "github.com/gin-gonic/gin"

// Routes registers every desktop endpoint on the router
func (h *Handlers) Routes(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	router.GET("/metrics", h.PrometheusMetrics)
	router.GET("/metrics/json", h.MetricsJSON)

	router.GET("/apps", h.ListApps)
	router.POST("/apps", h.RegisterApp)
	router.GET("/apps/:id", h.GetApp)
	router.DELETE("/apps/:id", h.UnregisterApp)
	router.POST("/apps/:id/launch", h.LaunchApp)

	router.GET("/windows", h.ListWindows)
	router.GET("/windows/:id", h.GetWindow)
	router.DELETE("/windows/:id", h.CloseWindow)
	router.POST("/windows/:id/focus", h.FocusWindow)
	router.POST("/windows/:id/minimize", h.MinimizeWindow)
	router.POST("/windows/:id/restore", h.RestoreWindow)
	router.POST("/windows/:id/maximize", h.MaximizeWindow)
	router.POST("/windows/:id/snap", h.SnapWindow)
	router.PATCH("/windows/:id/bounds", h.UpdateBounds)
	router.PUT("/viewport", h.SetViewport)

	router.GET("/running", h.RunningApps)
	router.GET("/events", h.EventHistory)
	router.DELETE("/events", h.ClearEventHistory)

	router.POST("/navigate", h.Navigate)
	router.GET("/location", h.Location)

	router.GET("/session", h.SessionStats)
	router.POST("/session/save", h.SaveSession)
}
