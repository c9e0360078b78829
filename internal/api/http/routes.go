package http

import "github.com/gin-gonic/gin"

// Register mounts the API routes on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// Inspections
	r.POST("/inspections", h.CreateInspection)
	r.GET("/inspections", h.ListInspections)
	r.GET("/inspections/:id", h.GetInspection)
	r.POST("/inspections/:id/reload", h.ReloadInspection)
	r.DELETE("/inspections/:id", h.DeleteInspection)
	r.GET("/inspections/:id/export", h.ExportInspection)

	// Frames and tooltips
	r.GET("/inspections/:id/frames", h.ListFrames)
	r.GET("/inspections/:id/frames/:frame/tooltip", h.GetTooltip)
	r.PUT("/inspections/:id/frames/:frame/nested", h.MarkNested)
	r.POST("/tooltip", h.ComposeTooltip)

	// Cookie panel
	r.GET("/inspections/:id/cookies", h.GetCookies)
	r.PUT("/inspections/:id/preferences", h.SetPreferences)
	r.PUT("/inspections/:id/selection", h.SetSelection)

	// Client logs and metrics
	r.POST("/logs", h.StreamLogs)
	r.GET("/metrics/json", h.MetricsSummary)
}
