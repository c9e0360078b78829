package http

import (
	"net/http"

	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/GriffinCanCode/FrameLens/backend/internal/inspection"
	"github.com/gin-gonic/gin"
)

const (
	formatJSON = "json"
	formatHTML = "html"
	formatText = "text"
)

// GetTooltip composes the tooltip of a stored frame.
// Query: nested (src of the hovered nested iframe), format (json|html|text).
func (h *Handlers) GetTooltip(c *gin.Context) {
	info, err := h.service.Tooltip(c.Param("id"), c.Param("frame"), c.Query("nested"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondTooltip(c, info)
}

// ComposeTooltip composes a tooltip from a frame snapshot sent by a
// page-side collector.
func (h *Handlers) ComposeTooltip(c *gin.Context) {
	var snap inspection.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	h.respondTooltip(c, h.service.ComposeSnapshot(snap))
}

func (h *Handlers) respondTooltip(c *gin.Context, info frames.Info) {
	format := c.DefaultQuery("format", formatJSON)

	var renderer frames.Renderer
	switch format {
	case formatJSON, formatHTML:
		renderer = h.html
	case formatText:
		renderer = frames.TextRenderer{}
	default:
		badRequest(c, "unknown format: "+format)
		return
	}

	overlay, err := renderer.Render(info)
	if err != nil {
		h.fail(c, err)
		return
	}

	switch format {
	case formatHTML:
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(overlay.Markup))
	case formatText:
		c.String(http.StatusOK, overlay.Markup)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"tooltip": overlay,
		})
	}
}
