package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsSummary returns the current metric values as JSON
func (h *Handlers) MetricsSummary(c *gin.Context) {
	resp := gin.H{"success": true}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	if h.breakers != nil {
		resp["breakers"] = h.breakers.BreakerStates()
	}
	c.JSON(http.StatusOK, resp)
}
