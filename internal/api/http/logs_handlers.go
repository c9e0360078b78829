package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PanelLogEntry is a log entry written by the devtools panel
type PanelLogEntry struct {
	ID        string                 `json:"id"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message" binding:"required"`
	Context   map[string]interface{} `json:"context"`
	Timestamp string                 `json:"timestamp"`
}

// PanelLogRequest is a batch of panel logs
type PanelLogRequest struct {
	Source  string          `json:"source"`
	Entries []PanelLogEntry `json:"entries" binding:"dive"`
}

// StreamLogs forwards panel logs into the server log
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req PanelLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid log request format")
		return
	}
	if req.Source != "panel" && req.Source != "content" {
		badRequest(c, "Invalid log source")
		return
	}
	if len(req.Entries) == 0 {
		badRequest(c, "No log entries provided")
		return
	}

	logger := h.logger.Component(req.Source)
	for _, entry := range req.Entries {
		fields := make([]zap.Field, 0, len(entry.Context)+2)
		fields = append(fields,
			zap.String("client_log_id", entry.ID),
			zap.String("client_timestamp", entry.Timestamp),
		)
		for key, value := range entry.Context {
			fields = append(fields, zap.Any(key, value))
		}

		switch entry.Level {
		case "error":
			logger.Error(entry.Message, fields...)
		case "warn":
			logger.Warn(entry.Message, fields...)
		case "debug":
			logger.Debug(entry.Message, fields...)
		default:
			logger.Info(entry.Message, fields...)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"entries_received": len(req.Entries),
		"timestamp":        time.Now().Unix(),
	})
}
