package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/GriffinCanCode/FrameLens/backend/internal/cookies"
	"github.com/GriffinCanCode/FrameLens/backend/internal/fetch"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/FrameLens/backend/internal/inspection"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a service error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, inspection.ErrNotFound),
		errors.Is(err, inspection.ErrFrameNotFound),
		errors.Is(err, inspection.ErrCookieNotFound):
		return http.StatusNotFound
	case errors.Is(err, fetch.ErrInvalidURL),
		errors.Is(err, cookies.ErrUnknownColumn),
		errors.Is(err, inspection.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, inspection.ErrNotHTML):
		return http.StatusUnprocessableEntity
	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, fetch.ErrServer), errors.Is(err, fetch.ErrTooLarge):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}
