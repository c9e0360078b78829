package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/FrameLens/backend/internal/inspection"
	"github.com/gin-gonic/gin"
)

// BreakerReporter reports the circuit breaker state per origin.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	service  *inspection.Service
	breakers BreakerReporter
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	logger   *logging.Logger
	html     *frames.HTMLRenderer
	started  time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(
	service *inspection.Service,
	breakers BreakerReporter,
	metrics *monitoring.Metrics,
	tracer *tracing.Tracer,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		service:  service,
		breakers: breakers,
		metrics:  metrics,
		tracer:   tracer,
		logger:   logger.Component("api"),
		html:     frames.NewHTMLRenderer(),
		started:  time.Now(),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "FrameLens Inspector",
		"version": "0.1.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":      "healthy",
		"uptime":      time.Since(h.started).Round(time.Second).String(),
		"inspections": len(h.service.List()),
	}
	if h.breakers != nil {
		resp["breakers"] = h.breakers.BreakerStates()
	}
	c.JSON(http.StatusOK, resp)
}
