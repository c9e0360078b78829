package monitoring

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/fetch"
	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Inspection metrics
	Inspections        *prometheus.CounterVec
	InspectionDuration *prometheus.HistogramVec
	InspectionFrames   prometheus.Histogram
	InspectionsStored  prometheus.Gauge

	// Fetch metrics
	FramesFetched *prometheus.CounterVec

	// Tooltip metrics
	Tooltips *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests     int64   `json:"totalRequests"`
	TotalErrors       int64   `json:"totalErrors"`
	Inspections       int64   `json:"inspections"`
	StoredInspections int64   `json:"storedInspections"`
	Tooltips          int64   `json:"tooltips"`
	ActiveConnections int64   `json:"activeConnections"`
	AvgLatencyMS      float64 `json:"avgLatencyMs"`
	UptimeSeconds     float64 `json:"uptimeSeconds"`

	totalDuration float64
}

// NewMetrics creates a collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framelens_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "framelens_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "framelens_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "framelens_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Inspection metrics
		Inspections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framelens_inspections_total",
				Help: "Total number of page inspections",
			},
			[]string{"op", "status"},
		),
		InspectionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "framelens_inspection_duration_seconds",
				Help:    "Time to load a page and its frames",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"op"},
		),
		InspectionFrames: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "framelens_inspection_frames",
				Help:    "Number of frames found per inspection",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
		InspectionsStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "framelens_inspections_stored",
				Help: "Number of inspections held in memory",
			},
		),

		// Fetch metrics
		FramesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framelens_documents_fetched_total",
				Help: "Total number of documents fetched, by status class",
			},
			[]string{"class"},
		),

		// Tooltip metrics
		Tooltips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framelens_tooltips_total",
				Help: "Total number of composed tooltips",
			},
			[]string{"type"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "framelens_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "framelens_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "framelens_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// InspectionDone records a finished inspect or reload
func (m *Metrics) InspectionDone(op string, duration time.Duration, frameCount int, err error) {
	m.Inspections.WithLabelValues(op, errorStatus(err)).Inc()
	m.InspectionDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		return
	}
	m.InspectionFrames.Observe(float64(frameCount))

	m.mu.Lock()
	m.snapshot.Inspections++
	m.mu.Unlock()
}

// FrameFetched records one fetched document
func (m *Metrics) FrameFetched(status int) {
	m.FramesFetched.WithLabelValues(strconv.Itoa(status/100) + "xx").Inc()
}

// TooltipComposed records one composed tooltip
func (m *Metrics) TooltipComposed(kind frames.Classification) {
	m.Tooltips.WithLabelValues(kind.String()).Inc()

	m.mu.Lock()
	m.snapshot.Tooltips++
	m.mu.Unlock()
}

// StoreSize sets the number of stored inspections
func (m *Metrics) StoreSize(n int) {
	m.InspectionsStored.Set(float64(n))

	m.mu.Lock()
	m.snapshot.StoredInspections = int64(n)
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgLatencyMS = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

func errorStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, fetch.ErrInvalidURL):
		return "invalid_url"
	case errors.Is(err, fetch.ErrServer):
		return "server_error"
	default:
		return "error"
	}
}
