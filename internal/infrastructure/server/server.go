package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/FrameLens/backend/internal/api/http"
	"github.com/GriffinCanCode/FrameLens/backend/internal/api/middleware"
	"github.com/GriffinCanCode/FrameLens/backend/internal/fetch"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/FrameLens/backend/internal/inspection"
	"github.com/GriffinCanCode/FrameLens/backend/internal/ws"
)

// expireInterval is how often stale inspections are swept.
const expireInterval = time.Minute

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	service *inspection.Service
	fetcher *fetch.Client
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return newServer(cfg, logger), nil
}

func newServer(cfg *config.Config, logger *logging.Logger) *Server {
	logger.Info("Initializing FrameLens server",
		zap.String("port", cfg.Server.Port),
		zap.Int("max_depth", cfg.Inspection.MaxDepth),
		zap.Int("max_frames", cfg.Inspection.MaxFrames),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("framelens", logger.Logger)

	fetcher := fetch.NewClient(fetchConfig(cfg.Fetch), logger)
	service := inspection.NewService(fetcher, inspection.Config{
		MaxDepth:    cfg.Inspection.MaxDepth,
		MaxFrames:   cfg.Inspection.MaxFrames,
		Concurrency: cfg.Inspection.Concurrency,
		Capacity:    cfg.Inspection.Capacity,
		TTL:         cfg.Inspection.TTL,
		Columns:     cfg.Columns,
	}, logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.RequestLogger(logger))

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.Server.AllowedOrigins
	}
	router.Use(middleware.CORS(cors))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	handlers := api.NewHandlers(service, fetcher, metrics, tracer, logger)
	handlers.Register(router)

	wsHandler := ws.NewHandler(service, metrics, logger, cfg.Server.AllowedOrigins)
	router.GET("/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	srv := &Server{
		router: router,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		service: service,
		fetcher: fetcher,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		stop:    make(chan struct{}),
	}
	srv.wg.Add(1)
	go srv.sweep()

	logger.Info("Server initialized successfully")
	return srv
}

func fetchConfig(c config.FetchConfig) fetch.Config {
	fc := fetch.DefaultConfig()
	fc.Timeout = c.Timeout
	fc.RetryMax = c.RetryMax
	fc.RateLimit = c.RateLimit
	if c.UserAgent != "" {
		fc.UserAgent = c.UserAgent
	}
	if c.MaxBodySize > 0 {
		fc.MaxBodySize = c.MaxBodySize
	}
	return fc
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server. It blocks until the server stops; a graceful
// Shutdown makes it return nil.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweep() {
	defer s.wg.Done()
	ticker := time.NewTicker(expireInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.service.Expire(); n > 0 {
				s.logger.Debug("Expired inspections", zap.Int("count", n))
			}
		}
	}
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
	}

	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	s.tracer.Close()

	_ = s.logger.Sync()
	return err
}
