package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/ports"
	"go.uber.org/zap"
)

// Config holds the HTTP frontend settings
type Config struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string
}

// Option configures optional routes of the Server
type Option func(*Server)

// WithMetricsHandler serves h on GET /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithReadiness adds component details to GET /ready
func WithReadiness(fn ReadinessFunc) Option {
	return func(s *Server) { s.readiness = fn }
}

// Server is the HTTP frontend
type Server struct {
	cfg       Config
	analyzer  ports.Analyzer
	records   RecordReader
	logger    *zap.Logger
	metrics   http.Handler
	readiness ReadinessFunc
	router    *gin.Engine
	srv       *http.Server
}

// NewServer creates a new HTTP frontend
func NewServer(cfg Config, analyzer ports.Analyzer, records RecordReader, logger *zap.Logger, opts ...Option) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		records:  records,
		logger:   logger.Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(RecoveryMiddleware(s.logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(s.logger))

	router.GET("/health", HealthHandler)
	router.GET("/ready", ReadyHandler(s.readiness))
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}

	api := router.Group("/api")
	{
		api.POST("/analyze_email", NewAnalyzeHandler(s.analyzer, s.logger).Handle)
		api.GET("/records/:message_id", NewRecordHandler(s.records, s.logger).Handle)
	}
	return router
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Process analyzes a message directly, bypassing HTTP
func (s *Server) Process(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisRecord, error) {
	return s.analyzer.Analyze(ctx, req)
}

// Start starts listening in the background
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.cfg.ListenAddress,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go func() {
		s.logger.Info("server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down, waiting for in-flight requests up to the shutdown timeout
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down server")
	return s.srv.Shutdown(ctx)
}
