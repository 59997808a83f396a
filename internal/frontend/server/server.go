package server

import (
	"context"
	"embed"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/msto63/mbasic/foundation/basic"
	"github.com/msto63/mbasic/internal/frontend/metrics"
	"github.com/msto63/mbasic/internal/frontend/service"
	"github.com/msto63/mbasic/pkg/core/health"
	"github.com/msto63/mbasic/pkg/core/logging"
	"golang.org/x/time/rate"
)

const (
	canaryInput  = "[1, (x), [2.5]]"
	canaryBudget = 50 * time.Millisecond
)

//go:embed static
var staticFiles embed.FS

// Server is the mBASIC web front-end
type Server struct {
	httpServer *http.Server
	service    *service.Service
	metrics    *metrics.Metrics
	health     *health.Registry
	limiter    *rate.Limiter
	logger     *logging.Logger
	config     Config
	listener   net.Listener
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string

	// MaxRequestSize limits request bodies and WebSocket messages in bytes
	MaxRequestSize int64

	// RateLimit is in requests per second for the execution routes.
	// 0 disables limiting.
	RateLimit float64
	RateBurst int
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           5000,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		Version:        "0.1.0",
		MaxRequestSize: 1 << 20,
		RateBurst:      20,
	}
}

// New creates a new web server. m may be nil.
func New(cfg Config, svc *service.Service, m *metrics.Metrics) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("server: service is required")
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = DefaultConfig().MaxRequestSize
	}

	s := &Server{
		service: svc,
		metrics: m,
		logger:  logging.New("http"),
		config:  cfg,
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	// Create health registry
	s.health = health.NewRegistry("mbasic", cfg.Version)
	s.health.Register(health.AlwaysHealthy("http"))
	s.health.Register(health.CanaryCheck("frontend", canaryInput, canaryBudget, runCanary))
	s.health.Register(health.FileCheck("testfile", svc.Config().TestFile))
	if history := svc.History(); history != nil {
		s.health.Register(health.PingCheck("history", history.Ping))
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the complete HTTP handler including middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// UI
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.FileServerFS(staticFiles))

	// Execution
	mux.Handle("POST /execute", s.limited(http.HandlerFunc(s.handleExecute)))
	mux.Handle("POST /execute_file", s.limited(http.HandlerFunc(s.handleExecuteFile)))
	mux.Handle("POST /api/v1/tokenize", s.limited(http.HandlerFunc(s.handleTokenize)))
	mux.Handle("GET /ws", s.limited(NewWebSocketHandler(s.service, s.metrics, s.limiter, s.config.MaxRequestSize)))

	// History
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/history/{id}", s.handleRun)

	// Operations
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return requestIDMiddleware(recoveryMiddleware(s.logger, loggingMiddleware(s.logger, s.metrics, mux)))
}

// Start starts the server and blocks
func (s *Server) Start() error {
	s.logger.Info("Starting mBASIC web front-end",
		"host", s.config.Host,
		"port", s.config.Port,
	)
	return s.httpServer.ListenAndServe()
}

// StartAsync starts the server asynchronously
func (s *Server) StartAsync() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	s.logger.Info("Starting mBASIC web front-end (async)", "address", listener.Addr().String())

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping mBASIC web front-end")
	return s.httpServer.Shutdown(ctx)
}

// Address returns the server address
func (s *Server) Address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}

// runCanary lexes and parses a fixed input; any diagnostic means the
// front-end is broken
func runCanary(ctx context.Context, input string) error {
	if _, d, _ := basic.Run("<health>", input); d != nil {
		return fmt.Errorf("canary: %s", d)
	}
	return ctx.Err()
}
