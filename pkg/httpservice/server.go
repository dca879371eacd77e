package httpservice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourorg/docpress/pkg/logging"
	"github.com/yourorg/docpress/pkg/middleware"
)

// Server wraps a Gin server with configuration and middleware.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
	addr       string
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Host defaults to 127.0.0.1; the service is a local tool and must not
	// listen on public interfaces unless asked to.
	Host         string
	Port         int
	ServiceName  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Logger       logging.Logger
	// Security configuration
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	AllowedMethods []string
	MaxBodySize    int64 // Maximum request body size in bytes
	// SlowRequestThreshold triggers a warning log when exceeded; 0 disables.
	SlowRequestThreshold time.Duration
	// DebugBodyLog enables request/response body logging at debug level.
	DebugBodyLog bool
}

// NewServer creates a new HTTP server with the provided configuration and handlers.
func NewServer(cfg ServerConfig, handlers ...Handler) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "docpress"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Apply default middleware
	router.Use(RecoveryMiddleware(cfg.Logger))

	// Request size limit (if configured)
	if cfg.MaxBodySize > 0 {
		router.Use(RequestSizeLimitMiddleware(cfg.MaxBodySize, cfg.Logger))
	}

	router.Use(middleware.RequestIDMiddleware(""))
	router.Use(middleware.ContextLoggerMiddleware(cfg.Logger, cfg.ServiceName))
	router.Use(LoggingMiddleware(cfg.Logger))
	if cfg.DebugBodyLog {
		router.Use(BodyLoggingMiddleware(cfg.Logger))
	}
	router.Use(SecurityHeadersMiddleware())

	// HTTP method whitelist (defense-in-depth)
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "HEAD", "OPTIONS"}
	}
	router.Use(HTTPMethodWhitelistMiddleware(allowedMethods, cfg.Logger))

	// Cross-origin access is denied unless origins are explicitly allowed;
	// the browser UI is same-origin and needs nothing here.
	router.Use(CORSMiddleware(CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: allowedMethods,
	}))

	// Configure rate limiting if enabled
	if cfg.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		}))
	}

	router.Use(middleware.ErrorHandlerMiddleware(cfg.Logger))
	if cfg.SlowRequestThreshold > 0 {
		router.Use(middleware.SlowRequestMiddleware(cfg.SlowRequestThreshold, cfg.Logger))
	}

	// Register handlers
	for _, handler := range handlers {
		handler.Register(router)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		router:     router,
		httpServer: httpServer,
		logger:     cfg.Logger,
		addr:       addr,
	}, nil
}

// Handler defines an interface for registering HTTP handlers.
type Handler interface {
	Register(router *gin.Engine)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", logging.NewField("addr", s.addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.addr
}

// Router returns the underlying Gin router for advanced configuration.
func (s *Server) Router() *gin.Engine {
	return s.router
}
