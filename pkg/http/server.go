package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"GanttGen/pkg/http/middleware"
	applogger "GanttGen/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler registers a group of routes on the server's Echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	BodyLimit       string
	CORS            bool
	AllowOrigins    []string
	MetricsPath     string
	SlowThreshold   time.Duration
	Limiter         middleware.Allower
	RateLimit       middleware.RateLimitConfig
}

// Server wraps Echo HTTP server.
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
	logger *applogger.Logger
}

// NewServer creates a new HTTP server with Echo.
func NewServer(handler Handler, l *applogger.Logger, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    180 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		BodyLimit:       "60M",
		CORS:            true,
		AllowOrigins:    []string{"*"},
		MetricsPath:     "/metrics",
		SlowThreshold:   30 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover(l))
	e.Use(middleware.Metrics(l, cfg.SlowThreshold))
	e.Use(middleware.RequestLogging(l))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	if cfg.CORS {
		e.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodDelete,
				http.MethodOptions,
			},
			AllowHeaders: []string{
				echo.HeaderOrigin,
				echo.HeaderContentType,
				echo.HeaderAccept,
			},
			MaxAge: 10 * time.Minute,
		}))
	}

	if cfg.Limiter != nil {
		rl := cfg.RateLimit
		if rl.Skipper == nil {
			metricsPath := cfg.MetricsPath
			rl.Skipper = func(c echo.Context) bool {
				p := c.Request().URL.Path
				return p == "/healthz" || p == metricsPath || !strings.HasPrefix(p, "/api/")
			}
		}
		e.Use(middleware.RateLimit(cfg.Limiter, rl))
	}

	if handler != nil {
		handler.RegisterRoutes(e)
	}

	e.GET("/healthz", func(c echo.Context) error {
		return SuccessResponse(c, map[string]string{"status": "ok"})
	})

	if cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	return &Server{
		echo:   e,
		config: cfg,
		logger: l,
	}
}

// Start binds the listen address and serves in the background. Bind
// errors are returned; later serve errors are logged.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.echo.Listener = ln

	go func() {
		s.logger.Info("http server listening", applogger.String("addr", ln.Addr().String()))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", applogger.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.logger.Info("http server stopped gracefully")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// WithHost sets server host.
func WithHost(host string) ServerOption {
	return func(c *ServerConfig) {
		c.Host = host
	}
}

// WithPort sets server port.
func WithPort(port int) ServerOption {
	return func(c *ServerConfig) {
		if port > 0 {
			c.Port = port
		}
	}
}

// WithTimeouts sets read/write timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
		if shutdown > 0 {
			c.ShutdownTimeout = shutdown
		}
	}
}

// WithBodyLimit caps request bodies, e.g. "60M".
func WithBodyLimit(limit string) ServerOption {
	return func(c *ServerConfig) {
		if limit != "" {
			c.BodyLimit = limit
		}
	}
}

// WithCORS enables/disables CORS and sets the allowed origins.
func WithCORS(enabled bool, origins ...string) ServerOption {
	return func(c *ServerConfig) {
		c.CORS = enabled
		if len(origins) > 0 {
			c.AllowOrigins = origins
		}
	}
}

// WithMetrics sets the Prometheus scrape path; empty disables it.
func WithMetrics(path string, slow time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.MetricsPath = path
		if slow > 0 {
			c.SlowThreshold = slow
		}
	}
}

// WithRateLimit enables per-client rate limiting.
func WithRateLimit(limiter middleware.Allower, capacity, refillPerSec float64) ServerOption {
	return func(c *ServerConfig) {
		c.Limiter = limiter
		c.RateLimit = middleware.RateLimitConfig{Capacity: capacity, RefillPerSec: refillPerSec}
	}
}
