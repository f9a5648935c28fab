// Package server exposes the decoder over a small JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/llehouerou/go-bfi/internal/logger"
	"github.com/llehouerou/go-bfi/internal/metrics"
	"github.com/llehouerou/go-bfi/internal/version"
)

const (
	// DefaultAddress is the listen address used when none is configured.
	DefaultAddress = "127.0.0.1:8080"

	// DefaultMaxUploadBytes bounds the size of an uploaded capture.
	DefaultMaxUploadBytes int64 = 64 << 20

	readHeaderTimeout = 10 * time.Second
)

// Config holds the tunables of the API.
type Config struct {
	MaxUploadBytes int64 // 0 selects DefaultMaxUploadBytes
	Workers        int
	SkipMalformed  bool
}

// Server serves the frame decoding HTTP API.
type Server struct {
	cfg     Config
	metrics *metrics.Metrics
	log     logger.Logger
	newID   func() string
}

// New returns a Server. m and log may be nil.
func New(cfg Config, m *metrics.Metrics, log logger.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		cfg:     cfg,
		metrics: m,
		log:     log,
		newID:   newSessionID,
	}
}

// Register mounts the API routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", s.handleMetrics)

	e.POST("/v1/frames/decode", s.handleDecodeFrame)
	e.POST("/v1/captures", s.handleDecodeCapture)
}

// Echo returns an instance with the default middleware and the API
// routes.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	s.Register(e)
	return e
}

// ListenAndServe serves the API on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddress
	}
	s.log.Info("starting server", "address", addr, "max_upload_bytes", s.cfg.MaxUploadBytes)
	sc := echo.StartConfig{
		Address: addr,
		BeforeServeFunc: func(srv *http.Server) error {
			srv.ReadHeaderTimeout = readHeaderTimeout
			return nil
		},
	}
	return sc.Start(ctx, s.Echo())
}

type healthResponse struct {
	Status  string       `json:"status"`
	Version version.Info `json:"version"`
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", Version: version.Resolve()})
}

func (s *Server) handleMetrics(c *echo.Context) error {
	s.metrics.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

// respond writes v as JSON and records the request.
func (s *Server) respond(c *echo.Context, route string, status int, v any) error {
	s.metrics.ObserveRequest(route, status)
	return c.JSON(status, v)
}
