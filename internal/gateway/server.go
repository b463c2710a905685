// Package gateway exposes a queue store over HTTP so that pollers on other
// hosts can share one set of spreadsheet credentials.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
)

// Config holds gateway server configuration
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the gateway
func DefaultConfig() Config {
	return Config{
		Port:           3000,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
	}
}

// Server serves a queue.Store and queue.Registry over HTTP
type Server struct {
	config     Config
	store      queue.Store
	registry   queue.Registry
	logger     *slog.Logger
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer creates a gateway server
func NewServer(cfg Config, store queue.Store, registry queue.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	corsConfig := cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	s := &Server{
		config:   cfg,
		store:    store,
		registry: registry,
		logger:   logger,
		router:   router,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/rows", s.listRows)
	router.POST("/rows/identifiers", s.writeIdentifiers)
	router.GET("/registry/:tenant", s.lookupRegistry)

	return s
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. A Shutdown that ran first makes
// Start return nil immediately.
func (s *Server) Start() error {
	s.logger.Info("starting queue gateway", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down queue gateway")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) listRows(c *gin.Context) {
	tenant := c.Query("tenant")
	b, err := bank.Parse(c.Query("bank"))
	if tenant == "" || err != nil {
		s.badRequest(c, "tenant and a known bank are required")
		return
	}

	rows, err := s.store.ListPendingRows(c.Request.Context(), tenant, b)
	if err != nil {
		s.upstreamError(c, err)
		return
	}
	if rows == nil {
		rows = []matcher.QueueRow{}
	}

	c.JSON(http.StatusOK, RowsResponse{Tenant: tenant, Bank: b, Rows: rows})
}

func (s *Server) writeIdentifiers(c *gin.Context) {
	var req WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Tenant == "" || !req.Bank.Valid() {
		s.badRequest(c, "tenant and a known bank are required")
		return
	}
	if _, err := queue.PrepareWrites(req.Writes); err != nil {
		s.badRequest(c, err.Error())
		return
	}

	applied, err := s.store.WriteIdentifiers(c.Request.Context(), req.Tenant, req.Bank, req.Writes)
	if err != nil {
		s.upstreamError(c, err)
		return
	}
	if applied == nil {
		applied = []queue.Write{}
	}

	c.JSON(http.StatusOK, WriteResponse{Applied: applied})
}

func (s *Server) lookupRegistry(c *gin.Context) {
	tenant := c.Param("tenant")

	locations, err := s.registry.Lookup(c.Request.Context(), tenant)
	if err != nil {
		s.upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, RegistryResponse{Tenant: tenant, Locations: locations})
}

func (s *Server) badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: message})
}

// upstreamError maps the failure taxonomy onto HTTP responses
func (s *Server) upstreamError(c *gin.Context, err error) {
	resp := ErrorResponse{Message: err.Error(), Status: failure.StatusCodeOf(err)}
	status := http.StatusBadGateway

	switch {
	case errors.Is(err, failure.ErrAuth):
		resp.Code = CodeUpstreamAuth
	case errors.Is(err, failure.ErrTransport):
		resp.Code = CodeUpstreamTransport
	case errors.Is(err, failure.ErrMalformedRecord):
		resp.Code = CodeMalformedRecord
		status = http.StatusUnprocessableEntity
	default:
		resp.Code = CodeInternal
		status = http.StatusInternalServerError
	}

	s.logger.Warn("queue backend call failed",
		"path", c.FullPath(),
		"code", resp.Code,
		"error", err,
	)
	c.AbortWithStatusJSON(status, resp)
}

// requestLogger logs each request through slog
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.URL.Path == "/health" {
			return
		}
		logger.Debug("gateway request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
