// Package http is the HTTP adapter: it translates requests into core
// service calls and core errors into status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LuisEmilioVP/NexuViaticos/internal/auth"
	"github.com/LuisEmilioVP/NexuViaticos/internal/export"
	"github.com/LuisEmilioVP/NexuViaticos/internal/ledger"
	"github.com/LuisEmilioVP/NexuViaticos/internal/reference"
	"github.com/LuisEmilioVP/NexuViaticos/internal/submission"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP adapter over the core services.
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	logger     *zap.Logger
}

// NewServer wires handlers, middleware and routes.
func NewServer(
	config ServerConfig,
	authService *auth.Service,
	calculator *ledger.Calculator,
	coordinator *submission.Coordinator,
	refService *reference.Service,
	exporter *export.Exporter,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	gin.EnableJsonDecoderDisallowUnknownFields()

	router := gin.New()

	s := &Server{
		config: config,
		router: router,
		logger: logger,
	}

	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())
	router.Use(corsMiddleware())

	handlers := NewHandlers(authService, calculator, coordinator, refService, exporter, logger)

	router.GET("/health", handlers.HealthCheck)

	api := router.Group("/api")
	api.POST("/login", handlers.Login)

	authed := api.Group("")
	authed.Use(AuthMiddleware(authService))
	{
		authed.GET("/initial-data", handlers.InitialData)

		authed.GET("/viaticos/balance", handlers.GetBalance)
		authed.GET("/viaticos/:id/movimientos", handlers.GetMovements)
		authed.GET("/viaticos", RequireAdmin(), handlers.ListAllowances)
		authed.POST("/viaticos", RequireAdmin(), handlers.CreateAllowance)

		authed.GET("/clientes/:id/sucursales", handlers.GetClientBranches)

		authed.POST("/rendiciones", handlers.CreateSubmission)
		authed.GET("/rendiciones", handlers.ListSubmissions)
		authed.GET("/rendiciones/:id", handlers.GetSubmission)
		authed.GET("/rendiciones/:id/export-excel", handlers.ExportSubmission)

		admin := authed.Group("", RequireAdmin())
		{
			admin.POST("/usuarios", handlers.CreateUser)
			admin.PUT("/usuarios/:id", handlers.UpdateUser)
			admin.DELETE("/usuarios/:id", handlers.DeleteUser)

			admin.POST("/clientes", handlers.CreateClient)
			admin.PUT("/clientes/:id", handlers.UpdateClient)
			admin.DELETE("/clientes/:id", handlers.DeleteClient)

			admin.POST("/sucursales", handlers.CreateBranch)
			admin.PUT("/sucursales/:id", handlers.UpdateBranch)
			admin.DELETE("/sucursales/:id", handlers.DeleteBranch)

			admin.POST("/tipos-gastos", handlers.CreateExpenseType)
			admin.PUT("/tipos-gastos/:id", handlers.UpdateExpenseType)
			admin.DELETE("/tipos-gastos/:id", handlers.DeleteExpenseType)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint no encontrado"})
	})

	return s
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server listening", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop shuts the server down with a timeout.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
