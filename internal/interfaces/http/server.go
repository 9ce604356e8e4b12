// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/billbookhq/billbook/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// EmailSender delivers notification emails
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PhotoDir, when set, is served statically under /photos
	PhotoDir string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services bundles the application services the HTTP surface exposes
type Services struct {
	Bills   service.BillService
	Ledger  service.LedgerService
	Export  service.LedgerExporter
	Reports service.ReportService
	Audit   service.AuditLog
	Email   EmailSender
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	if s.config.PhotoDir != "" {
		s.router.Static("/photos", s.config.PhotoDir)
	}

	// API routes
	api := s.router.Group("/api")
	{
		// Bills
		api.POST("/upload-bill-json", handlers.CreateBill)
		api.POST("/direct-payment-json", handlers.CreateDirectPayment)
		api.PATCH("/update-bill-json/:billId", handlers.UpdateBill)
		api.PATCH("/update-bill-status/:billId", handlers.UpdateBillStatus)
		api.DELETE("/delete-bill/:billId", handlers.DeleteBill)
		api.POST("/check-duplicate", handlers.CheckDuplicate)

		// Bill queries
		api.GET("/all-bills", handlers.ListAllBills)
		api.GET("/all-bills-with-stats", handlers.ListAllBillsWithStats)
		api.GET("/user-bills/:userId", handlers.ListUserBills)
		api.GET("/user-returned-bills/:userId", handlers.ListUserReturnedBills)
		api.GET("/pending-direct-payments/:adminId", handlers.ListPendingDirectPayments)
		api.GET("/user-submitted-bills", handlers.ListUserSubmittedBills)

		// Projections
		api.GET("/ledger", handlers.GetLedger)
		api.GET("/ledger/export", handlers.ExportLedger)
		api.GET("/event-logs", handlers.ListEventLogs)
		api.GET("/users", handlers.ListUsers)

		// Notifications
		api.POST("/send-email", handlers.SendEmail)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
