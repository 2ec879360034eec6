package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhima/audittrail/internal/api/handlers"
	"github.com/dhima/audittrail/internal/api/middleware"
	"github.com/dhima/audittrail/internal/auth"
	"github.com/dhima/audittrail/internal/events"
	"github.com/dhima/audittrail/internal/logging"
	"github.com/dhima/audittrail/internal/metrics"
	"github.com/dhima/audittrail/internal/storage"
	"github.com/dhima/audittrail/pkg/audittrail"
	"github.com/dhima/audittrail/pkg/config"
	platformEvents "github.com/dhima/audittrail/platform/events"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Dependencies are the backing services a Server is built from.
type Dependencies struct {
	Store     events.EventStore
	DB        handlers.Pinger
	Publisher events.EventPublisher
	Registry  *prometheus.Registry
}

// Server orchestrates HTTP routing and dependencies for the API service.
type Server struct {
	config   config.App
	logger   logging.Logger
	router   *gin.Engine
	registry *prometheus.Registry
	service  *events.Service
	recorder *audittrail.Recorder
	tokens   *auth.TokenService

	closers []func() error
}

// NewServer loads configuration from the environment, connects to the
// database and Kafka, and wires the API.
func NewServer(ctx context.Context) (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	deps := Dependencies{Store: db, DB: db}
	closers := []func() error{db.Close}

	if cfg.KafkaEnabled() {
		publisher := platformEvents.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logging.Unwrap(logger))
		deps.Publisher = publisher
		closers = append([]func() error{publisher.Close}, closers...)
		logger.Info("mirroring audit events to Kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
	}

	server := New(cfg, logger, deps)
	server.closers = closers
	return server, nil
}

// New wires a Server from already constructed dependencies.
func New(cfg config.App, logger logging.Logger, deps Dependencies) *Server {
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	zapLogger := logging.Unwrap(logger)
	service := events.NewService(deps.Store, deps.Publisher, zapLogger, metrics.New(registry))

	s := &Server{
		config:   cfg,
		logger:   logger,
		registry: registry,
		service:  service,
		recorder: audittrail.New(service,
			audittrail.WithLogger(zapLogger),
			audittrail.WithWriteTimeout(cfg.AuditWriteTimeout),
		),
	}
	if cfg.AuthEnabled() {
		s.tokens = auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	}

	s.setupRouter(deps.DB)
	return s
}

// Router exposes the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Recorder returns the audit recorder so additional routes can be decorated.
func (s *Server) Recorder() *audittrail.Recorder {
	return s.recorder
}

// Events returns the audit event service.
func (s *Server) Events() *events.Service {
	return s.service
}

// setupRouter configures the Gin router with middleware and routes.
func (s *Server) setupRouter(db handlers.Pinger) {
	router := gin.New()
	zapLogger := logging.Unwrap(s.logger)

	// ClientIP only honours forwarding headers from these proxies.
	if err := router.SetTrustedProxies(s.config.TrustedProxies); err != nil {
		s.logger.Warn("invalid trusted proxies, trusting none",
			zap.Strings("trusted_proxies", s.config.TrustedProxies),
			zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	// Order matters: recovery first, then request ID so access logs and
	// audit events carry it.
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))
	router.Use(middleware.RequestID())
	router.Use(ginzap.GinzapWithConfig(zapLogger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/health", "/metrics"},
		Context: func(c *gin.Context) []zap.Field {
			return []zap.Field{zap.String("request_id", c.GetString(middleware.RequestIDKey))}
		},
	}))

	if len(s.config.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.CORSOrigins,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Health and metrics endpoints (no /api/v1 prefix)
	router.GET("/health", handlers.NewHealthHandler(s.logger, db).Health)
	router.GET("/metrics", handlers.Metrics(s.registry))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	v1.Use(auth.Middleware(s.tokens, zapLogger))
	{
		eventHandler := handlers.NewEventHandler(s.logger, s.service)
		eventRoutes := v1.Group("/events")
		{
			eventRoutes.GET("", s.recorder.Handler(eventHandler.ListEvents,
				audittrail.Describe(handlers.ListEventsDescription),
			))
			eventRoutes.GET("/:id", s.recorder.Handler(eventHandler.GetEvent,
				audittrail.Describe(handlers.DescribeEventView),
				audittrail.Target(handlers.ViewedEvent),
			))
		}
	}

	s.router = router
}

// Serve starts the HTTP server with graceful shutdown support.
func (s *Server) Serve() error {
	addr := ":" + s.config.APIPort
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server",
			zap.String("address", addr),
			zap.String("environment", s.config.Environment),
			zap.String("log_level", s.config.LogLevel),
			zap.Bool("auth_enabled", s.config.AuthEnabled()),
			zap.Bool("kafka_enabled", s.config.KafkaEnabled()),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		s.close()
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}
	s.logger.Info("shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		s.close()
		return err
	}

	s.close()
	s.logger.Info("server stopped")
	_ = s.logger.Sync()
	return nil
}

// close releases the Kafka writer first so in-flight mirrors finish before
// the database goes away.
func (s *Server) close() {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Error("failed to close dependency", zap.Error(err))
		}
	}
}
