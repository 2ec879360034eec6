package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dhima/audittrail/internal/events"
	"github.com/dhima/audittrail/internal/logging"
	"github.com/dhima/audittrail/internal/metrics"
	"github.com/dhima/audittrail/internal/retention"
	"github.com/dhima/audittrail/internal/storage"
	"github.com/dhima/audittrail/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "purge expired audit events once and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	zapLogger := logging.Unwrap(logger)
	service := events.NewService(db, nil, zapLogger, metrics.New(prometheus.NewRegistry()))

	engine, err := retention.NewEngine(cfg.RetentionSchedule, cfg.RetentionDays, service, zapLogger)
	if err != nil {
		logger.Fatal("invalid retention settings", zap.Error(err))
	}

	if *once {
		if _, err := engine.RunOnce(ctx); err != nil {
			logger.Fatal("retention purge failed", zap.Error(err))
		}
		return
	}

	logger.Info("starting retention engine",
		zap.String("schedule", cfg.RetentionSchedule),
		zap.Int("retention_days", cfg.RetentionDays))

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("retention engine stopped", zap.Error(err))
	}
	logger.Info("retention engine stopped")
}
