package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/IDEMSInternational/epicsa-climate-records/internal/adapter/httpapi"
	kafkaadapter "github.com/IDEMSInternational/epicsa-climate-records/internal/adapter/kafka"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/config"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/domain"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/lifecycle"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/observability"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/store/memory"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/store/postgres"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Select the record store (STORE_DRIVER).
	var store domain.RecordStore
	var closeStore func() error
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Error("failed to open postgres store", "error", err)
			os.Exit(1)
		}
		store = pg
		closeStore = pg.Close
		logger.Info("postgres store ready")
	default:
		store = memory.NewStore()
		logger.Info("in-memory store ready")
	}

	// Audit feed is feature-flagged via KAFKA_BROKERS / KAFKA_AUDIT_ENABLED.
	var events lifecycle.EventPublisher
	var auditWriter *kafkaadapter.AuditWriter
	if cfg.KafkaAuditEnabled {
		auditWriter = kafkaadapter.NewAuditWriter(cfg, logger)
		events = auditWriter
		logger.Info("audit feed enabled", "topic", cfg.KafkaAuditTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("audit feed disabled")
	}

	engine := lifecycle.NewEngine(store, events, logger, metrics, clockwork.NewRealClock())
	srv := httpapi.NewServer(cfg.HTTPAddr, engine, logger, metrics)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if auditWriter != nil {
		if err := auditWriter.Close(); err != nil {
			logger.Error("audit writer close error", "error", err)
		}
	}
	if closeStore != nil {
		if err := closeStore(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
