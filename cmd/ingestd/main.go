// Command ingestd runs the city anomaly ingestion service: an HTTP API that
// turns geotagged anomaly photos into structured reports, persists them, and
// answers route-planning questions against the accumulated history.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urbanwatch/city-anomaly-ingest/internal/adapter/gemini"
	httpadapter "github.com/urbanwatch/city-anomaly-ingest/internal/adapter/http"
	kafkaadapter "github.com/urbanwatch/city-anomaly-ingest/internal/adapter/kafka"
	"github.com/urbanwatch/city-anomaly-ingest/internal/adapter/nominatim"
	"github.com/urbanwatch/city-anomaly-ingest/internal/chat"
	"github.com/urbanwatch/city-anomaly-ingest/internal/config"
	"github.com/urbanwatch/city-anomaly-ingest/internal/matcher"
	"github.com/urbanwatch/city-anomaly-ingest/internal/observability"
	"github.com/urbanwatch/city-anomaly-ingest/internal/pipeline"
	"github.com/urbanwatch/city-anomaly-ingest/internal/session"
	"github.com/urbanwatch/city-anomaly-ingest/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model, err := gemini.NewClient(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}

	geoClient := nominatim.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, logger, metrics)
	geocoder := nominatim.NewCachedGeocoder(geoClient, cfg.GeocoderCacheSize, metrics)

	reportStore, err := store.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to open history store", "driver", cfg.HistoryDriver, "error", err)
		os.Exit(1)
	}

	var publisher pipeline.ReportPublisher
	var feedWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		feedWriter = kafkaadapter.NewWriter(cfg, logger)
		publisher = feedWriter
		logger.Info("kafka feed enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka feed disabled")
	}

	sessions := session.NewStore(nil, logger)

	assembler := pipeline.NewAssembler(model, model, geocoder, model, sessions, cfg, logger, metrics)
	ingest := pipeline.NewService(assembler, reportStore, publisher, logger, metrics)

	history := matcher.New(reportStore, cfg.MatchLookback, nil, logger, metrics)
	chatSvc := chat.NewService(model, history, model, sessions, cfg.SessionApp, cfg.MaxHistoryTurns, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, ingest, chatSvc, logger)

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
	if feedWriter != nil {
		if err := feedWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := reportStore.Close(); err != nil {
		logger.Error("history store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
