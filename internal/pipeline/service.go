package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/observability"
)

// ReportStore is the persistence surface the ingest service needs.
type ReportStore interface {
	Append(ctx context.Context, report domain.CityAnomalyReport) error
	Ping(ctx context.Context) error
}

// ReportPublisher pushes a persisted report to the downstream feed.
type ReportPublisher interface {
	Publish(ctx context.Context, report domain.CityAnomalyReport) error
}

// Service runs the full ingestion sequence: assemble, persist, publish.
type Service struct {
	assembler *Assembler
	store     ReportStore
	publisher ReportPublisher // nil when no feed is configured
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates the ingest service. publisher may be nil.
func NewService(assembler *Assembler, store ReportStore, publisher ReportPublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		assembler: assembler,
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Ingest processes one submission end to end. Persistence failures are
// explicit errors, never silent drops. Feed publishing is best-effort: the
// report is already durable, so a broker outage only logs and counts.
func (s *Service) Ingest(ctx context.Context, req Request) (domain.CityAnomalyReport, error) {
	report, err := s.assembler.Assemble(ctx, req)
	if err != nil {
		return domain.CityAnomalyReport{}, err
	}

	if err := s.store.Append(ctx, report); err != nil {
		s.metrics.IngestFailures.WithLabelValues("persist").Inc()
		return domain.CityAnomalyReport{}, fmt.Errorf("persist report %s: %w", report.ReportID, err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, report); err != nil {
			s.metrics.PublishFailures.Inc()
			s.logger.Warn("feed publish failed", "report_id", report.ReportID, "error", err)
		} else {
			s.metrics.ReportsPublished.Inc()
		}
	}

	s.metrics.ReportsIngested.Inc()
	return report, nil
}

// CheckReadiness reports whether the backing store is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.store.Ping(ctx)
}
