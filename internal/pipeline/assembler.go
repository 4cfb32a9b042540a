// Package pipeline assembles anomaly reports: image description, then two
// concurrent structuring branches, then an all-or-nothing merge and persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/urbanwatch/city-anomaly-ingest/internal/config"
	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/observability"
	"github.com/urbanwatch/city-anomaly-ingest/internal/session"
)

// ImageDescriber turns an image payload into free-text anomaly description.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, payload string) (string, error)
}

// AnomalyStructurer classifies description text into a structured record.
type AnomalyStructurer interface {
	StructureAnomaly(ctx context.Context, history []session.Turn, description string) (domain.AnomalyRecord, error)
}

// AddressStructurer turns raw geocoder output into a structured address.
type AddressStructurer interface {
	StructureAddress(ctx context.Context, history []session.Turn, lat, lon float64, rawAddress string) (domain.AddressRecord, error)
}

// Request carries one ingestion submission through assembly.
type Request struct {
	Time            time.Time
	Latitude        float64
	Longitude       float64
	ImageDataBase64 string
	UserInput       string
	UserID          string
	SessionID       string
}

// Assembler runs the describe-structure-merge sequence for one request.
type Assembler struct {
	describer    ImageDescriber
	anomalies    AnomalyStructurer
	geocoder     domain.Geocoder
	addresses    AddressStructurer
	sessions     *session.Store
	app          string
	decodePolicy string
	historyTurns int
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewAssembler wires the assembly stages together.
func NewAssembler(
	describer ImageDescriber,
	anomalies AnomalyStructurer,
	geocoder domain.Geocoder,
	addresses AddressStructurer,
	sessions *session.Store,
	cfg *config.Config,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Assembler {
	return &Assembler{
		describer:    describer,
		anomalies:    anomalies,
		geocoder:     geocoder,
		addresses:    addresses,
		sessions:     sessions,
		app:          cfg.SessionApp,
		decodePolicy: cfg.DecodeFailurePolicy,
		historyTurns: cfg.MaxHistoryTurns,
		logger:       logger,
		metrics:      metrics,
	}
}

// Assemble runs both structuring branches concurrently and merges their
// outputs into one report. If either branch fails the whole assembly fails
// and nothing is persisted; the returned error identifies the branch.
func (a *Assembler) Assemble(ctx context.Context, req Request) (domain.CityAnomalyReport, error) {
	sess, created := a.sessions.GetOrCreate(a.app, req.UserID, req.SessionID)
	if created {
		a.metrics.SessionsCreated.Inc()
		a.metrics.ActiveSessions.Set(float64(a.sessions.Len()))
	}

	description, err := a.describer.DescribeImage(ctx, req.ImageDataBase64)
	if err != nil {
		var decodeErr *domain.DecodeError
		if errors.As(err, &decodeErr) && a.decodePolicy == config.DecodePolicyNormal {
			a.logger.Warn("image decode failed, downgrading to Normal",
				"user_id", req.UserID, "reason", decodeErr.Reason)
			description = domain.EventNormal
		} else {
			a.metrics.IngestFailures.WithLabelValues("decode").Inc()
			return domain.CityAnomalyReport{}, err
		}
	}

	if req.UserInput != "" {
		description = fmt.Sprintf("%s\n\nReporter note: %s", description, req.UserInput)
	}

	history := sess.History(a.historyTurns)

	var (
		anomaly domain.AnomalyRecord
		address domain.AddressRecord
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		defer func() {
			a.metrics.BranchDuration.WithLabelValues(domain.BranchAnomaly).Observe(time.Since(start).Seconds())
		}()
		var err error
		anomaly, err = a.anomalies.StructureAnomaly(gctx, history, description)
		if err != nil {
			a.metrics.IngestFailures.WithLabelValues(domain.BranchAnomaly).Inc()
			return fmt.Errorf("%s branch: %w", domain.BranchAnomaly, err)
		}
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		defer func() {
			a.metrics.BranchDuration.WithLabelValues(domain.BranchAddress).Observe(time.Since(start).Seconds())
		}()

		geo, err := a.geocoder.ReverseGeocode(gctx, req.Latitude, req.Longitude)
		if err != nil {
			a.metrics.IngestFailures.WithLabelValues(domain.BranchAddress).Inc()
			return fmt.Errorf("%s branch: %w", domain.BranchAddress, err)
		}
		address, err = a.addresses.StructureAddress(gctx, history, req.Latitude, req.Longitude, geo.PromptText())
		if err != nil {
			a.metrics.IngestFailures.WithLabelValues(domain.BranchAddress).Inc()
			return fmt.Errorf("%s branch: %w", domain.BranchAddress, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.CityAnomalyReport{}, err
	}

	report := domain.MergeReport(float64(req.Time.UnixMilli())/1000, anomaly, address)

	sess.Append(session.RoleUser, description)
	sess.Append(session.RoleModel, fmt.Sprintf("Recorded %s (severity %d) at %s.",
		report.EventType, report.SeverityScore, report.FormattedAddress))

	a.logger.Info("assembled report",
		"report_id", report.ReportID,
		"event_type", report.EventType,
		"severity_score", report.SeverityScore,
		"street", derefOr(report.StreetName, ""),
	)
	return report, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
