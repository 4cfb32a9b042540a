// Package matcher answers "what happened on these streets before" against
// the submission history, for route-planning chat queries.
package matcher

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/observability"
)

// HistoryReader loads the full submission history.
type HistoryReader interface {
	ReadAll(ctx context.Context) ([]domain.CityAnomalyReport, error)
}

// Matcher finds historical reports whose street name exactly matches one of
// the queried streets, after trimming and lowercasing both sides.
type Matcher struct {
	history  HistoryReader
	lookback time.Duration // 0 means all history
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Matcher. Pass a nil clock for real time; lookback 0 searches
// all history.
func New(history HistoryReader, lookback time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Matcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Matcher{
		history:  history,
		lookback: lookback,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// FindMatches returns de-duplicated historical records for the given street
// names, preserving first-seen order. An empty street list short-circuits
// without touching the store. Store errors, including a history file with
// missing columns, propagate unchanged.
func (m *Matcher) FindMatches(ctx context.Context, streets []string) ([]domain.MatchRecord, error) {
	normalized := make(map[string]struct{}, len(streets))
	for _, s := range streets {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			normalized[s] = struct{}{}
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	m.metrics.MatcherQueries.Inc()

	reports, err := m.history.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		m.metrics.MatcherMatches.Observe(0)
		return nil, nil
	}

	var cutoff float64
	if m.lookback > 0 {
		cutoff = float64(m.clock.Now().Add(-m.lookback).UnixMilli()) / 1000
	}

	var (
		matches []domain.MatchRecord
		seen    = make(map[matchKey]struct{})
	)
	for _, r := range reports {
		if r.StreetName == nil {
			continue
		}
		if cutoff > 0 && r.UnixTimestamp < cutoff {
			continue
		}
		street := strings.ToLower(strings.TrimSpace(*r.StreetName))
		if _, ok := normalized[street]; !ok {
			continue
		}

		rec := projectMatch(r)
		key := keyOf(rec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		matches = append(matches, rec)
	}

	m.metrics.MatcherMatches.Observe(float64(len(matches)))
	m.logger.Debug("matched history", "streets", len(normalized), "matches", len(matches))
	return matches, nil
}

// projectMatch flattens a stored report to the fixed match projection.
func projectMatch(r domain.CityAnomalyReport) domain.MatchRecord {
	return domain.MatchRecord{
		EventType:     r.EventType,
		SubEventType:  deref(r.SubEventType),
		AreaName:      deref(r.AreaName),
		StreetName:    deref(r.StreetName),
		City:          deref(r.City),
		Description:   r.Description,
		SeverityScore: r.SeverityScore,
	}
}

type matchKey struct {
	eventType     string
	subEventType  string
	areaName      string
	streetName    string
	city          string
	description   string
	severityScore int
}

func keyOf(r domain.MatchRecord) matchKey {
	return matchKey{
		eventType:     r.EventType,
		subEventType:  r.SubEventType,
		areaName:      r.AreaName,
		streetName:    r.StreetName,
		city:          r.City,
		description:   r.Description,
		severityScore: r.SeverityScore,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
