// Package chat answers route-planning questions by matching queried street
// names against the submission history and composing a model-written answer.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/observability"
	"github.com/urbanwatch/city-anomaly-ingest/internal/session"
)

// StreetExtractor pulls candidate street names out of a free-text query.
type StreetExtractor interface {
	ExtractStreets(ctx context.Context, query string) ([]string, error)
}

// AnswerComposer writes the final user-facing answer.
type AnswerComposer interface {
	ComposeAnswer(ctx context.Context, history []session.Turn, query string, matches []domain.MatchRecord) (string, error)
}

// HistoricalMatcher finds past reports for a set of street names.
type HistoricalMatcher interface {
	FindMatches(ctx context.Context, streets []string) ([]domain.MatchRecord, error)
}

// Request is one chat turn.
type Request struct {
	UserInput string
	UserID    string
	SessionID string
}

// Service orchestrates extract-match-compose for a chat turn.
type Service struct {
	extractor    StreetExtractor
	matcher      HistoricalMatcher
	composer     AnswerComposer
	sessions     *session.Store
	app          string
	historyTurns int
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewService wires the chat stages together.
func NewService(extractor StreetExtractor, matcher HistoricalMatcher, composer AnswerComposer,
	sessions *session.Store, app string, historyTurns int,
	logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		extractor:    extractor,
		matcher:      matcher,
		composer:     composer,
		sessions:     sessions,
		app:          app,
		historyTurns: historyTurns,
		logger:       logger,
		metrics:      metrics,
	}
}

// Answer processes one chat turn and returns the composed answer text.
func (s *Service) Answer(ctx context.Context, req Request) (string, error) {
	sess, created := s.sessions.GetOrCreate(s.app, req.UserID, req.SessionID)
	if created {
		s.metrics.SessionsCreated.Inc()
		s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	}

	streets, err := s.extractor.ExtractStreets(ctx, req.UserInput)
	if err != nil {
		return "", fmt.Errorf("extract streets: %w", err)
	}

	matches, err := s.matcher.FindMatches(ctx, streets)
	if err != nil {
		return "", fmt.Errorf("match history: %w", err)
	}
	s.logger.Info("chat query matched", "streets", len(streets), "matches", len(matches))

	answer, err := s.composer.ComposeAnswer(ctx, sess.History(s.historyTurns), req.UserInput, matches)
	if err != nil {
		return "", fmt.Errorf("compose answer: %w", err)
	}

	sess.Append(session.RoleUser, req.UserInput)
	sess.Append(session.RoleModel, answer)
	return answer, nil
}
