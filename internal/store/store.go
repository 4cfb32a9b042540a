// Package store persists assembled anomaly reports. The CSV backend mirrors
// the flat submission-history file format; the SQL backend targets SQLite and
// PostgreSQL through sqlx.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urbanwatch/city-anomaly-ingest/internal/config"
	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
)

// Store is the persistence surface for anomaly reports. Append is the hot
// path during ingestion; ReadAll feeds the historical matcher.
type Store interface {
	Append(ctx context.Context, report domain.CityAnomalyReport) error
	ReadAll(ctx context.Context) ([]domain.CityAnomalyReport, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open creates the store selected by HISTORY_DRIVER.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.HistoryDriver {
	case config.DriverCSV:
		return NewCSVStore(cfg.HistoryDSN, logger)
	case config.DriverSQLite, config.DriverPostgres:
		return NewSQLStore(cfg.HistoryDriver, cfg.HistoryDSN, logger)
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.HistoryDriver)
	}
}
