package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS anomaly_reports (
	report_id         TEXT PRIMARY KEY,
	unix_timestamp    DOUBLE PRECISION NOT NULL,
	event_type        TEXT NOT NULL,
	sub_event_type    TEXT,
	description       TEXT NOT NULL,
	severity_score    INTEGER NOT NULL,
	latitude          DOUBLE PRECISION NOT NULL,
	longitude         DOUBLE PRECISION NOT NULL,
	formatted_address TEXT NOT NULL,
	house_number      TEXT,
	street_name       TEXT,
	area_name         TEXT,
	city              TEXT,
	district          TEXT,
	state             TEXT,
	country           TEXT,
	country_code      TEXT,
	postal_code       TEXT
)`

const insertSQL = `
INSERT INTO anomaly_reports (
	report_id, unix_timestamp, event_type, sub_event_type, description,
	severity_score, latitude, longitude, formatted_address, house_number,
	street_name, area_name, city, district, state, country, country_code,
	postal_code
) VALUES (
	:report_id, :unix_timestamp, :event_type, :sub_event_type, :description,
	:severity_score, :latitude, :longitude, :formatted_address, :house_number,
	:street_name, :area_name, :city, :district, :state, :country, :country_code,
	:postal_code
)`

const selectAllSQL = `
SELECT report_id, unix_timestamp, event_type, sub_event_type, description,
	severity_score, latitude, longitude, formatted_address, house_number,
	street_name, area_name, city, district, state, country, country_code,
	postal_code
FROM anomaly_reports
ORDER BY unix_timestamp`

// SQLStore persists reports in a relational anomaly_reports table. The same
// code serves SQLite for single-node deployments and PostgreSQL for shared
// ones; sqlx rebinds placeholders per driver.
type SQLStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLStore opens the database and ensures the reports table exists.
func NewSQLStore(driver, dsn string, logger *slog.Logger) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql store: open %s: %w", driver, err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sql store: create table: %w", err)
	}
	return &SQLStore{db: db, logger: logger}, nil
}

// Append inserts one report row.
func (s *SQLStore) Append(ctx context.Context, report domain.CityAnomalyReport) error {
	if _, err := s.db.NamedExecContext(ctx, insertSQL, report); err != nil {
		return fmt.Errorf("sql store: insert report %s: %w", report.ReportID, err)
	}
	return nil
}

// ReadAll loads the full submission history in timestamp order.
func (s *SQLStore) ReadAll(ctx context.Context) ([]domain.CityAnomalyReport, error) {
	var reports []domain.CityAnomalyReport
	if err := s.db.SelectContext(ctx, &reports, selectAllSQL); err != nil {
		return nil, fmt.Errorf("sql store: read history: %w", err)
	}
	return reports, nil
}

// Ping verifies database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
