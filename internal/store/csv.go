package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
)

// csvColumns is the canonical column order of the submission history file.
var csvColumns = []string{
	"report_id",
	"unix_timestamp",
	"event_type",
	"sub_event_type",
	"description",
	"severity_score",
	"latitude",
	"longitude",
	"formatted_address",
	"house_number",
	"street_name",
	"area_name",
	"city",
	"district",
	"state",
	"country",
	"country_code",
	"postal_code",
}

// requiredColumns must be present in any history file the matcher reads.
// Files missing one of these are treated as corrupt, not as empty history.
var requiredColumns = []string{
	"street_name",
	"unix_timestamp",
	"event_type",
	"sub_event_type",
	"area_name",
	"city",
	"description",
	"severity_score",
}

// CSVStore persists reports as rows of a flat CSV file. A process-wide mutex
// serializes appends; the file is reopened per operation so external tools
// can rotate or inspect it between requests.
type CSVStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewCSVStore creates a CSV-file-backed store. The file is created lazily on
// first append.
func NewCSVStore(path string, logger *slog.Logger) (*CSVStore, error) {
	if path == "" {
		return nil, errors.New("csv store: path is empty")
	}
	return &CSVStore{path: path, logger: logger}, nil
}

// Append writes one report row, emitting the header first when the file is
// new or empty.
func (s *CSVStore) Append(_ context.Context, report domain.CityAnomalyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("csv store: open %s: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("csv store: stat %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvColumns); err != nil {
			return fmt.Errorf("csv store: write header: %w", err)
		}
	}
	if err := w.Write(reportToRow(report)); err != nil {
		return fmt.Errorf("csv store: write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv store: flush: %w", err)
	}
	return nil
}

// ReadAll loads the full submission history. A missing or empty file is
// empty history, not an error; a header missing required columns is a
// MissingColumnError.
func (s *CSVStore) ReadAll(_ context.Context) ([]domain.CityAnomalyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv store: open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv store: read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.MissingColumnError{Columns: missing}
	}

	var reports []domain.CityAnomalyReport
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv store: read row: %w", err)
		}
		report, err := rowToReport(row, idx)
		if err != nil {
			return nil, fmt.Errorf("csv store: line %d: %w", line, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Ping verifies the history file's directory is reachable. A not-yet-created
// file is healthy.
func (s *CSVStore) Ping(_ context.Context) error {
	_, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Close is a no-op; the file handle is not held between operations.
func (s *CSVStore) Close() error { return nil }

func reportToRow(r domain.CityAnomalyReport) []string {
	return []string{
		r.ReportID,
		strconv.FormatFloat(r.UnixTimestamp, 'f', -1, 64),
		r.EventType,
		deref(r.SubEventType),
		r.Description,
		strconv.Itoa(r.SeverityScore),
		strconv.FormatFloat(r.Latitude, 'f', -1, 64),
		strconv.FormatFloat(r.Longitude, 'f', -1, 64),
		r.FormattedAddress,
		deref(r.HouseNumber),
		deref(r.StreetName),
		deref(r.AreaName),
		deref(r.City),
		deref(r.District),
		deref(r.State),
		deref(r.Country),
		deref(r.CountryCode),
		deref(r.PostalCode),
	}
}

func rowToReport(row []string, idx map[string]int) (domain.CityAnomalyReport, error) {
	cell := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	ts, err := strconv.ParseFloat(cell("unix_timestamp"), 64)
	if err != nil {
		return domain.CityAnomalyReport{}, fmt.Errorf("parse unix_timestamp: %w", err)
	}
	severity, err := strconv.Atoi(cell("severity_score"))
	if err != nil {
		return domain.CityAnomalyReport{}, fmt.Errorf("parse severity_score: %w", err)
	}
	lat, _ := strconv.ParseFloat(cell("latitude"), 64)
	lon, _ := strconv.ParseFloat(cell("longitude"), 64)

	return domain.CityAnomalyReport{
		ReportID:      cell("report_id"),
		UnixTimestamp: ts,
		AnomalyRecord: domain.AnomalyRecord{
			EventType:     cell("event_type"),
			SubEventType:  ref(cell("sub_event_type")),
			Description:   cell("description"),
			SeverityScore: severity,
		},
		AddressRecord: domain.AddressRecord{
			Latitude:         lat,
			Longitude:        lon,
			FormattedAddress: cell("formatted_address"),
			HouseNumber:      ref(cell("house_number")),
			StreetName:       ref(cell("street_name")),
			AreaName:         ref(cell("area_name")),
			City:             ref(cell("city")),
			District:         ref(cell("district")),
			State:            ref(cell("state")),
			Country:          ref(cell("country")),
			CountryCode:      ref(cell("country_code")),
			PostalCode:       ref(cell("postal_code")),
		},
	}, nil
}

// deref flattens an optional field to its CSV cell; nil becomes an empty cell.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ref is the inverse of deref: an empty cell loads as nil.
func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
