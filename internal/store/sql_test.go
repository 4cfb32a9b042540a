package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanwatch/city-anomaly-ingest/internal/config"
	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "history.db")
	s, err := NewSQLStore(config.DriverSQLite, dsn, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLStore_AppendThenReadAll_RoundTrips(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	first := sampleReport("r-1")
	second := sampleReport("r-2")
	second.UnixTimestamp = first.UnixTimestamp + 60
	second.SubEventType = nil
	second.HouseNumber = nil

	// Insert out of order; ReadAll returns timestamp order.
	require.NoError(t, s.Append(ctx, second))
	require.NoError(t, s.Append(ctx, first))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]domain.CityAnomalyReport{first, second}, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLStore_Append_DuplicateReportIDFails(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, sampleReport("r-1")))
	assert.Error(t, s.Append(ctx, sampleReport("r-1")))
}

func TestSQLStore_ReadAll_EmptyTable(t *testing.T) {
	s := newTestSQLStore(t)

	got, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLStore_Ping(t *testing.T) {
	s := newTestSQLStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_SelectsDriver(t *testing.T) {
	dir := t.TempDir()

	t.Run("csv", func(t *testing.T) {
		cfg := &config.Config{HistoryDriver: config.DriverCSV, HistoryDSN: filepath.Join(dir, "h.csv")}
		s, err := Open(cfg, discardLogger())
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &CSVStore{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{HistoryDriver: config.DriverSQLite, HistoryDSN: filepath.Join(dir, "h.db")}
		s, err := Open(cfg, discardLogger())
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLStore{}, s)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{HistoryDriver: "oracle", HistoryDSN: "x"}
		_, err := Open(cfg, discardLogger())
		assert.Error(t, err)
	})
}
