package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/urbanwatch/city-anomaly-ingest/internal/adapter/http"
	"github.com/urbanwatch/city-anomaly-ingest/internal/chat"
	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/pipeline"
)

// --- mocks ---

type mockIngester struct {
	report   domain.CityAnomalyReport
	err      error
	readyErr error
	gotReq   pipeline.Request
}

func (m *mockIngester) Ingest(_ context.Context, req pipeline.Request) (domain.CityAnomalyReport, error) {
	m.gotReq = req
	return m.report, m.err
}

func (m *mockIngester) CheckReadiness(_ context.Context) error { return m.readyErr }

type mockChat struct {
	answer string
	err    error
	gotReq chat.Request
}

func (m *mockChat) Answer(_ context.Context, req chat.Request) (string, error) {
	m.gotReq = req
	return m.answer, m.err
}

func strPtr(s string) *string { return &s }

func sampleReport() domain.CityAnomalyReport {
	return domain.CityAnomalyReport{
		ReportID:      "report-123",
		UnixTimestamp: 1756300000.25,
		AnomalyRecord: domain.AnomalyRecord{
			EventType:     domain.EventInfrastructureIssue,
			Description:   "Large pothole spanning one lane.",
			SeverityScore: 5,
		},
		AddressRecord: domain.AddressRecord{
			Latitude:         48.8556,
			Longitude:        2.3622,
			FormattedAddress: "Rue de Rivoli, Paris",
			StreetName:       strPtr("Rue de Rivoli"),
		},
	}
}

func newTestServer(ingester *mockIngester, chatSvc *mockChat) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", ingester, chatSvc, logger)
}

func doJSON(t *testing.T, srv *httpadapter.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

// --- health and readiness ---

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockIngester{}, &mockChat{})
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(&mockIngester{}, &mockChat{})
		rec := doJSON(t, srv, http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		srv := newTestServer(&mockIngester{readyErr: errors.New("store unreachable")}, &mockChat{})
		rec := doJSON(t, srv, http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body["error"], "store unreachable")
	})
}

func TestMetricsEndpointRegistered(t *testing.T) {
	srv := newTestServer(&mockIngester{}, &mockChat{})
	rec := doJSON(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- ingest endpoint ---

func TestIngest_Success(t *testing.T) {
	ingester := &mockIngester{report: sampleReport()}
	srv := newTestServer(ingester, &mockChat{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/anomaly-reports", `{
		"time": 1756300000.25,
		"latitude": 48.8556,
		"longitude": 2.3622,
		"image_data_base64": "aGVsbG8=",
		"user_input": "wall just collapsed",
		"user_id": "reporter-7",
		"session_id": "s-1"
	}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body domain.CityAnomalyReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "report-123", body.ReportID)
	assert.Equal(t, domain.EventInfrastructureIssue, body.EventType)

	assert.Equal(t, 48.8556, ingester.gotReq.Latitude)
	assert.Equal(t, "reporter-7", ingester.gotReq.UserID)
	assert.InDelta(t, 1756300000.25, float64(ingester.gotReq.Time.UnixMilli())/1000, 0.001)
}

func TestIngest_DefaultsAppliedForMissingIdentity(t *testing.T) {
	ingester := &mockIngester{report: sampleReport()}
	srv := newTestServer(ingester, &mockChat{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/anomaly-reports",
		`{"latitude": 1, "longitude": 2, "image_data_base64": "aGVsbG8="}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "anonymous_reporter", ingester.gotReq.UserID)
	assert.Equal(t, "default_anomaly_session", ingester.gotReq.SessionID)
	assert.False(t, ingester.gotReq.Time.IsZero(), "missing time falls back to server time")
}

func TestIngest_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"latitude": `},
		{"missing image", `{"latitude": 1, "longitude": 2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&mockIngester{}, &mockChat{})
			rec := doJSON(t, srv, http.MethodPost, "/v1/anomaly-reports", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestIngest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "decode error is the caller's fault",
			err:        &domain.DecodeError{Reason: "invalid base64 image data"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_image",
		},
		{
			name:       "schema validation is an upstream model fault",
			err:        &domain.SchemaValidationError{Branch: domain.BranchAnomaly, Reason: "bad json"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "model_output_invalid",
		},
		{
			name:       "external service failure",
			err:        &domain.ExternalServiceError{Service: "nominatim", Err: errors.New("503")},
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream_unavailable",
		},
		{
			name:       "unexpected error is opaque",
			err:        errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&mockIngester{err: tt.err}, &mockChat{})
			rec := doJSON(t, srv, http.MethodPost, "/v1/anomaly-reports",
				`{"latitude": 1, "longitude": 2, "image_data_base64": "aGVsbG8="}`)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.wantCode == "internal" {
				assert.NotContains(t, body.Error.Message, "disk full", "internal details must not leak")
			}
		})
	}
}

// --- chat endpoint ---

func TestChat_Success(t *testing.T) {
	chatSvc := &mockChat{answer: "Main St flooded last week."}
	srv := newTestServer(&mockIngester{}, chatSvc)

	rec := doJSON(t, srv, http.MethodPost, "/v1/chat",
		`{"user_input": "Is Main St safe?", "user_id": "u-1", "session_id": "s-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Main St flooded last week.", body["final_output"])
	assert.Equal(t, "u-1", chatSvc.gotReq.UserID)
}

func TestChat_DefaultsAppliedForMissingIdentity(t *testing.T) {
	chatSvc := &mockChat{answer: "ok"}
	srv := newTestServer(&mockIngester{}, chatSvc)

	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", `{"user_input": "Is Main St safe?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "default_user", chatSvc.gotReq.UserID)
	assert.Equal(t, "default_session", chatSvc.gotReq.SessionID)
}

func TestChat_MissingUserInput(t *testing.T) {
	srv := newTestServer(&mockIngester{}, &mockChat{})
	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_HistoryStoreErrorIs500(t *testing.T) {
	chatSvc := &mockChat{err: &domain.MissingColumnError{Columns: []string{"street_name"}}}
	srv := newTestServer(&mockIngester{}, chatSvc)

	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", `{"user_input": "Is Main St safe?"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "history_corrupt", body.Error.Code)
}
