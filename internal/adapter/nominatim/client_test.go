package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/observability"
)

const testUserAgent = "city-anomaly-ingest-test/0.1"

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		userAgent:  testUserAgent,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_ReverseGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "48.8556000", r.URL.Query().Get("lat"))
		assert.Equal(t, "2.3622000", r.URL.Query().Get("lon"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		resp := response{
			DisplayName: "12, Rue de Rivoli, Paris, Île-de-France, 75004, France",
			Address: address{
				HouseNumber: "12",
				Road:        "Rue de Rivoli",
				Suburb:      "4th Arrondissement",
				City:        "Paris",
				State:       "Île-de-France",
				Country:     "France",
				CountryCode: "fr",
				Postcode:    "75004",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.ReverseGeocode(context.Background(), 48.8556, 2.3622)
	require.NoError(t, err)

	assert.Equal(t, "Rue de Rivoli", result.Road)
	assert.Equal(t, "4th Arrondissement", result.Suburb)
	assert.Equal(t, "Paris", result.City)
	assert.Equal(t, "fr", result.CountryCode)
	assert.Contains(t, result.FormattedAddress, "Rue de Rivoli")
}

func TestClient_ReverseGeocode_CityFallsBackToTownThenVillage(t *testing.T) {
	tests := []struct {
		name string
		addr address
		want string
	}{
		{"city wins", address{City: "Paris", Town: "T", Village: "V"}, "Paris"},
		{"town next", address{Town: "Giverny-sur-Mer", Village: "V"}, "Giverny-sur-Mer"},
		{"village last", address{Village: "Oradour"}, "Oradour"},
		{"all empty", address{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := response{DisplayName: "x", Address: tt.addr}.toResult()
			assert.Equal(t, tt.want, got.City)
		})
	}
}

func TestClient_ReverseGeocode_UnresolvableCoordinate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"error": "Unable to geocode"}`)
	}))
	defer srv.Close()

	// Middle of the South Atlantic: 200 OK with an error body, not a failure.
	result, err := testClient(srv.URL).ReverseGeocode(context.Background(), -34.0, -15.0)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestClient_ReverseGeocode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bandwidth limit exceeded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), 48.8556, 2.3622)
	var svcErr *domain.ExternalServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "nominatim", svcErr.Service)
}

func TestClient_ReverseGeocode_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "<html>not json</html>")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), 48.8556, 2.3622)
	var svcErr *domain.ExternalServiceError
	assert.ErrorAs(t, err, &svcErr)
}

func TestClient_ReverseGeocode_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, "{}")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).ReverseGeocode(ctx, 48.8556, 2.3622)
	assert.Error(t, err)
}
