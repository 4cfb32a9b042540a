// Package nominatim implements domain.Geocoder against the OSM Nominatim
// reverse geocoding API, plus an LRU cache decorator to stay inside the
// public instance's rate limits.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/observability"
)

// Client implements domain.Geocoder using the Nominatim reverse endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Nominatim client. userAgent identifies the service to
// the API operator; the public instance rejects requests without one.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		logger:     logger,
		metrics:    metrics,
	}
}

// ReverseGeocode converts coordinates to address components. A location
// Nominatim cannot resolve yields an empty result and a nil error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodeResult, error) {
	params := url.Values{
		"format": {"jsonv2"},
		"lat":    {fmt.Sprintf("%.7f", lat)},
		"lon":    {fmt.Sprintf("%.7f", lon)},
	}
	fullURL := c.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}, &domain.ExternalServiceError{Service: "nominatim", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}, &domain.ExternalServiceError{
			Service: "nominatim",
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	var nr response
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}, &domain.ExternalServiceError{
			Service: "nominatim",
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}

	// Nominatim signals an unresolvable coordinate with HTTP 200 and an
	// error field in the body.
	if nr.Error != "" {
		c.logger.Debug("coordinate not resolvable", "lat", lat, "lon", lon, "error", nr.Error)
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.GeocodeResult{}, nil
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return nr.toResult(), nil
}

// Nominatim API response types.

type response struct {
	Error       string  `json:"error"`
	DisplayName string  `json:"display_name"`
	Address     address `json:"address"`
}

type address struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	County        string `json:"county"`
	State         string `json:"state"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
	Postcode      string `json:"postcode"`
}

func (r response) toResult() domain.GeocodeResult {
	return domain.GeocodeResult{
		FormattedAddress: r.DisplayName,
		HouseNumber:      r.Address.HouseNumber,
		Road:             r.Address.Road,
		Suburb:           firstNonEmpty(r.Address.Suburb, r.Address.Neighbourhood),
		City:             firstNonEmpty(r.Address.City, r.Address.Town, r.Address.Village),
		County:           r.Address.County,
		State:            r.Address.State,
		Country:          r.Address.Country,
		CountryCode:      r.Address.CountryCode,
		Postcode:         r.Address.Postcode,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
