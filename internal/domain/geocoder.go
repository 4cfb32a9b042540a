package domain

import (
	"context"
	"fmt"
	"strings"
)

// GeocodeResult holds the raw components a reverse-geocoding provider
// resolved for a coordinate pair. Unresolved components stay empty.
type GeocodeResult struct {
	FormattedAddress string
	HouseNumber      string
	Road             string
	Suburb           string
	City             string
	County           string
	State            string
	Country          string
	CountryCode      string
	Postcode         string
}

// Empty reports whether the provider resolved nothing at all.
func (r GeocodeResult) Empty() bool {
	return r == GeocodeResult{}
}

// PromptText renders the result as the labelled plain text fed to the address
// structuring model, one "key: value" line per resolved component.
func (r GeocodeResult) PromptText() string {
	if r.Empty() {
		return "No reverse geocoding data available."
	}
	var b strings.Builder
	for _, kv := range []struct{ key, val string }{
		{"formatted_address", r.FormattedAddress},
		{"house_number", r.HouseNumber},
		{"street_name", r.Road},
		{"area_name", r.Suburb},
		{"city", r.City},
		{"district", r.County},
		{"state", r.State},
		{"country", r.Country},
		{"country_code", r.CountryCode},
		{"postal_code", r.Postcode},
	} {
		if kv.val == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", kv.key, kv.val)
	}
	return b.String()
}

// Geocoder resolves coordinates to address components.
type Geocoder interface {
	// ReverseGeocode converts a WGS-84 coordinate pair to address components.
	// An unresolvable location yields an empty result, not an error.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodeResult, error)
}
