package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// The closed event_type set. See the package documentation for what each
// category covers.
const (
	EventStructuralDamage    = "Structural Damage"
	EventEnvironmentalHazard = "Environmental Hazard"
	EventTrafficAnomaly      = "Traffic Anomaly"
	EventUnusualActivity     = "Unusual Activity"
	EventInfrastructureIssue = "Infrastructure Issue"
	EventPublicSafetyConcern = "Public Safety Concern"
	EventWeatherDamage       = "Weather-Related Damage"
	EventUtilityDisruption   = "Utility Disruption"
	EventNormal              = "Normal"
)

// EventTypes lists the closed set in canonical form.
var EventTypes = []string{
	EventStructuralDamage,
	EventEnvironmentalHazard,
	EventTrafficAnomaly,
	EventUnusualActivity,
	EventInfrastructureIssue,
	EventPublicSafetyConcern,
	EventWeatherDamage,
	EventUtilityDisruption,
	EventNormal,
}

// canonicalEventTypes maps lowercased event types back to canonical casing.
var canonicalEventTypes = func() map[string]string {
	m := make(map[string]string, len(EventTypes))
	for _, t := range EventTypes {
		m[strings.ToLower(t)] = t
	}
	return m
}()

// AnomalyRecord is the structured output of the anomaly branch.
type AnomalyRecord struct {
	EventType     string  `json:"event_type" db:"event_type"`
	SubEventType  *string `json:"sub_event_type,omitempty" db:"sub_event_type"`
	Description   string  `json:"description" db:"description"`
	SeverityScore int     `json:"severity_score" db:"severity_score"`
}

// NormalizeAnomaly canonicalizes and validates a structured anomaly record.
// The event type is matched case-insensitively against the closed set; an
// unknown type is a SchemaValidationError, not a silent pass-through.
// Normal reports have their severity clamped into the minimal band (1-2):
// the model occasionally scores "nothing happened" as if it were an incident,
// and a Normal row with high severity would poison downstream route planning.
func NormalizeAnomaly(r AnomalyRecord) (AnomalyRecord, error) {
	canonical, ok := canonicalEventTypes[strings.ToLower(strings.TrimSpace(r.EventType))]
	if !ok {
		return AnomalyRecord{}, &SchemaValidationError{
			Branch: BranchAnomaly,
			Reason: fmt.Sprintf("event_type %q is not in the closed set", r.EventType),
		}
	}
	r.EventType = canonical

	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		return AnomalyRecord{}, &SchemaValidationError{Branch: BranchAnomaly, Reason: "description is empty"}
	}

	if r.SeverityScore < MinSeverity || r.SeverityScore > MaxSeverity {
		return AnomalyRecord{}, &SchemaValidationError{
			Branch: BranchAnomaly,
			Reason: "severity_score out of range [1,10]",
		}
	}
	if r.EventType == EventNormal && r.SeverityScore > normalSeverityCap {
		r.SeverityScore = normalSeverityCap
	}

	if r.SubEventType != nil {
		sub := strings.TrimSpace(*r.SubEventType)
		if sub == "" || strings.EqualFold(sub, "null") || strings.EqualFold(sub, "none") {
			r.SubEventType = nil
		} else {
			r.SubEventType = &sub
		}
	}

	return r, nil
}

// AddressRecord is the structured output of the address branch. Latitude and
// longitude echo the request input. Optional fields are nil when the geocoder
// could not resolve them; absence is not an error.
type AddressRecord struct {
	Latitude         float64 `json:"latitude" db:"latitude"`
	Longitude        float64 `json:"longitude" db:"longitude"`
	FormattedAddress string  `json:"formatted_address" db:"formatted_address"`
	HouseNumber      *string `json:"house_number,omitempty" db:"house_number"`
	StreetName       *string `json:"street_name,omitempty" db:"street_name"`
	AreaName         *string `json:"area_name,omitempty" db:"area_name"`
	City             *string `json:"city,omitempty" db:"city"`
	District         *string `json:"district,omitempty" db:"district"`
	State            *string `json:"state,omitempty" db:"state"`
	Country          *string `json:"country,omitempty" db:"country"`
	CountryCode      *string `json:"country_code,omitempty" db:"country_code"`
	PostalCode       *string `json:"postal_code,omitempty" db:"postal_code"`
}

// NormalizeAddress validates a structured address record and scrubs
// "null"-shaped optional values the model sometimes emits as literal strings.
func NormalizeAddress(r AddressRecord) (AddressRecord, error) {
	r.FormattedAddress = strings.TrimSpace(r.FormattedAddress)
	if r.FormattedAddress == "" {
		return AddressRecord{}, &SchemaValidationError{Branch: BranchAddress, Reason: "formatted_address is empty"}
	}
	for _, f := range []**string{
		&r.HouseNumber, &r.StreetName, &r.AreaName, &r.City, &r.District,
		&r.State, &r.Country, &r.CountryCode, &r.PostalCode,
	} {
		if *f == nil {
			continue
		}
		v := strings.TrimSpace(**f)
		if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
			*f = nil
			continue
		}
		*f = &v
	}
	return r, nil
}

// CityAnomalyReport is the merged, durable entity: exactly one row per
// successful ingestion request.
type CityAnomalyReport struct {
	ReportID      string  `json:"report_id" db:"report_id"`
	UnixTimestamp float64 `json:"unix_timestamp" db:"unix_timestamp"`
	AnomalyRecord
	AddressRecord
}

// MergeReport combines the outputs of both branches into one report. Callers
// must pass already-normalized records; MergeReport itself never fails.
// Anomaly fields are assigned before address fields, so if a future schema
// change introduces a field collision the address branch takes precedence.
func MergeReport(unixTimestamp float64, anomaly AnomalyRecord, address AddressRecord) CityAnomalyReport {
	return CityAnomalyReport{
		ReportID:      uuid.NewString(),
		UnixTimestamp: unixTimestamp,
		AnomalyRecord: anomaly,
		AddressRecord: address,
	}
}

// MatchRecord is the fixed projection returned by the historical matcher.
// Optional source fields are flattened to empty strings.
type MatchRecord struct {
	EventType     string `json:"event_type"`
	SubEventType  string `json:"sub_event_type,omitempty"`
	AreaName      string `json:"area_name,omitempty"`
	StreetName    string `json:"street_name"`
	City          string `json:"city,omitempty"`
	Description   string `json:"description"`
	SeverityScore int    `json:"severity_score"`
}
