package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/session"
)

// StructureAnomaly classifies a free-text anomaly description into an
// AnomalyRecord using schema-constrained generation. Prior session turns are
// passed as conversation context so multi-turn refinement works.
func (c *Client) StructureAnomaly(ctx context.Context, history []session.Turn, description string) (domain.AnomalyRecord, error) {
	contents := append(contentsFromHistory(history),
		genai.NewContentFromText(structureAnomalyInstruction+description, genai.RoleUser))

	text, err := c.generate(ctx, opStructureAnomaly, c.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   anomalySchema,
		Temperature:      genai.Ptr(float32(0.1)),
	})
	if err != nil {
		return domain.AnomalyRecord{}, err
	}
	return parseAnomalyJSON(text)
}

// StructureAddress turns raw reverse-geocoding output and the request
// coordinates into an AddressRecord.
func (c *Client) StructureAddress(ctx context.Context, history []session.Turn, lat, lon float64, rawAddress string) (domain.AddressRecord, error) {
	prompt := fmt.Sprintf("%sLatitude: %v, Longitude: %v\n\nReverse geocoding output:\n%s",
		structureAddressInstruction, lat, lon, rawAddress)
	contents := append(contentsFromHistory(history),
		genai.NewContentFromText(prompt, genai.RoleUser))

	text, err := c.generate(ctx, opStructureAddress, c.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   addressSchema,
		Temperature:      genai.Ptr(float32(0.1)),
	})
	if err != nil {
		return domain.AddressRecord{}, err
	}
	return parseAddressJSON(text, lat, lon)
}

func parseAnomalyJSON(text string) (domain.AnomalyRecord, error) {
	var rec domain.AnomalyRecord
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return domain.AnomalyRecord{}, &domain.SchemaValidationError{
			Branch: domain.BranchAnomaly,
			Reason: "model output is not valid JSON",
			Err:    err,
		}
	}
	return domain.NormalizeAnomaly(rec)
}

func parseAddressJSON(text string, lat, lon float64) (domain.AddressRecord, error) {
	var rec domain.AddressRecord
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return domain.AddressRecord{}, &domain.SchemaValidationError{
			Branch: domain.BranchAddress,
			Reason: "model output is not valid JSON",
			Err:    err,
		}
	}
	// Coordinates echo the request input; the model is not trusted with them.
	rec.Latitude = lat
	rec.Longitude = lon
	return domain.NormalizeAddress(rec)
}
