package gemini

import (
	"google.golang.org/genai"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
)

// Response schemas for constrained JSON generation. These mirror the domain
// record shapes; parsing still re-validates because constrained decoding
// narrows but does not guarantee model output.

var anomalySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"event_type": {
			Type: genai.TypeString,
			Enum: domain.EventTypes,
		},
		"sub_event_type": {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"description":    {Type: genai.TypeString},
		"severity_score": {Type: genai.TypeInteger},
	},
	Required: []string{"event_type", "description", "severity_score"},
}

var addressSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"latitude":          {Type: genai.TypeNumber},
		"longitude":         {Type: genai.TypeNumber},
		"formatted_address": {Type: genai.TypeString},
		"house_number":      {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"street_name":       {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"area_name":         {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"city":              {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"district":          {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"state":             {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"country":           {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"country_code":      {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"postal_code":       {Type: genai.TypeString, Nullable: genai.Ptr(true)},
	},
	Required: []string{"latitude", "longitude", "formatted_address"},
}

var streetsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"street_names": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"street_names"},
}
