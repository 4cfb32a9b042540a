package gemini

import (
	"encoding/base64"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeImagePayload(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	encoded := base64.StdEncoding.EncodeToString(raw)

	t.Run("data URI carries its own MIME type", func(t *testing.T) {
		got, mime, err := decodeImagePayload("data:image/png;base64,"+encoded, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, "image/png", mime)
		assert.Equal(t, raw, got)
	})

	t.Run("bare base64 defaults to image/jpeg", func(t *testing.T) {
		got, mime, err := decodeImagePayload(encoded, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", mime)
		assert.Equal(t, raw, got)
	})

	t.Run("surrounding whitespace is tolerated", func(t *testing.T) {
		_, _, err := decodeImagePayload("  "+encoded+"\n", discardLogger())
		assert.NoError(t, err)
	})

	t.Run("invalid base64 is a DecodeError", func(t *testing.T) {
		_, _, err := decodeImagePayload("data:image/png;base64,!!!not-base64!!!", discardLogger())
		var decodeErr *domain.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Contains(t, decodeErr.Reason, "base64")
	})

	t.Run("empty payload is a DecodeError", func(t *testing.T) {
		_, _, err := decodeImagePayload("   ", discardLogger())
		var decodeErr *domain.DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})

	t.Run("data URI with no data is a DecodeError", func(t *testing.T) {
		_, _, err := decodeImagePayload("data:image/png;base64,", discardLogger())
		var decodeErr *domain.DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})
}

func TestParseAnomalyJSON(t *testing.T) {
	t.Run("canonicalizes a valid record", func(t *testing.T) {
		rec, err := parseAnomalyJSON(`{
			"event_type": "structural damage",
			"sub_event_type": "collapsed balcony",
			"description": "Second-floor balcony has collapsed onto the sidewalk.",
			"severity_score": 8
		}`)
		require.NoError(t, err)
		assert.Equal(t, domain.EventStructuralDamage, rec.EventType)
		require.NotNil(t, rec.SubEventType)
		assert.Equal(t, "collapsed balcony", *rec.SubEventType)
		assert.Equal(t, 8, rec.SeverityScore)
	})

	t.Run("invalid JSON is a SchemaValidationError on the anomaly branch", func(t *testing.T) {
		_, err := parseAnomalyJSON("not json at all")
		var schemaErr *domain.SchemaValidationError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, domain.BranchAnomaly, schemaErr.Branch)
	})

	t.Run("unknown event type fails normalization", func(t *testing.T) {
		_, err := parseAnomalyJSON(`{"event_type":"alien landing","description":"x","severity_score":5}`)
		var schemaErr *domain.SchemaValidationError
		assert.ErrorAs(t, err, &schemaErr)
	})
}

func TestParseAddressJSON(t *testing.T) {
	t.Run("coordinates come from the request, not the model", func(t *testing.T) {
		rec, err := parseAddressJSON(`{
			"latitude": 0,
			"longitude": 0,
			"formatted_address": "12 Rue de Rivoli, 75004 Paris, France",
			"street_name": "Rue de Rivoli",
			"city": "Paris"
		}`, 48.8556, 2.3622)
		require.NoError(t, err)
		assert.Equal(t, 48.8556, rec.Latitude)
		assert.Equal(t, 2.3622, rec.Longitude)
		require.NotNil(t, rec.StreetName)
		assert.Equal(t, "Rue de Rivoli", *rec.StreetName)
	})

	t.Run("invalid JSON is a SchemaValidationError on the address branch", func(t *testing.T) {
		_, err := parseAddressJSON("{truncated", 1, 2)
		var schemaErr *domain.SchemaValidationError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, domain.BranchAddress, schemaErr.Branch)
	})

	t.Run("null-shaped optionals are scrubbed", func(t *testing.T) {
		rec, err := parseAddressJSON(`{
			"formatted_address": "Somewhere",
			"street_name": "null",
			"city": "None"
		}`, 1, 2)
		require.NoError(t, err)
		assert.Nil(t, rec.StreetName)
		assert.Nil(t, rec.City)
	})
}

func TestParseStreetsJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "multiple streets",
			input: `{"street_names": ["Main St", "Oak Avenue"]}`,
			want:  []string{"Main St", "Oak Avenue"},
		},
		{
			name:  "empty list",
			input: `{"street_names": []}`,
			want:  []string{},
		},
		{
			name:  "blank entries are dropped",
			input: `{"street_names": ["  ", "Main St", ""]}`,
			want:  []string{"Main St"},
		},
		{
			name:    "invalid JSON",
			input:   "nope",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStreetsJSON(tt.input)
			if tt.wantErr {
				var schemaErr *domain.SchemaValidationError
				assert.ErrorAs(t, err, &schemaErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentsFromHistory(t *testing.T) {
	history := []session.Turn{
		{Role: session.RoleUser, Text: "pothole on Main St"},
		{Role: session.RoleModel, Text: "recorded"},
	}
	contents := contentsFromHistory(history)
	require.Len(t, contents, 2)
	assert.Equal(t, genai.Role(genai.RoleUser), genai.Role(contents[0].Role))
	assert.Equal(t, genai.Role(genai.RoleModel), genai.Role(contents[1].Role))
	assert.Equal(t, "pothole on Main St", contents[0].Parts[0].Text)
}

func TestBuildMatchContext(t *testing.T) {
	t.Run("no matches", func(t *testing.T) {
		assert.Contains(t, buildMatchContext(nil), "none")
	})

	t.Run("renders one line per record", func(t *testing.T) {
		got := buildMatchContext([]domain.MatchRecord{
			{
				StreetName:    "Main St",
				AreaName:      "Downtown",
				City:          "Springfield",
				EventType:     domain.EventWeatherDamage,
				SubEventType:  "street flooding",
				Description:   "Water over the curb after heavy rain.",
				SeverityScore: 6,
			},
		})
		assert.Contains(t, got, `street "Main St"`)
		assert.Contains(t, got, "severity 6 (medium)")
		assert.Contains(t, got, "street flooding")
	})
}
