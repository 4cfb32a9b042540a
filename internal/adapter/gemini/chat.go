package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/session"
)

// ExtractStreets pulls candidate street names out of a free-text route query.
// Queries naming no streets yield an empty list, not an error.
func (c *Client) ExtractStreets(ctx context.Context, query string) ([]string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(extractStreetsInstruction+query, genai.RoleUser),
	}

	text, err := c.generate(ctx, opExtractStreets, c.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   streetsSchema,
		Temperature:      genai.Ptr(float32(0.0)),
	})
	if err != nil {
		return nil, err
	}
	return parseStreetsJSON(text)
}

// ComposeAnswer writes the user-facing chat response from the query and the
// historical matches found for its streets.
func (c *Client) ComposeAnswer(ctx context.Context, history []session.Turn, query string, matches []domain.MatchRecord) (string, error) {
	prompt := composeAnswerInstruction + buildMatchContext(matches) + "\nUser query: " + query
	contents := append(contentsFromHistory(history),
		genai.NewContentFromText(prompt, genai.RoleUser))

	return c.generate(ctx, opComposeAnswer, c.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.4)),
	})
}

func parseStreetsJSON(text string) ([]string, error) {
	var out struct {
		StreetNames []string `json:"street_names"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, &domain.SchemaValidationError{
			Branch: "street extraction",
			Reason: "model output is not valid JSON",
			Err:    err,
		}
	}
	streets := make([]string, 0, len(out.StreetNames))
	for _, s := range out.StreetNames {
		if s = strings.TrimSpace(s); s != "" {
			streets = append(streets, s)
		}
	}
	return streets, nil
}

// buildMatchContext renders matcher output as the context block for the
// answer-composition prompt, one record per line.
func buildMatchContext(matches []domain.MatchRecord) string {
	if len(matches) == 0 {
		return "Historical anomaly records: none.\n"
	}
	var b strings.Builder
	b.WriteString("Historical anomaly records:\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "- street %q", m.StreetName)
		if m.AreaName != "" {
			fmt.Fprintf(&b, " (%s)", m.AreaName)
		}
		if m.City != "" {
			fmt.Fprintf(&b, ", %s", m.City)
		}
		fmt.Fprintf(&b, ": %s", m.EventType)
		if m.SubEventType != "" {
			fmt.Fprintf(&b, " / %s", m.SubEventType)
		}
		fmt.Fprintf(&b, ", severity %d (%s): %s\n",
			m.SeverityScore, domain.SeverityBand(m.SeverityScore), m.Description)
	}
	return b.String()
}
