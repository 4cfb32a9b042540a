// Package gemini adapts the Gemini API to the ingestion pipeline: a vision
// call that describes anomaly photos and schema-constrained generation calls
// that structure free text into domain records.
package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/urbanwatch/city-anomaly-ingest/internal/config"
	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/observability"
	"github.com/urbanwatch/city-anomaly-ingest/internal/session"
)

// Model operation labels for metrics.
const (
	opDescribe         = "describe"
	opStructureAnomaly = "structure_anomaly"
	opStructureAddress = "structure_address"
	opExtractStreets   = "extract_streets"
	opComposeAnswer    = "compose_answer"
)

// Client wraps the Gemini SDK for the service's five model operations.
type Client struct {
	genai       *genai.Client
	model       string
	visionModel string
	timeout     time.Duration
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewClient creates a Gemini client from service configuration.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		genai:       gc,
		model:       cfg.GeminiModel,
		visionModel: cfg.GeminiVisionModel,
		timeout:     cfg.ModelTimeout,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// generate runs one bounded GenerateContent call and returns the trimmed
// response text. All failures surface as ExternalServiceError so the
// assembler treats them as fatal per-branch.
func (c *Client) generate(ctx context.Context, op, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(tctx, model, contents, cfg)
	c.metrics.ModelDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.ModelRequests.WithLabelValues(op, "error").Inc()
		return "", &domain.ExternalServiceError{Service: "gemini " + op, Err: err}
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		c.metrics.ModelRequests.WithLabelValues(op, "error").Inc()
		return "", &domain.ExternalServiceError{Service: "gemini " + op, Err: errors.New("empty model response")}
	}
	c.metrics.ModelRequests.WithLabelValues(op, "success").Inc()
	return text, nil
}

// contentsFromHistory converts session turns into model conversation context.
func contentsFromHistory(history []session.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.Role == session.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return contents
}
