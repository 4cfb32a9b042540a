package gemini

import (
	"context"
	"encoding/base64"
	"log/slog"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
)

const defaultImageMIMEType = "image/jpeg"

// dataURIRe splits a data-URI image payload into its MIME type and base64
// data, e.g. "data:image/png;base64,iVBOR..." -> ("image/png", "iVBOR...").
var dataURIRe = regexp.MustCompile(`^data:(image/[\w.+-]+);base64,(.+)$`)

// decodeImagePayload decodes a data-URI-prefixed or bare base64 image string.
// Bare payloads default to image/jpeg with a logged warning. Malformed input
// is a typed DecodeError, never error-shaped description text.
func decodeImagePayload(payload string, logger *slog.Logger) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", &domain.DecodeError{Reason: "empty image payload"}
	}

	mimeType := defaultImageMIMEType
	data := payload
	if m := dataURIRe.FindStringSubmatch(payload); m != nil {
		mimeType, data = m[1], m[2]
	} else {
		logger.Warn("image payload has no data URI prefix, assuming image/jpeg")
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", &domain.DecodeError{Reason: "invalid base64 image data", Err: err}
	}
	if len(raw) == 0 {
		return nil, "", &domain.DecodeError{Reason: "decoded image is empty"}
	}
	return raw, mimeType, nil
}

// DescribeImage decodes the image payload and asks the vision model for a
// free-text description of visible anomalies. The model answers "Normal"
// when nothing anomalous is visible.
func (c *Client) DescribeImage(ctx context.Context, payload string) (string, error) {
	raw, mimeType, err := decodeImagePayload(payload, c.logger)
	if err != nil {
		c.metrics.ModelRequests.WithLabelValues(opDescribe, "error").Inc()
		return "", err
	}
	c.logger.Debug("decoded image payload", "mime_type", mimeType, "bytes", len(raw))

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(describeImagePrompt),
			genai.NewPartFromBytes(raw, mimeType),
		}, genai.RoleUser),
	}

	return c.generate(ctx, opDescribe, c.visionModel, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	})
}
