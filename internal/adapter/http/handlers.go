package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/urbanwatch/city-anomaly-ingest/internal/chat"
	"github.com/urbanwatch/city-anomaly-ingest/internal/domain"
	"github.com/urbanwatch/city-anomaly-ingest/internal/pipeline"
)

// Default identities applied when the request omits them, so anonymous
// submissions still get session continuity within a client.
const (
	defaultReporterID        = "anonymous_reporter"
	defaultReporterSessionID = "default_anomaly_session"
	defaultChatUserID        = "default_user"
	defaultChatSessionID     = "default_session"
)

type ingestRequest struct {
	Time            float64 `json:"time"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	ImageDataBase64 string  `json:"image_data_base64"`
	UserInput       string  `json:"user_input"`
	UserID          string  `json:"user_id"`
	SessionID       string  `json:"session_id"`
}

type chatRequest struct {
	UserInput string `json:"user_input"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
		return
	}
	if req.ImageDataBase64 == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "image_data_base64 is required")
		return
	}
	if req.UserID == "" {
		req.UserID = defaultReporterID
	}
	if req.SessionID == "" {
		req.SessionID = defaultReporterSessionID
	}

	when := time.Now()
	if req.Time > 0 {
		sec := int64(req.Time)
		when = time.Unix(sec, int64((req.Time-float64(sec))*1e9))
	}

	report, err := s.ingester.Ingest(r.Context(), pipeline.Request{
		Time:            when,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		ImageDataBase64: req.ImageDataBase64,
		UserInput:       req.UserInput,
		UserID:          req.UserID,
		SessionID:       req.SessionID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
		return
	}
	if req.UserInput == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_input is required")
		return
	}
	if req.UserID == "" {
		req.UserID = defaultChatUserID
	}
	if req.SessionID == "" {
		req.SessionID = defaultChatSessionID
	}

	answer, err := s.chat.Answer(r.Context(), chat.Request{
		UserInput: req.UserInput,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"final_output": answer})
}

// writeDomainError maps the error taxonomy to HTTP statuses: caller mistakes
// are 4xx, upstream model and provider failures are 502, everything else 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		decodeErr *domain.DecodeError
		schemaErr *domain.SchemaValidationError
		svcErr    *domain.ExternalServiceError
		colErr    *domain.MissingColumnError
	)
	switch {
	case errors.As(err, &decodeErr):
		writeError(w, http.StatusBadRequest, "invalid_image", decodeErr.Error())
	case errors.As(err, &schemaErr):
		s.logger.Error("schema validation failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "model_output_invalid", schemaErr.Error())
	case errors.As(err, &svcErr):
		s.logger.Error("upstream service failed", "path", r.URL.Path, "service", svcErr.Service, "error", err)
		writeError(w, http.StatusBadGateway, "upstream_unavailable", svcErr.Error())
	case errors.As(err, &colErr):
		s.logger.Error("history store misconfigured", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "history_corrupt", colErr.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}
