package domain

import (
	"fmt"
	"strings"
)

// Branch names used in per-branch failure reporting.
const (
	BranchAnomaly = "anomaly"
	BranchAddress = "address"
)

// DecodeError indicates a malformed image payload. It is detected at the
// adapter boundary and escalated to a fatal ingestion error unless the
// configured decode-failure policy downgrades it to a Normal report.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode image payload: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode image payload: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SchemaValidationError indicates that model output did not conform to the
// target schema. It is fatal for the branch that produced it and aborts the
// whole report assembly.
type SchemaValidationError struct {
	Branch string
	Reason string
	Err    error
}

func (e *SchemaValidationError) Error() string {
	msg := fmt.Sprintf("%s branch: schema validation: %s", e.Branch, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// ExternalServiceError indicates a network failure, timeout, or upstream 5xx
// from a model or geocoding provider. Fatal per branch; retry policy belongs
// to the caller, never to the core.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// MissingColumnError indicates the historical store lacks required columns.
// Raised eagerly before any filtering; a store in this state is a
// configuration error, not an empty result.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("historical store is missing required columns: %s", strings.Join(e.Columns, ", "))
}
