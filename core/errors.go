package core

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var (
	ErrMissingAPIKey     = errors.New("API key is required")
	ErrMissingBackendKey = errors.New("backend URL and key are required")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// UpstreamError is returned when an external API (LLM or hosted backend) answers with a non-2xx status.
// Body is the upstream JSON as-is, or {"error": "<raw text>"} when the upstream body is not JSON.
type UpstreamError struct {
	Service string
	Status  int
	Body    json.RawMessage
}

func NewUpstreamError(service string, status int, body []byte) *UpstreamError {
	raw := body
	if len(body) == 0 || !gjson.ValidBytes(body) {
		raw, _ = json.Marshal(map[string]string{"error": string(body)})
	}
	return &UpstreamError{Service: service, Status: status, Body: raw}
}

func (err UpstreamError) Error() string {
	return fmt.Sprintf("%s responded with %d: %s", err.Service, err.Status, string(err.Body))
}

// IsUpstream reports whether the cause of err is an *UpstreamError.
func IsUpstream(err error) (*UpstreamError, bool) {
	var uErr *UpstreamError
	if errors.As(err, &uErr) {
		return uErr, true
	}
	return nil, false
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
