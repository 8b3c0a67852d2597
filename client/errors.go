package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// APIError is a non-2xx response of the API.
type APIError struct {
	Status int
	// Detail is the {"error": "..."} message, if any.
	Detail string
	// Fields holds the per-field validation messages of a 400.
	Fields map[string]string
}

func newAPIError(status int, body string) *APIError {
	apiErr := &APIError{Status: status}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		apiErr.Detail = http.StatusText(status)
		return apiErr
	}
	if msg, ok := payload["error"].(string); ok {
		apiErr.Detail = msg
		return apiErr
	}
	if msg, ok := payload["message"].(string); ok { // echo's default errors
		apiErr.Detail = msg
		return apiErr
	}
	apiErr.Fields = make(map[string]string, len(payload))
	for k, v := range payload {
		if s, ok := v.(string); ok {
			apiErr.Fields[k] = s
		}
	}
	return apiErr
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message())
}

// Message renders the error as the single line a form shows.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Fields) > 0 {
		return joinFields(e.Fields)
	}
	return http.StatusText(e.Status)
}

// FormError is raised before sending a form that would not pass the API validation.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string { return e.Message() }

func (e *FormError) Message() string { return joinFields(e.Fields) }

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// ErrorMessage returns the inline message of err.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	var formErr *FormError
	if errors.As(err, &formErr) {
		return formErr.Message()
	}
	return err.Error()
}
