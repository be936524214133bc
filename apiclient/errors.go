package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
)

// HTTPError is a non-2xx response from the backend
type HTTPError struct {
	Status    int
	Message   string
	Body      []byte
	RequestID string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Message)
}

// Is lets callers test the common statuses against the console sentinels
func (e *HTTPError) Is(target error) bool {
	switch target {
	case apperrors.ErrValidation:
		return e.Status == http.StatusBadRequest
	case apperrors.ErrNotFound:
		return e.Status == http.StatusNotFound
	case apperrors.ErrForbiddenRole:
		return e.Status == http.StatusForbidden
	}
	return false
}

// ServerError reports a 5xx status
func (e *HTTPError) ServerError() bool {
	return e.Status >= http.StatusInternalServerError
}

func newHTTPError(resp *Response) *HTTPError {
	return &HTTPError{
		Status:    resp.Status,
		Message:   extractMessage(resp.Status, resp.Body),
		Body:      resp.Body,
		RequestID: resp.RequestID,
	}
}

// extractMessage finds the human readable message in an error body. It looks
// at message, detail and error first, then the first field error list.
func extractMessage(status int, body []byte) string {
	fallback := http.StatusText(status)
	if fallback == "" {
		fallback = fmt.Sprintf("status %d", status)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		text := strings.TrimSpace(string(body))
		if text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
			return text
		}
		return fallback
	}

	for _, key := range []string{"message", "detail", "error", "non_field_errors"} {
		if msg := flatten(payload[key]); msg != "" {
			return msg
		}
	}

	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if msg := flatten(payload[field]); msg != "" {
			return field + ": " + msg
		}
	}
	return fallback
}

// flatten accepts a string or a list of strings
func flatten(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, " ")
	}
	return ""
}

// UserMessage is what a screen should show for err
func UserMessage(err error) string {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return ""
	case apperrors.Is(err, apperrors.ErrValidation) && !apperrors.As(err, &httpErr):
		return strings.TrimPrefix(err.Error(), apperrors.ErrValidation.Error()+": ")
	case apperrors.As(err, &httpErr):
		if httpErr.ServerError() {
			return "The server had a problem handling that request. Please try again."
		}
		return httpErr.Message
	case apperrors.Is(err, apperrors.ErrNetwork):
		return "The inventory service could not be reached. Please try again."
	case apperrors.Is(err, apperrors.ErrMalformedResponse):
		return "The inventory service sent an unexpected response."
	}
	return "Something went wrong. Please try again."
}
