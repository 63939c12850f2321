package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrUnauthenticated matches any *APIError with status 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	// Errors holds field-level validation messages from 422 responses.
	Errors map[string][]string
	// RetryAfter is set from the Retry-After header on 429 responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Is reports 401 responses as ErrUnauthenticated.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.StatusCode == http.StatusUnauthorized
}

// FieldError returns the first message for field, or "".
func (e *APIError) FieldError(field string) string {
	if msgs := e.Errors[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// IsValidation reports whether err is a 422 with field errors.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// newAPIError builds an APIError from a response and its already-read body.
// A body that is not JSON keeps the status with an empty message.
func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Message = parsed.Message
		apiErr.Errors = parsed.Errors
	}

	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
		apiErr.RetryAfter = time.Duration(seconds) * time.Second
	}
	return apiErr
}
