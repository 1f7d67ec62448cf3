package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingToken  = fmt.Errorf("missing API token")

	// Authentication errors
	ErrUnauthorized = fmt.Errorf("unauthorized")
	ErrTokenExpired = fmt.Errorf("access token expired")
	ErrTimeout      = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMalformedResponse  = fmt.Errorf("malformed response")
	ErrNotFound           = fmt.Errorf("not found")
	ErrListNotFound       = fmt.Errorf("list not found")
	ErrFilterNotFound     = fmt.Errorf("filter setting not found")
	ErrMovieNotFound      = fmt.Errorf("movie not found")
	ErrPersonNotFound     = fmt.Errorf("person not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// APIError is a non-2xx response from the backend.
//
// It unwraps to [ErrUnauthorized], [ErrNotFound], [ErrInvalidInput] or [ErrAPIRequest] depending on the status.
type APIError struct {
	StatusCode int
	Detail     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", ErrAPIRequest, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", ErrAPIRequest, e.Path, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity:
		return ErrInvalidInput
	case e.StatusCode >= 500:
		return ErrServiceUnavailable
	default:
		return ErrAPIRequest
	}
}

// IsStatus reports whether err is an [APIError] with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}
