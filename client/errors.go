package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Argument validation errors, raised before any network I/O.
var (
	// ErrMissingID is returned when an entity ID is required and neither the
	// argument nor the configured bot ID supplies one.
	ErrMissingID = errors.New("botlist: missing entity id")

	// ErrMissingToken is returned by authenticated operations when no API
	// token is configured or supplied.
	ErrMissingToken = errors.New("botlist: operation requires an api token")

	// ErrInvalidPage is returned when a negative page number is supplied.
	ErrInvalidPage = errors.New("botlist: page must not be negative")

	// ErrInvalidCount is returned when a negative server count is supplied.
	ErrInvalidCount = errors.New("botlist: server count must not be negative")

	// ErrEmptyShards is returned when an empty shard list is supplied.
	ErrEmptyShards = errors.New("botlist: shard list must not be empty")
)

// APIError represents an error payload returned by the botlist.space API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("botlist: %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// RatelimitError is returned when the API responds 429. No retry is
// performed; retry policy belongs to the caller.
type RatelimitError struct {
	// Limit is the number of requests allowed per window.
	Limit int
	// RetryAfter is the window length in seconds.
	RetryAfter int
	// Endpoint is the API path that was hit.
	Endpoint string
}

// Error implements the error interface.
func (e *RatelimitError) Error() string {
	return fmt.Sprintf("botlist: ratelimited on %s: you may only request %s every %s",
		e.Endpoint, pluralize(e.Limit, "time"), pluralize(e.RetryAfter, "second"))
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

// IsNotFound returns true if the error is an API error with HTTP status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool {
	var rlErr *RatelimitError
	return errors.As(err, &rlErr)
}

// classify inspects a response and converts rate limits and API-level error
// payloads into typed errors. It runs identically for every request verb.
func classify(status int, header http.Header, endpoint string, body []byte) error {
	if status == http.StatusTooManyRequests {
		limit, _ := strconv.Atoi(header.Get("X-Ratelimit-Limit"))
		retry, _ := strconv.Atoi(header.Get("Retry-After"))
		return &RatelimitError{Limit: limit, RetryAfter: retry, Endpoint: endpoint}
	}

	var probe struct {
		Code    *int   `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Code != nil {
		if *probe.Code < 200 || *probe.Code >= 300 {
			return &APIError{StatusCode: status, Code: *probe.Code, Message: probe.Message}
		}
	}
	return nil
}
