package httpclient

import (
	"fmt"
	"net/http"
)

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// HTTPError is returned for a non-throttling unsuccessful status
type HTTPError struct {
	StatusCode int
	Body       string
	Method     string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s %s: %s", e.StatusCode, e.Method, e.URL, e.Body)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, method, url, body string) error {
	return &HTTPError{
		StatusCode: statusCode,
		Body:       body,
		Method:     method,
		URL:        url,
	}
}

// RateLimitExhaustedError is returned when every attempt was throttled by the server
type RateLimitExhaustedError struct {
	Method   string
	URL      string
	Attempts int
}

// Error returns the error message
func (e *RateLimitExhaustedError) Error() string {
	return fmt.Sprintf("%s %s failed after %d retries due to rate limiting", e.Method, e.URL, e.Attempts)
}
