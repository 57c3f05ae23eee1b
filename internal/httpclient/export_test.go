package httpclient

import (
	"context"
	"net/http"
	"time"
)

// WithWait replaces the retry wait, letting tests observe wait durations
func WithWait(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(rc *RetryingClient) {
		rc.wait = fn
	}
}

// ParseRetryAfter exposes parseRetryAfter to tests
var ParseRetryAfter = parseRetryAfter

// HTTPClient returns the http.Client requests are sent with
func (c *RetryingClient) HTTPClient() *http.Client {
	return c.client
}
