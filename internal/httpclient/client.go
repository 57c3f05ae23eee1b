// Package httpclient provides the outbound HTTP client used to talk to the
// e-shop API. Every attempt passes through a rate limiter, and throttled
// responses are retried with Retry-After or exponential backoff.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"k8s.io/utils/clock"

	"github.com/stacklok/catalog-sync/internal/ratelimit"
	"github.com/stacklok/catalog-sync/internal/telemetry"
)

const (
	// DefaultTimeout is the default timeout for a single HTTP attempt
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is the total number of attempts made for one request
	DefaultMaxAttempts = 3

	// DefaultInitialBackoff is the first wait applied to a throttled response without Retry-After
	DefaultInitialBackoff = time.Second

	// MaxResponseSize is the maximum allowed response size (10MB)
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "catalog-sync/1.0"
)

// Doer issues a request and returns the fully read response
//
//go:generate mockgen -destination=mocks/mock_doer.go -package=mocks github.com/stacklok/catalog-sync/internal/httpclient Doer
type Doer interface {
	Do(ctx context.Context, method, url string, body []byte) (*Response, error)
}

// waitFunc suspends the caller for d or until ctx is done
type waitFunc func(ctx context.Context, d time.Duration) error

// RetryingClient sends requests through a rate limiter and retries throttled responses
type RetryingClient struct {
	client         *http.Client
	limiter        ratelimit.Limiter
	clock          clock.Clock
	wait           waitFunc
	header         http.Header
	maxAttempts    int
	initialBackoff time.Duration
	timeout        time.Duration
	metrics        *telemetry.ClientMetrics
}

// Option configures a RetryingClient
type Option func(*RetryingClient)

// WithHTTPClient replaces the underlying http.Client. The client is used as
// is; WithTimeout does not modify it.
func WithHTTPClient(c *http.Client) Option {
	return func(rc *RetryingClient) {
		rc.client = c
	}
}

// WithTimeout sets the per-attempt timeout of the default http.Client
func WithTimeout(d time.Duration) Option {
	return func(rc *RetryingClient) {
		if d > 0 {
			rc.timeout = d
		}
	}
}

// WithMaxAttempts overrides the number of attempts
func WithMaxAttempts(n int) Option {
	return func(rc *RetryingClient) {
		rc.maxAttempts = n
	}
}

// WithClock sets the clock used for retry waits
func WithClock(c clock.Clock) Option {
	return func(rc *RetryingClient) {
		rc.clock = c
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) Option {
	return func(rc *RetryingClient) {
		rc.header.Set(key, value)
	}
}

// WithMetrics records request outcomes
func WithMetrics(m *telemetry.ClientMetrics) Option {
	return func(rc *RetryingClient) {
		rc.metrics = m
	}
}

// NewRetryingClient creates a client that acquires a permit from limiter before every attempt
func NewRetryingClient(limiter ratelimit.Limiter, opts ...Option) (*RetryingClient, error) {
	if limiter == nil {
		return nil, fmt.Errorf("limiter is required")
	}

	rc := &RetryingClient{
		limiter:        limiter,
		clock:          clock.RealClock{},
		header:         make(http.Header),
		maxAttempts:    DefaultMaxAttempts,
		initialBackoff: DefaultInitialBackoff,
		timeout:        DefaultTimeout,
	}
	rc.header.Set("User-Agent", UserAgent)
	rc.header.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(rc)
	}
	if rc.maxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive, got %d", rc.maxAttempts)
	}
	if rc.client == nil {
		rc.client = &http.Client{Timeout: rc.timeout}
	}
	if rc.wait == nil {
		rc.wait = rc.clockWait
	}

	return rc, nil
}

// Do sends the request, retrying on 429 until the attempts are used up.
// Any other status >= 400 is returned as *HTTPError without retrying.
func (c *RetryingClient) Do(ctx context.Context, method, url string, body []byte) (*Response, error) {
	b := c.newBackOff()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		resp, err := c.send(ctx, method, url, body)
		if err != nil {
			c.metrics.RecordRequest(ctx, method, 0)
			return nil, err
		}
		c.metrics.RecordRequest(ctx, method, resp.StatusCode)

		if resp.StatusCode == http.StatusTooManyRequests {
			// The backoff advances on every throttled response, also when Retry-After wins
			wait := b.NextBackOff()
			if retryAfter, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
				wait = retryAfter
			}

			if attempt == c.maxAttempts {
				break
			}

			slog.Warn("Request throttled, retrying",
				"method", method,
				"url", url,
				"attempt", attempt,
				"wait", wait)
			c.metrics.RecordThrottled(ctx, method, wait)

			if err := c.wait(ctx, wait); err != nil {
				return nil, fmt.Errorf("waiting to retry %s %s: %w", method, url, err)
			}
			continue
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, NewHTTPError(resp.StatusCode, method, url, string(resp.Body))
		}

		return resp, nil
	}

	return nil, &RateLimitExhaustedError{Method: method, URL: url, Attempts: c.maxAttempts}
}

func (c *RetryingClient) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Minute
	b.Reset()
	return b
}

func (c *RetryingClient) send(ctx context.Context, method, url string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// +1 to detect if limit exceeded
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (c *RetryingClient) clockWait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := c.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

// parseRetryAfter reads Retry-After as a number of seconds. Fractions are
// accepted; HTTP dates, negative and non-finite values are not.
func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, false
	}

	return time.Duration(secs * float64(time.Second)), true
}
