// Package ratelimit provides request throttling for outbound API clients.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultWindow is the length of a rate limiting window
const DefaultWindow = time.Second

// Limiter blocks callers until they are permitted to proceed
//
//go:generate mockgen -destination=mocks/mock_limiter.go -package=mocks github.com/stacklok/catalog-sync/internal/ratelimit Limiter
type Limiter interface {
	// Acquire blocks until a permit is available or ctx is done
	Acquire(ctx context.Context) error
}

// FixedWindow is a fixed-window rate limiter that is safe for concurrent use.
//
// A window starts lazily on the first Acquire and holds rate tokens. Callers
// consume tokens without waiting while any remain. Once the bucket is empty a
// caller waits until the current window has expired and then opens a fresh
// one. Windows that expire without activity are not reset proactively, the
// next caller observes the age and starts a new window.
type FixedWindow struct {
	rate   int
	window time.Duration
	clock  clock.Clock

	mu          sync.Mutex
	tokens      int
	windowStart time.Time
	active      bool
}

// Option configures a FixedWindow
type Option func(*FixedWindow)

// WithClock sets the clock used to measure windows and to wait
func WithClock(c clock.Clock) Option {
	return func(l *FixedWindow) {
		l.clock = c
	}
}

// WithWindow overrides the window length
func WithWindow(d time.Duration) Option {
	return func(l *FixedWindow) {
		l.window = d
	}
}

// NewFixedWindow creates a limiter allowing rate permits per window
func NewFixedWindow(rate int, opts ...Option) (*FixedWindow, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("rate must be positive, got %d", rate)
	}

	l := &FixedWindow{
		rate:   rate,
		window: DefaultWindow,
		clock:  clock.RealClock{},
		tokens: rate,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", l.window)
	}

	return l, nil
}

// Acquire blocks the caller until it is permitted to proceed.
// The mutex is held only while inspecting and mutating the window; waiting for
// the window to roll over happens outside of it and the state is re-read after
// waking, so tokens are never spent twice.
func (l *FixedWindow) Acquire(ctx context.Context) error {
	for {
		wait, ok := l.tryAcquire()
		if ok {
			return nil
		}

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAcquire consumes a token if one is available, otherwise it returns the
// time left until the current window expires
func (l *FixedWindow) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if !l.active || now.Sub(l.windowStart) >= l.window {
		l.windowStart = now
		l.tokens = l.rate
		l.active = true
	}

	if l.tokens > 0 {
		l.tokens--
		return 0, true
	}

	return l.window - now.Sub(l.windowStart), false
}

func (l *FixedWindow) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := l.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

// Tokens returns the number of tokens left in the current window
func (l *FixedWindow) Tokens() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens
}

// Rate returns the number of permits per window
func (l *FixedWindow) Rate() int {
	return l.rate
}
