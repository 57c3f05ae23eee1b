package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

// waitForWaiters blocks until a goroutine is parked on the fake clock
func waitForWaiters(t *testing.T, fc *testingclock.FakeClock) {
	t.Helper()
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond, "expected a caller waiting on the clock")
}

func TestNewFixedWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rate    int
		opts    []Option
		wantErr string
	}{
		{name: "valid rate", rate: 5},
		{name: "zero rate", rate: 0, wantErr: "rate must be positive"},
		{name: "negative rate", rate: -1, wantErr: "rate must be positive"},
		{name: "zero window", rate: 1, opts: []Option{WithWindow(0)}, wantErr: "window must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l, err := NewFixedWindow(tt.rate, tt.opts...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rate, l.Rate())
			assert.Equal(t, tt.rate, l.Tokens())
		})
	}
}

func TestFixedWindow_FirstRatePermitsAreImmediate(t *testing.T) {
	t.Parallel()

	fc := testingclock.NewFakeClock(time.Now())
	l, err := NewFixedWindow(5, WithClock(fc))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}

	assert.Equal(t, 0, l.Tokens())
	assert.False(t, fc.HasWaiters(), "no caller should have waited")
}

func TestFixedWindow_WaitsForRemainderOfWindow(t *testing.T) {
	t.Parallel()

	fc := testingclock.NewFakeClock(time.Now())
	l, err := NewFixedWindow(5, WithClock(fc))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}

	// 300ms of the window have passed, the 6th caller must wait the remaining 700ms
	fc.Step(300 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- l.Acquire(context.Background())
	}()

	waitForWaiters(t, fc)
	fc.Step(699 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("acquire returned before the window expired")
	case <-time.After(20 * time.Millisecond):
	}

	fc.Step(time.Millisecond)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire did not return after the window expired")
	}

	// The waiting caller opened a fresh window and took one token
	assert.Equal(t, 4, l.Tokens())

	// A 7th caller right after the reset proceeds immediately
	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, 3, l.Tokens())
}

func TestFixedWindow_IdleWindowResetsLazily(t *testing.T) {
	t.Parallel()

	fc := testingclock.NewFakeClock(time.Now())
	l, err := NewFixedWindow(2, WithClock(fc))
	require.NoError(t, err)

	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, 0, l.Tokens())

	// Nothing happens while idle; the next caller observes the expired window
	fc.Step(5 * time.Second)
	assert.Equal(t, 0, l.Tokens())

	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, 1, l.Tokens())
}

func TestFixedWindow_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	fc := testingclock.NewFakeClock(time.Now())
	l, err := NewFixedWindow(1, WithClock(fc))
	require.NoError(t, err)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Acquire(ctx)
	}()

	waitForWaiters(t, fc)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("acquire did not observe cancellation")
	}
}

func TestFixedWindow_ConcurrentAcquires(t *testing.T) {
	t.Parallel()

	const (
		rate    = 5
		callers = 32
	)

	start := time.Now()
	fc := testingclock.NewFakeClock(start)
	l, err := NewFixedWindow(rate, WithClock(fc))
	require.NoError(t, err)

	var (
		mu         sync.Mutex
		admissions []time.Time
	)
	admitted := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(admissions)
	}

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				errs <- err
				return
			}
			mu.Lock()
			admissions = append(admissions, fc.Now())
			mu.Unlock()
		}()
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	// Open the next window only once the current one is used up and every
	// admission in it has been recorded.
	steps := 0
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for finished := false; !finished; {
		select {
		case <-allDone:
			finished = true
		case <-ticker.C:
			if admitted() >= rate*(steps+1) && fc.HasWaiters() {
				fc.Step(time.Second)
				steps++
			}
		}
	}

	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	perWindow := make(map[int64]int)
	for _, at := range admissions {
		perWindow[int64(at.Sub(start)/time.Second)]++
	}
	require.Len(t, admissions, callers)
	assert.Len(t, perWindow, (callers+rate-1)/rate)
	for window, n := range perWindow {
		assert.LessOrEqual(t, n, rate, "window %d admitted %d callers", window, n)
	}

	tokens := l.Tokens()
	assert.GreaterOrEqual(t, tokens, 0, "token count must never be negative")
	assert.Less(t, tokens, rate)
}

func TestFixedWindow_RealClock(t *testing.T) {
	t.Parallel()

	l, err := NewFixedWindow(3, WithWindow(200*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	start = time.Now()
	require.NoError(t, l.Acquire(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
