package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/stacklok/catalog-sync/internal/config"
	pkgsync "github.com/stacklok/catalog-sync/internal/sync"
	"github.com/stacklok/catalog-sync/internal/sync/state"
	"github.com/stacklok/catalog-sync/internal/telemetry"
)

var (
	// ErrSyncInProgress is returned when a run is requested while another one is active
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNotRunning is returned by TriggerSync before Start or after Stop
	ErrNotRunning = errors.New("sync coordinator is not running")
)

// Coordinator manages background synchronization scheduling and execution
//
//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks github.com/stacklok/catalog-sync/internal/sync/coordinator Coordinator
type Coordinator interface {
	// Start begins background sync coordination.
	// Blocks until context is cancelled or an unrecoverable error occurs
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator and waits for an active run
	Stop() error

	// TriggerSync starts a manual run in the background. It returns
	// ErrSyncInProgress when a run is already active.
	TriggerSync() error

	// RequestCheck asks for a sync check as soon as possible
	RequestCheck()

	// RunOnce performs a manual run synchronously
	RunOnce(ctx context.Context) (*pkgsync.Result, error)

	// Ready reports whether the run status has been initialized
	Ready() bool
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager   pkgsync.Manager
	statusSvc state.RunStateService
	target    string
	interval  time.Duration

	// runMu is held for the whole duration of a run
	runMu gosync.Mutex

	// Lifecycle management
	mu         gosync.Mutex
	runCtx     context.Context
	cancelFunc context.CancelFunc
	done       chan struct{}
	inflight   gosync.WaitGroup
	checks     chan struct{}

	initOnce gosync.Once
	initErr  error
	ready    atomic.Bool

	// Metrics
	syncMetrics *telemetry.SyncMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithTarget overrides the name under which the run status is stored
func WithTarget(target string) Option {
	return func(c *defaultCoordinator) {
		c.target = target
	}
}

// New creates a new coordinator with injected dependencies
func New(
	manager pkgsync.Manager,
	statusSvc state.RunStateService,
	cfg *config.Config,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		manager:   manager,
		statusSvc: statusSvc,
		target:    pkgsync.DefaultTarget,
		interval:  getSyncInterval(cfg.SyncPolicy),
		done:      make(chan struct{}),
		checks:    make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins background sync coordination
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting background sync coordinator", "target", c.target, "interval", c.interval)

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.runCtx = coordCtx
	c.cancelFunc = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		cancel()
		c.mu.Unlock()
		c.inflight.Wait()
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	if err := c.initialize(coordCtx); err != nil {
		return err
	}

	tickInterval := withJitter(c.interval)
	slog.Info("Configured coordinator sync interval",
		"base_interval", c.interval,
		"actual_interval", tickInterval)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	// Perform initial sync check
	c.checkAndSync(coordCtx, "startup")

	for {
		select {
		case <-ticker.C:
			c.checkAndSync(coordCtx, "periodic")
			// New jitter for the next iteration
			ticker.Reset(withJitter(c.interval))
		case <-c.checks:
			c.checkAndSync(coordCtx, "requested")
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		// Wait for coordinator to finish
		<-c.done
	}
	return nil
}

// TriggerSync starts a manual run in the background
func (c *defaultCoordinator) TriggerSync() error {
	c.mu.Lock()
	ctx := c.runCtx
	if ctx == nil || ctx.Err() != nil {
		c.mu.Unlock()
		return ErrNotRunning
	}
	if !c.runMu.TryLock() {
		c.mu.Unlock()
		return ErrSyncInProgress
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		defer c.runMu.Unlock()

		if _, err := c.performSync(ctx, true); err != nil && !errors.Is(err, ErrSyncInProgress) {
			slog.Error("Manual sync failed", "target", c.target, "error", err)
		}
	}()
	return nil
}

// RequestCheck queues a sync check. Requests made while one is queued are merged.
func (c *defaultCoordinator) RequestCheck() {
	select {
	case c.checks <- struct{}{}:
	default:
	}
}

// RunOnce performs a manual run synchronously
func (c *defaultCoordinator) RunOnce(ctx context.Context) (*pkgsync.Result, error) {
	if err := c.initialize(ctx); err != nil {
		return nil, err
	}
	if !c.runMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer c.runMu.Unlock()

	return c.performSync(ctx, true)
}

// Ready reports whether the run status has been initialized
func (c *defaultCoordinator) Ready() bool {
	return c.ready.Load()
}

// initialize loads or creates the run status once
func (c *defaultCoordinator) initialize(ctx context.Context) error {
	c.initOnce.Do(func() {
		if err := c.statusSvc.Initialize(ctx, []string{c.target}); err != nil {
			c.initErr = fmt.Errorf("failed to initialize sync status: %w", err)
			return
		}
		c.ready.Store(true)
	})
	return c.initErr
}

// checkAndSync runs a sync if one is needed and none is active
func (c *defaultCoordinator) checkAndSync(ctx context.Context, checkType string) {
	if !c.runMu.TryLock() {
		slog.Debug("Skipping sync check, a run is in progress", "target", c.target, "check", checkType)
		return
	}
	defer c.runMu.Unlock()

	slog.Debug("Running sync check", "target", c.target, "check", checkType)
	if _, err := c.performSync(ctx, false); err != nil && !errors.Is(err, ErrSyncInProgress) {
		slog.Error("Sync failed", "target", c.target, "check", checkType, "error", err)
	}
}
