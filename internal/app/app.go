// Package app wires the catalog-sync components together and manages their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/catalog-sync/internal/config"
	pkgsync "github.com/stacklok/catalog-sync/internal/sync"
)

// CatalogSyncApp encapsulates the sync coordinator, the optional source
// watcher and the ops API server
type CatalogSyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	shutdownTimeout time.Duration
	cleanups        []func(context.Context) error
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails. Components are stopped and resources released before it returns.
func (app *CatalogSyncApp) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.components.SyncCoordinator.Start(gctx); err != nil {
			return fmt.Errorf("sync coordinator failed: %w", err)
		}
		return nil
	})

	if app.components.Watcher != nil {
		g.Go(func() error {
			return app.components.Watcher.Run(gctx)
		})
	}

	g.Go(func() error {
		slog.Info("Server listening", "address", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return app.shutdown()
	})

	err := g.Wait()
	app.Close()
	return err
}

// RunOnce performs a single manual sync without starting the scheduler or the server
func (app *CatalogSyncApp) RunOnce(ctx context.Context) (*pkgsync.Result, error) {
	return app.components.SyncCoordinator.RunOnce(ctx)
}

// shutdown stops the coordinator and gracefully shuts down the HTTP server
func (app *CatalogSyncApp) shutdown() error {
	slog.Info("Shutting down server...")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Close releases storage and telemetry resources. Safe to call more than once.
func (app *CatalogSyncApp) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
	defer cancel()

	// Release in reverse order of acquisition
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		if err := app.cleanups[i](ctx); err != nil {
			slog.Warn("Failed to release resource", "error", err)
		}
	}
	app.cleanups = nil
}

// GetConfig returns the application configuration
func (app *CatalogSyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *CatalogSyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
