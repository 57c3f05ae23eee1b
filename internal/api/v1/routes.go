// Package v1 provides the ops API handlers: health probes, build
// information and control of the sync.
package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/catalog-sync/internal/api/common"
	"github.com/stacklok/catalog-sync/internal/status"
	"github.com/stacklok/catalog-sync/internal/sync/coordinator"
	"github.com/stacklok/catalog-sync/internal/sync/state"
	"github.com/stacklok/catalog-sync/internal/versions"
)

// SyncController starts manual runs and reports readiness
type SyncController interface {
	TriggerSync() error
	Ready() bool
}

// StatusReader returns the last run status of a sync target
type StatusReader interface {
	GetSyncStatus(ctx context.Context, target string) (*status.SyncStatus, error)
}

// Routes holds the dependencies of the ops API handlers
type Routes struct {
	controller SyncController
	statuses   StatusReader
	target     string
}

// NewRoutes creates the ops API handlers for target
func NewRoutes(controller SyncController, statuses StatusReader, target string) *Routes {
	return &Routes{
		controller: controller,
		statuses:   statuses,
		target:     target,
	}
}

// HealthRouter creates the router for the probe and version endpoints
func (rt *Routes) HealthRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", rt.health)
	r.Get("/readiness", rt.readiness)
	r.Get("/version", rt.version)
	return r
}

// SyncRouter creates the router for the sync control endpoints
func (rt *Routes) SyncRouter() http.Handler {
	r := chi.NewRouter()
	r.Post("/", rt.triggerSync)
	r.Get("/status", rt.syncStatus)
	return r
}

// health handles GET /health
func (*Routes) health(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readiness handles GET /readiness. The service is ready once the run
// status has been loaded from storage.
func (rt *Routes) readiness(w http.ResponseWriter, _ *http.Request) {
	if !rt.controller.Ready() {
		common.WriteErrorResponse(w, "sync status not initialized", http.StatusServiceUnavailable)
		return
	}
	common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
}

// version handles GET /version
func (*Routes) version(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// triggerSync handles POST /v1/sync
func (rt *Routes) triggerSync(w http.ResponseWriter, _ *http.Request) {
	err := rt.controller.TriggerSync()
	switch {
	case errors.Is(err, coordinator.ErrSyncInProgress):
		common.WriteErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, coordinator.ErrNotRunning):
		common.WriteErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
	case err != nil:
		slog.Error("Failed to trigger sync", "target", rt.target, "error", err)
		common.WriteErrorResponse(w, "failed to trigger sync", http.StatusInternalServerError)
	default:
		slog.Info("Manual sync triggered", "target", rt.target)
		common.WriteJSONResponse(w, SyncAcceptedResponse{Status: "accepted", Target: rt.target}, http.StatusAccepted)
	}
}

// syncStatus handles GET /v1/sync/status
func (rt *Routes) syncStatus(w http.ResponseWriter, r *http.Request) {
	syncStatus, err := rt.statuses.GetSyncStatus(r.Context(), rt.target)
	if errors.Is(err, state.ErrTargetNotFound) {
		common.WriteErrorResponse(w, "no sync status recorded yet", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to read sync status", "target", rt.target, "error", err)
		common.WriteErrorResponse(w, "failed to read sync status", http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, syncStatus, http.StatusOK)
}
