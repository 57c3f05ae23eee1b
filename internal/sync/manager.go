package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/stacklok/catalog-sync/internal/catalog"
	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/httpclient"
	"github.com/stacklok/catalog-sync/internal/otel"
	"github.com/stacklok/catalog-sync/internal/sources"
	"github.com/stacklok/catalog-sync/internal/status"
	"github.com/stacklok/catalog-sync/internal/sync/state"
	"github.com/stacklok/catalog-sync/internal/telemetry"
)

// DefaultTarget is the name under which the run status of the e-shop sync is kept
const DefaultTarget = "eshop"

// Action is what the sync decided to do with one product
type Action string

const (
	// ActionCreate sends a product the e-shop has never received
	ActionCreate Action = "create"
	// ActionUpdate sends a product whose fingerprint changed
	ActionUpdate Action = "update"
	// ActionSkip leaves an unchanged product alone
	ActionSkip Action = "skip"
)

// Result contains the outcome of one sync run
type Result struct {
	RunID       string               `json:"runId"`
	Sent        int                  `json:"sent"`
	Skipped     int                  `json:"skipped"`
	Errors      int                  `json:"errors"`
	Total       int                  `json:"total"`
	SourceHash  string               `json:"sourceHash"`
	Diagnostics []catalog.Diagnostic `json:"diagnostics,omitempty"`
	StartedAt   time.Time            `json:"startedAt"`
	FinishedAt  time.Time            `json:"finishedAt"`
}

// ProductSender delivers one product to the e-shop
//
//go:generate mockgen -destination=mocks/mock_product_sender.go -package=mocks github.com/stacklok/catalog-sync/internal/sync ProductSender
type ProductSender interface {
	SendProduct(ctx context.Context, p catalog.Product, isNew bool) (*httpclient.Response, error)
}

// Manager decides when to sync and performs sync runs
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/catalog-sync/internal/sync Manager
type Manager interface {
	// ShouldSync determines if a run is needed given the last run status
	ShouldSync(ctx context.Context, syncStatus *status.SyncStatus, manualSyncRequested bool) Reason

	// PerformSync executes one run. It only fails when the source cannot be
	// fetched or parsed, or when ctx is cancelled mid-run; failing products
	// are reported in the Result.
	PerformSync(ctx context.Context) (*Result, error)
}

// recordOutcome is the result of processing one product
type recordOutcome struct {
	sku    string
	action Action
	err    error
}

// DefaultSyncManager is the default implementation of Manager
type DefaultSyncManager struct {
	source         *config.SourceConfig
	handlerFactory sources.SourceHandlerFactory
	transformer    *catalog.Transformer
	sender         ProductSender
	store          state.Store

	target             string
	clock              clock.PassiveClock
	tracer             trace.Tracer
	metrics            *telemetry.SyncMetrics
	dataChangeDetector DataChangeDetector
}

// Option configures a DefaultSyncManager
type Option func(*DefaultSyncManager)

// WithTarget sets the target name used in metrics and logs
func WithTarget(target string) Option {
	return func(m *DefaultSyncManager) {
		m.target = target
	}
}

// WithClock sets the clock used to timestamp runs and stored state
func WithClock(c clock.PassiveClock) Option {
	return func(m *DefaultSyncManager) {
		m.clock = c
	}
}

// WithTracer sets the tracer used for run and product spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *DefaultSyncManager) {
		m.tracer = tracer
	}
}

// WithSyncMetrics sets the metrics recorded per product
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *DefaultSyncManager) {
		m.metrics = metrics
	}
}

// WithDataChangeDetector replaces the source hash comparison used by ShouldSync
func WithDataChangeDetector(d DataChangeDetector) Option {
	return func(m *DefaultSyncManager) {
		m.dataChangeDetector = d
	}
}

// NewDefaultSyncManager creates a new DefaultSyncManager
func NewDefaultSyncManager(
	source *config.SourceConfig,
	handlerFactory sources.SourceHandlerFactory,
	transformer *catalog.Transformer,
	sender ProductSender,
	store state.Store,
	opts ...Option,
) *DefaultSyncManager {
	m := &DefaultSyncManager{
		source:         source,
		handlerFactory: handlerFactory,
		transformer:    transformer,
		sender:         sender,
		store:          store,
		target:         DefaultTarget,
		clock:          clock.RealClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dataChangeDetector == nil {
		m.dataChangeDetector = NewDataChangeDetector(handlerFactory, source)
	}
	return m
}

// ShouldSync determines if a run is needed.
// Manual requests always run since unchanged products are skipped anyway.
func (m *DefaultSyncManager) ShouldSync(
	ctx context.Context, syncStatus *status.SyncStatus, manualSyncRequested bool,
) Reason {
	if syncStatus != nil && syncStatus.Phase == status.SyncPhaseSyncing {
		return ReasonAlreadyInProgress
	}
	if manualSyncRequested {
		return ReasonManualRequested
	}
	if syncStatus == nil || syncStatus.Phase != status.SyncPhaseComplete {
		return ReasonNotReady
	}
	if syncStatus.HasRecordErrors() {
		return ReasonRecordErrors
	}

	changed, err := m.dataChangeDetector.IsDataChanged(ctx, syncStatus)
	if err != nil {
		slog.Error("Failed to determine if data has changed", "target", m.target, "error", err)
		return ReasonErrorCheckingChanges
	}
	slog.Debug("Checked data changes", "target", m.target, "dataChanged", changed)
	if changed {
		return ReasonSourceDataChanged
	}
	return ReasonUpToDate
}

// PerformSync fetches the source and delivers every new or changed product
func (m *DefaultSyncManager) PerformSync(ctx context.Context) (result *Result, err error) {
	result = &Result{
		RunID:     uuid.NewString(),
		StartedAt: m.clock.Now().UTC(),
	}

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.PerformSync",
		trace.WithAttributes(
			otel.AttrRunID.String(result.RunID),
			otel.AttrTarget.String(m.target),
			otel.AttrSourceType.String(m.source.GetType()),
		),
	)
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	logger := slog.With("target", m.target, "run_id", result.RunID)

	products, diags, sourceHash, err := m.loadProducts(ctx)
	if err != nil {
		logger.Error("Sync run could not read the source", "error", err)
		return nil, err
	}
	result.SourceHash = sourceHash
	result.Total = len(products)
	result.Diagnostics = diags
	span.SetAttributes(otel.AttrSourceHash.String(sourceHash), otel.AttrRecordCount.Int(len(products)))

	logger.Info("Starting product sync",
		"products", len(products),
		"diagnostics", len(diags),
		"hash", hashPreview(sourceHash))

	for i, p := range products {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.FinishedAt = m.clock.Now().UTC()
			logger.Warn("Sync run interrupted", "processed", i, "products", len(products))
			return result, fmt.Errorf("sync interrupted after %d of %d products: %w", i, len(products), ctxErr)
		}
		m.aggregate(ctx, result, m.syncProduct(ctx, p))
	}

	result.FinishedAt = m.clock.Now().UTC()
	span.SetAttributes(
		otel.AttrSent.Int(result.Sent),
		otel.AttrSkipped.Int(result.Skipped),
		otel.AttrErrors.Int(result.Errors),
	)
	logger.Info("Product sync finished",
		"sent", result.Sent,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"duration", result.FinishedAt.Sub(result.StartedAt))

	return result, nil
}

// loadProducts fetches the export and normalizes it
func (m *DefaultSyncManager) loadProducts(ctx context.Context) ([]catalog.Product, []catalog.Diagnostic, string, error) {
	handler, err := m.handlerFactory.CreateHandler(m.source.GetType())
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to create source handler: %w", err)
	}
	if err := handler.Validate(m.source); err != nil {
		return nil, nil, "", fmt.Errorf("source validation failed: %w", err)
	}

	fetchResult, err := handler.FetchCatalog(ctx, m.source)
	if err != nil {
		return nil, nil, "", fmt.Errorf("fetch failed: %w", err)
	}

	products, diags, err := m.transformer.LoadAndNormalize(fetchResult.Data)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to parse %s: %w", fetchResult.Location, err)
	}
	return products, diags, fetchResult.Hash, nil
}

// syncProduct decides what to do with one product and does it. The stored
// state is only written after the e-shop accepted the product.
func (m *DefaultSyncManager) syncProduct(ctx context.Context, p catalog.Product) (outcome recordOutcome) {
	outcome.sku = p.SKU

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.product",
		trace.WithAttributes(otel.AttrSKU.String(p.SKU)))
	defer func() {
		span.SetAttributes(otel.AttrAction.String(string(outcome.action)))
		otel.RecordError(span, outcome.err)
		span.End()
	}()

	fingerprint := catalog.Fingerprint(p)

	previous, err := m.store.Get(ctx, p.SKU)
	switch {
	case errors.Is(err, state.ErrNotFound):
		outcome.action = ActionCreate
	case err != nil:
		outcome.err = fmt.Errorf("failed to read sync state: %w", err)
		return outcome
	case previous.Fingerprint == fingerprint:
		outcome.action = ActionSkip
		return outcome
	default:
		outcome.action = ActionUpdate
	}

	isNew := outcome.action == ActionCreate
	if _, err := m.sender.SendProduct(ctx, p, isNew); err != nil {
		outcome.err = fmt.Errorf("failed to %s product: %w", outcome.action, err)
		return outcome
	}

	if err := m.store.Upsert(ctx, p.SKU, fingerprint, isNew, m.clock.Now().UTC()); err != nil {
		outcome.err = fmt.Errorf("product sent but sync state not saved: %w", err)
	}
	return outcome
}

// aggregate folds one outcome into the run result
func (m *DefaultSyncManager) aggregate(ctx context.Context, result *Result, outcome recordOutcome) {
	switch {
	case outcome.err != nil:
		result.Errors++
		result.Diagnostics = append(result.Diagnostics, catalog.Diagnostic{
			Kind:    catalog.KindRecordFailed,
			SKU:     outcome.sku,
			Message: outcome.err.Error(),
		})
		m.metrics.RecordOutcome(ctx, m.target, telemetry.OutcomeError)
		slog.Error("Product sync failed", "sku", outcome.sku, "action", outcome.action, "error", outcome.err)
	case outcome.action == ActionSkip:
		result.Skipped++
		m.metrics.RecordOutcome(ctx, m.target, telemetry.OutcomeSkipped)
		slog.Debug("Product unchanged", "sku", outcome.sku)
	default:
		result.Sent++
		m.metrics.RecordOutcome(ctx, m.target, telemetry.OutcomeSent)
		slog.Debug("Product sent", "sku", outcome.sku, "action", outcome.action)
	}
}
