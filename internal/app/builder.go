package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/catalog-sync/internal/api"
	v1 "github.com/stacklok/catalog-sync/internal/api/v1"
	"github.com/stacklok/catalog-sync/internal/app/storage"
	"github.com/stacklok/catalog-sync/internal/catalog"
	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/eshop"
	"github.com/stacklok/catalog-sync/internal/httpclient"
	catalogotel "github.com/stacklok/catalog-sync/internal/otel"
	"github.com/stacklok/catalog-sync/internal/ratelimit"
	"github.com/stacklok/catalog-sync/internal/sources"
	pkgsync "github.com/stacklok/catalog-sync/internal/sync"
	"github.com/stacklok/catalog-sync/internal/sync/coordinator"
	"github.com/stacklok/catalog-sync/internal/telemetry"
)

const (
	defaultHTTPAddress     = ":8080"
	defaultRequestTimeout  = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	tracerName = "github.com/stacklok/catalog-sync/sync"
)

// CatalogSyncAppOptions is a function that configures the app builder
type CatalogSyncAppOptions func(*catalogSyncAppConfig) error

// catalogSyncAppConfig collects the builder settings. Component overrides are
// used by tests; production defaults are built from the configuration.
type catalogSyncAppConfig struct {
	config *config.Config

	// Optional component overrides
	sourceHandlerFactory sources.SourceHandlerFactory
	storageFactory       storage.Factory
	productSender        pkgsync.ProductSender
	syncManager          pkgsync.Manager
	telemetry            *telemetry.Telemetry

	// HTTP server options
	address         string
	middlewares     []func(http.Handler) http.Handler
	requestTimeout  time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
}

func baseConfig(opts ...CatalogSyncAppOptions) (*catalogSyncAppConfig, error) {
	cfg := &catalogSyncAppConfig{
		address:         defaultHTTPAddress,
		requestTimeout:  defaultRequestTimeout,
		readTimeout:     defaultReadTimeout,
		writeTimeout:    defaultWriteTimeout,
		idleTimeout:     defaultIdleTimeout,
		shutdownTimeout: defaultShutdownTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return cfg, nil
}

// NewCatalogSyncApp builds the application from the given options
func NewCatalogSyncApp(ctx context.Context, opts ...CatalogSyncAppOptions) (*CatalogSyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	app := &CatalogSyncApp{
		config:          cfg.config,
		shutdownTimeout: cfg.shutdownTimeout,
	}

	// Release whatever was acquired when a later step fails
	built := false
	defer func() {
		if !built {
			app.Close()
		}
	}()

	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx,
			telemetry.WithTelemetryConfig(cfg.config.Telemetry),
			telemetry.WithResourceAttributes(
				catalogotel.AttrTarget.String(pkgsync.DefaultTarget),
				catalogotel.AttrSourceType.String(cfg.config.Source.GetType()),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		app.cleanups = append(app.cleanups, cfg.telemetry.Shutdown)
	}

	if cfg.storageFactory == nil {
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
		factory := cfg.storageFactory
		app.cleanups = append(app.cleanups, func(context.Context) error {
			factory.Cleanup()
			return nil
		})
	}

	components, err := buildSyncComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}
	app.components = components

	app.httpServer, err = buildHTTPServer(cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	built = true
	return app, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) CatalogSyncAppOptions {
	return func(cfg *catalogSyncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) CatalogSyncAppOptions {
	return func(cfg *catalogSyncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		switch host {
		case "localhost":
			host = "127.0.0.1"
		case "":
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) CatalogSyncAppOptions {
	return func(cfg *catalogSyncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithShutdownTimeout bounds the graceful shutdown of the HTTP server
func WithShutdownTimeout(d time.Duration) CatalogSyncAppOptions {
	return func(cfg *catalogSyncAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("shutdown timeout must be positive, got %s", d)
		}
		cfg.shutdownTimeout = d
		return nil
	}
}

// WithSourceHandlerFactory allows injecting a custom source handler factory
func WithSourceHandlerFactory(f sources.SourceHandlerFactory) CatalogSyncAppOptions {
	return func(cfg *catalogSyncAppConfig) error {
		cfg.sourceHandlerFactory = f
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory
func WithStorageFactory(f storage.Factory) CatalogSyncAppOptions {
	return func(cfg *catalogSyncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithProductSender replaces the e-shop client
func WithProductSender(s pkgsync.ProductSender) CatalogSyncAppOptions {
	return func(cfg *catalogSyncAppConfig) error {
		cfg.productSender = s
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager
func WithSyncManager(sm pkgsync.Manager) CatalogSyncAppOptions {
	return func(cfg *catalogSyncAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithTelemetry uses already initialized telemetry providers. The caller
// keeps ownership and shuts them down.
func WithTelemetry(t *telemetry.Telemetry) CatalogSyncAppOptions {
	return func(cfg *catalogSyncAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// buildSyncComponents builds the sync manager, the coordinator and the source watcher
func buildSyncComponents(ctx context.Context, b *catalogSyncAppConfig) (*AppComponents, error) {
	slog.Info("Initializing sync components")

	stateService, err := b.storageFactory.CreateStateService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create state service: %w", err)
	}

	syncMetrics, err := telemetry.NewSyncMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}

	if b.syncManager == nil {
		b.syncManager, err = buildSyncManager(ctx, b, syncMetrics)
		if err != nil {
			return nil, err
		}
	}

	syncCoordinator := coordinator.New(b.syncManager, stateService, b.config,
		coordinator.WithSyncMetrics(syncMetrics))

	components := &AppComponents{
		SyncCoordinator: syncCoordinator,
		StateService:    stateService,
	}

	if b.config.Source.Watch && b.config.Source.File != nil {
		components.Watcher, err = sources.NewFileWatcher(b.config.Source.File.Path, syncCoordinator.RequestCheck)
		if err != nil {
			return nil, fmt.Errorf("failed to create source watcher: %w", err)
		}
		slog.Info("Source file watching enabled", "path", b.config.Source.File.Path)
	}

	slog.Info("Sync components initialized successfully")
	return components, nil
}

// buildSyncManager builds the default manager: source handlers, transformer,
// e-shop client and product state store
func buildSyncManager(
	ctx context.Context,
	b *catalogSyncAppConfig,
	syncMetrics *telemetry.SyncMetrics,
) (pkgsync.Manager, error) {
	if b.sourceHandlerFactory == nil {
		b.sourceHandlerFactory = sources.NewSourceHandlerFactory()
	}

	store, err := b.storageFactory.CreateStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create product state store: %w", err)
	}

	transformer, err := buildTransformer(b.config)
	if err != nil {
		return nil, err
	}

	if b.productSender == nil {
		clientMetrics, err := telemetry.NewClientMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create client metrics: %w", err)
		}
		b.productSender, err = buildEshopClient(&b.config.Eshop, clientMetrics)
		if err != nil {
			return nil, err
		}
	}

	return pkgsync.NewDefaultSyncManager(
		&b.config.Source,
		b.sourceHandlerFactory,
		transformer,
		b.productSender,
		store,
		pkgsync.WithSyncMetrics(syncMetrics),
		pkgsync.WithTracer(b.telemetry.TracerProvider().Tracer(tracerName)),
	), nil
}

// buildTransformer creates the record transformer from the transform settings
func buildTransformer(cfg *config.Config) (*catalog.Transformer, error) {
	vatRate, err := cfg.GetVATRate()
	if err != nil {
		return nil, err
	}
	return catalog.NewTransformer(
		catalog.WithVATRate(vatRate),
		catalog.WithDefaultColor(cfg.GetDefaultColor()),
	), nil
}

// buildEshopClient creates the rate limited, retrying e-shop client
func buildEshopClient(cfg *config.EshopConfig, metrics *telemetry.ClientMetrics) (*eshop.Client, error) {
	limiter, err := ratelimit.NewFixedWindow(cfg.GetRateLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	timeout, err := cfg.GetTimeout()
	if err != nil {
		return nil, err
	}

	apiKey, err := cfg.GetAPIKey()
	if err != nil {
		return nil, err
	}

	doer, err := httpclient.NewRetryingClient(limiter,
		httpclient.WithTimeout(timeout),
		httpclient.WithMaxAttempts(cfg.GetMaxAttempts()),
		httpclient.WithHeader(eshop.APIKeyHeader, apiKey),
		httpclient.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create e-shop HTTP client: %w", err)
	}

	slog.Info("E-shop client configured",
		"base_url", cfg.BaseURL,
		"rate_limit", cfg.GetRateLimit(),
		"max_attempts", cfg.GetMaxAttempts())

	return eshop.NewClient(cfg.BaseURL, doer)
}

// buildHTTPServer builds the ops API server with router and middleware
func buildHTTPServer(b *catalogSyncAppConfig, components *AppComponents) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	httpMetrics, err := telemetry.NewHTTPMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	// Telemetry wraps the whole chain so rejected requests are observed too
	middlewares := []func(http.Handler) http.Handler{
		telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
		httpMetrics.Middleware,
	}
	middlewares = append(middlewares, b.middlewares...)

	serverOpts := []api.ServerOption{api.WithMiddlewares(middlewares...)}
	if h := b.telemetry.PrometheusHandler(); h != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(h))
		slog.Info("Prometheus metrics endpoint enabled", "path", "/metrics")
	}

	routes := v1.NewRoutes(components.SyncCoordinator, components.StateService, pkgsync.DefaultTarget)
	router := api.NewServer(routes, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
