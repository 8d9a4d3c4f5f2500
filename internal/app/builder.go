package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/articlesync/articlesync/internal/article"
	"github.com/articlesync/articlesync/internal/blob"
	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/db"
	"github.com/articlesync/articlesync/internal/enrich"
	"github.com/articlesync/articlesync/internal/gate"
	"github.com/articlesync/articlesync/internal/secrets"
	"github.com/articlesync/articlesync/internal/sources"
	"github.com/articlesync/articlesync/internal/status"
	pkgsync "github.com/articlesync/articlesync/internal/sync"
	"github.com/articlesync/articlesync/internal/sync/coordinator"
	"github.com/articlesync/articlesync/internal/sync/writer"
	"github.com/articlesync/articlesync/internal/telemetry"
)

const tracerName = "github.com/articlesync/articlesync"

// SyncAppOptions is a function that configures the sync app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig collects the inputs of NewSyncApp. Component overrides are
// primarily for testing.
type syncAppConfig struct {
	config *config.Config
	dryRun bool
	mode   string

	// Optional component overrides
	store           blob.Store
	secretsProvider secrets.Provider
	contentSource   sources.ContentSource
	publisher       writer.Publisher
	gateOptions     []gate.Option

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if c == nil {
			return fmt.Errorf("config cannot be nil")
		}
		cfg.config = c
		return nil
	}
}

// WithDryRun plans without publishing or persisting anything
func WithDryRun(dryRun bool) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.dryRun = dryRun
		return nil
	}
}

// WithPlannerMode overrides the configured planner mode
func WithPlannerMode(mode string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		switch mode {
		case "", config.PlannerModeExhaustive, config.PlannerModeEarlyStop:
			cfg.mode = mode
			return nil
		default:
			return fmt.Errorf("unsupported planner mode %q (want %s or %s)",
				mode, config.PlannerModeExhaustive, config.PlannerModeEarlyStop)
		}
	}
}

// WithStore allows injecting the blob store holding the cache and run status
func WithStore(s blob.Store) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.store = s
		return nil
	}
}

// WithSecretsProvider allows injecting a custom secrets provider
func WithSecretsProvider(p secrets.Provider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.secretsProvider = p
		return nil
	}
}

// WithContentSource allows injecting a custom content source (for testing)
func WithContentSource(s sources.ContentSource) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.contentSource = s
		return nil
	}
}

// WithPublisher allows injecting a custom publisher (for testing)
func WithPublisher(p writer.Publisher) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.publisher = p
		return nil
	}
}

// WithGateOptions configures every rate-limit gate, e.g. with a fake clock
func WithGateOptions(opts ...gate.Option) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.gateOptions = opts
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for sync and request metrics
func WithMeterProvider(mp metric.MeterProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for run spans
func WithTracerProvider(tp trace.TracerProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// NewSyncApp builds every component of a sync run
func NewSyncApp(ctx context.Context, opts ...SyncAppOptions) (*SyncApp, error) {
	b := &syncAppConfig{}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	if b.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	components := &AppComponents{}

	// Ensure cleanup happens on error
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded && components.Database != nil {
			components.Database.Close()
		}
	}()

	if err := buildStateComponents(ctx, b, components); err != nil {
		return nil, fmt.Errorf("failed to build state components: %w", err)
	}

	creds, err := resolveCredentials(ctx, b)
	if err != nil {
		return nil, err
	}

	if err := buildSyncComponents(ctx, b, creds, components); err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	cleanupNeeded = false
	return &SyncApp{
		config:     b.config,
		components: components,
		dryRun:     b.dryRun,
	}, nil
}

// buildStateComponents builds the cache store and run status persistence
func buildStateComponents(ctx context.Context, b *syncAppConfig, components *AppComponents) error {
	if b.store == nil {
		store, err := blob.NewStore(ctx, b.config.Storage)
		if err != nil {
			return fmt.Errorf("failed to create %s store: %w", b.config.Storage.Type, err)
		}
		b.store = store
	}

	components.CacheStore = cache.NewStore(b.store, b.config.Storage.CacheKey)
	components.StatusPersistence = status.NewBlobStatusPersistence(b.store, b.config.Storage.StatusKey)
	slog.Debug("State components initialized",
		"storage", b.config.Storage.Type,
		"cache_key", b.config.Storage.CacheKey,
		"status_key", b.config.Storage.StatusKey)
	return nil
}

// resolveCredentials fetches every configured secret in one batch
func resolveCredentials(ctx context.Context, b *syncAppConfig) (*secrets.Credentials, error) {
	if b.secretsProvider == nil {
		provider, err := secrets.NewProvider(ctx, b.config.Secrets)
		if err != nil {
			return nil, fmt.Errorf("failed to create secrets provider: %w", err)
		}
		b.secretsProvider = provider
	}

	creds, err := secrets.Resolve(ctx, b.secretsProvider, b.config.Secrets.Names)
	if err != nil {
		return nil, err
	}

	if b.config.Database != nil && b.config.Database.Password == "" {
		b.config.Database.Password = creds.DatabasePassword
	}
	return creds, nil
}

// buildSyncComponents builds planner, publisher, manager and coordinator
func buildSyncComponents(
	ctx context.Context,
	b *syncAppConfig,
	creds *secrets.Credentials,
	components *AppComponents,
) error {
	slog.Info("Initializing sync components", "dry_run", b.dryRun)

	var (
		syncMetrics    *telemetry.SyncMetrics
		requestMetrics *telemetry.RequestMetrics
		tracer         trace.Tracer
		err            error
	)
	if b.meterProvider != nil {
		if syncMetrics, err = telemetry.NewSyncMetrics(b.meterProvider); err != nil {
			return fmt.Errorf("failed to create sync metrics: %w", err)
		}
		if requestMetrics, err = telemetry.NewRequestMetrics(b.meterProvider); err != nil {
			return fmt.Errorf("failed to create request metrics: %w", err)
		}
	}
	if b.tracerProvider != nil {
		tracer = b.tracerProvider.Tracer(tracerName)
	}

	gates := gate.NewRegistry(map[string]time.Duration{
		gate.ChannelCMSRead:        b.config.RateLimits.CMSReadInterval(),
		gate.ChannelWorkspaceWrite: b.config.RateLimits.WorkspaceWriteInterval(),
	}, b.gateOptions...)

	if b.contentSource == nil {
		b.contentSource, err = sources.NewContentSource(
			b.config.Contentful, creds.ContentfulToken, gates.For(gate.ChannelCMSRead), requestMetrics)
		if err != nil {
			return fmt.Errorf("failed to create content source: %w", err)
		}
	}

	mode := b.config.Planner.Mode
	if b.mode != "" {
		mode = b.mode
	}
	components.Planner = pkgsync.NewPlanner(
		b.contentSource,
		enrich.NewResolver(b.contentSource, b.config.Contentful.AuthorURLTemplate),
		article.NewNormalizer(b.config.Contentful.ArticleURLTemplate),
		pkgsync.WithPageSize(b.config.Contentful.PageSize),
		pkgsync.WithMode(mode),
		pkgsync.WithPlannerTracer(tracer),
	)

	// A dry run never publishes, so no destination credentials are needed
	if b.publisher == nil && !b.dryRun {
		deps := writer.Dependencies{
			Gate:    gates.For(gate.ChannelWorkspaceWrite),
			Metrics: requestMetrics,
		}
		if b.config.Destination.Type == config.DestinationPostgres {
			pool, err := db.NewPool(ctx, b.config.Database)
			if err != nil {
				return err
			}
			components.Database = pool
			deps.DB = pool
		}
		if b.publisher, err = writer.NewPublisher(b.config, creds, deps); err != nil {
			return fmt.Errorf("failed to create publisher: %w", err)
		}
	}

	components.SyncManager = pkgsync.NewDefaultSyncManager(
		components.CacheStore,
		components.Planner,
		b.publisher,
		pkgsync.WithDryRun(b.dryRun),
		pkgsync.WithDestination(b.config.Destination.Type),
		pkgsync.WithTracer(tracer),
		pkgsync.WithMetrics(syncMetrics),
	)

	components.SyncCoordinator = coordinator.New(
		components.SyncManager,
		components.StatusPersistence,
		coordinator.WithSyncMetrics(syncMetrics),
	)

	slog.Info("Sync components initialized successfully",
		"destination", b.config.Destination.Type,
		"planner_mode", components.Planner.Mode())
	return nil
}
