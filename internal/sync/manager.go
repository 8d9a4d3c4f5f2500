package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/logging"
	"github.com/articlesync/articlesync/internal/otel"
	"github.com/articlesync/articlesync/internal/sync/writer"
	"github.com/articlesync/articlesync/internal/telemetry"
)

// persistTimeout bounds the final cache save, which runs even after the
// caller's context is cancelled
const persistTimeout = 30 * time.Second

// Result contains the outcome of a sync run
type Result struct {
	// RunID identifies the run in logs, spans and the run status
	RunID string

	// Planned are the new articles found by the planner, in publish order
	Planned []cache.Article

	// Published is the number of planned articles written to the destination
	Published int

	// ArticleCount is the number of articles recorded in the cache after the run
	ArticleCount int

	// Hash is the published-ledger hash after the run
	Hash string

	// DryRun is set when nothing was published or persisted
	DryRun bool
}

// Manager runs sync operations
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/articlesync/articlesync/internal/sync Manager
type Manager interface {
	// PerformSync executes one complete run: load, plan, publish, persist.
	// The returned Result is non-nil even when an error is returned.
	PerformSync(ctx context.Context) (*Result, error)
}

// ArticlePlanner computes the articles missing from a cache
type ArticlePlanner interface {
	Plan(ctx context.Context, c *cache.Cache) ([]cache.Article, error)
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	store       cache.StateStore
	planner     ArticlePlanner
	publisher   writer.Publisher
	destination string
	dryRun      bool
	tracer      trace.Tracer
	metrics     *telemetry.SyncMetrics
	newRunID    func() string
}

// ManagerOption configures the manager
type ManagerOption func(*defaultSyncManager)

// WithDryRun plans without publishing or persisting anything
func WithDryRun(dryRun bool) ManagerOption {
	return func(m *defaultSyncManager) {
		m.dryRun = dryRun
	}
}

// WithDestination names the destination type in metrics and spans
func WithDestination(destination string) ManagerOption {
	return func(m *defaultSyncManager) {
		m.destination = destination
	}
}

// WithTracer records a span per run and per stage
func WithTracer(tracer trace.Tracer) ManagerOption {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// WithMetrics records planned, known and published article counts
func WithMetrics(metrics *telemetry.SyncMetrics) ManagerOption {
	return func(m *defaultSyncManager) {
		m.metrics = metrics
	}
}

// WithRunIDGenerator overrides how run ids are generated
func WithRunIDGenerator(fn func() string) ManagerOption {
	return func(m *defaultSyncManager) {
		m.newRunID = fn
	}
}

// NewDefaultSyncManager creates a new Manager
func NewDefaultSyncManager(
	store cache.StateStore, planner ArticlePlanner, publisher writer.Publisher, opts ...ManagerOption,
) Manager {
	m := &defaultSyncManager{
		store:     store,
		planner:   planner,
		publisher: publisher,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PerformSync runs LOAD -> PLAN -> PUBLISH* -> PERSIST. A load failure ends
// the run immediately. Any later failure still reaches PERSIST; its error is
// joined with the persistence error, if any.
func (m *defaultSyncManager) PerformSync(ctx context.Context) (result *Result, err error) {
	result = &Result{
		RunID:   m.newRunID(),
		Planned: []cache.Article{},
		DryRun:  m.dryRun,
	}

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.run",
		trace.WithAttributes(
			otel.AttrRunID.String(result.RunID),
			otel.AttrDestination.String(m.destination),
		),
	)
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	logger := logging.FromContext(ctx).WithValues("runID", result.RunID)
	ctx = logging.NewContext(ctx, logger)

	// LOAD
	c, err := m.load(ctx)
	if err != nil {
		return result, &Error{Stage: StageLoad, Err: err}
	}
	m.metrics.RecordKnown(ctx, len(c.Articles))

	// PLAN
	planned, err := m.plan(ctx, c)
	if err != nil {
		planErr := &Error{Stage: StagePlan, Err: err}
		if m.dryRun {
			return result, planErr
		}
		logger.Error(err, "Plan failed, saving resolved lookups")
		return result, errors.Join(planErr, m.persist(ctx, c, result))
	}
	result.Planned = planned
	m.metrics.RecordPlanned(ctx, len(planned))

	if m.dryRun {
		result.ArticleCount = len(c.Articles)
		result.Hash = cache.CalcHash(c.ListPublished)
		logger.Info("Dry run complete", "planned", len(planned))
		return result, nil
	}

	// PUBLISH
	var publishErr error
	if err := m.publishAll(ctx, c, planned, result); err != nil {
		publishErr = &Error{Stage: StagePublish, Err: err}
		logger.Error(err, "Publish failed, saving progress", "published", result.Published, "planned", len(planned))
	}

	// PERSIST
	return result, errors.Join(publishErr, m.persist(ctx, c, result))
}

func (m *defaultSyncManager) load(ctx context.Context) (*cache.Cache, error) {
	ctx, span := otel.StartStage(ctx, m.tracer, string(StageLoad))
	defer span.End()

	c, err := m.store.Load(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(c.Articles)))
	return c, nil
}

func (m *defaultSyncManager) plan(ctx context.Context, c *cache.Cache) ([]cache.Article, error) {
	ctx, span := otel.StartStage(ctx, m.tracer, string(StagePlan))
	defer span.End()

	if p, ok := m.planner.(*Planner); ok {
		span.SetAttributes(otel.AttrPlannerMode.String(p.Mode()))
	}

	planned, err := m.planner.Plan(ctx, c)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(planned)))
	return planned, nil
}

// publishAll publishes in order and records each article as soon as it is
// published. It stops at the first failure.
func (m *defaultSyncManager) publishAll(
	ctx context.Context, c *cache.Cache, planned []cache.Article, result *Result,
) (err error) {
	ctx, span := otel.StartStage(ctx, m.tracer, string(StagePublish),
		otel.AttrDestination.String(m.destination))
	defer func() {
		span.SetAttributes(otel.AttrResultCount.Int(result.Published))
		otel.RecordError(span, err)
		span.End()
	}()

	logger := logging.FromContext(ctx)
	for _, a := range planned {
		if err := m.publisher.Publish(ctx, a); err != nil {
			return err
		}
		if err := c.RecordPublished(a); err != nil {
			// Planned articles are never in the cache, so this only fires on a planner bug
			logger.Error(err, "Published article was already recorded", "url", a.URL)
		}
		result.Published++
		span.AddEvent("article.published", trace.WithAttributes(otel.AttrArticleURL.String(a.URL)))
		m.metrics.RecordPublished(ctx, m.destination)
		logger.Info("Published article", "url", a.URL, "title", a.Title)
	}
	return nil
}

// persist saves the cache on a context detached from cancellation of ctx
func (m *defaultSyncManager) persist(ctx context.Context, c *cache.Cache, result *Result) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	saveCtx, span := otel.StartStage(saveCtx, m.tracer, string(StagePersist))
	defer span.End()

	if err := m.store.Save(saveCtx, c); err != nil {
		otel.RecordError(span, err)
		return &Error{Stage: StagePersist, Err: err}
	}

	result.ArticleCount = len(c.Articles)
	result.Hash = cache.CalcHash(c.ListPublished)
	return nil
}
