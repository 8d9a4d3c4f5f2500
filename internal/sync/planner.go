package sync

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/articlesync/articlesync/internal/article"
	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/enrich"
	"github.com/articlesync/articlesync/internal/logging"
	"github.com/articlesync/articlesync/internal/otel"
	"github.com/articlesync/articlesync/internal/sources"
)

// Planner decides which upstream articles are new
type Planner struct {
	source     sources.ContentSource
	resolver   *enrich.Resolver
	normalizer *article.Normalizer
	pageSize   int
	mode       string
	tracer     trace.Tracer
}

// PlannerOption configures a Planner
type PlannerOption func(*Planner)

// WithPageSize sets the listing page size
func WithPageSize(size int) PlannerOption {
	return func(p *Planner) {
		if size > 0 {
			p.pageSize = size
		}
	}
}

// WithMode selects config.PlannerModeExhaustive or config.PlannerModeEarlyStop
func WithMode(mode string) PlannerOption {
	return func(p *Planner) {
		if mode != "" {
			p.mode = mode
		}
	}
}

// WithPlannerTracer records a span per listing page
func WithPlannerTracer(tracer trace.Tracer) PlannerOption {
	return func(p *Planner) {
		p.tracer = tracer
	}
}

// NewPlanner creates a planner in exhaustive mode with the default page size
func NewPlanner(
	source sources.ContentSource,
	resolver *enrich.Resolver,
	normalizer *article.Normalizer,
	opts ...PlannerOption,
) *Planner {
	p := &Planner{
		source:     source,
		resolver:   resolver,
		normalizer: normalizer,
		pageSize:   config.DefaultPageSize,
		mode:       config.PlannerModeExhaustive,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode returns the termination policy in use
func (p *Planner) Mode() string {
	return p.mode
}

// Plan returns the new articles in listing order, each URL at most once. It
// never touches the cache's article index or ledger; resolving entries may
// add memoized authors and thumbnails.
func (p *Planner) Plan(ctx context.Context, c *cache.Cache) ([]cache.Article, error) {
	logger := logging.FromContext(ctx).WithValues("mode", p.mode, "pageSize", p.pageSize)

	planned := []cache.Article{}
	seen := make(map[string]struct{})

	for page := 0; ; page++ {
		entries, err := p.listPage(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries.Items {
			a, err := p.convert(ctx, entry, c)
			if err != nil {
				return nil, err
			}

			if c.HasArticle(a.URL) {
				if p.mode == config.PlannerModeEarlyStop {
					logger.Info("Reached a known article, stopping", "url", a.URL, "page", page, "planned", len(planned))
					return planned, nil
				}
				continue
			}
			if _, dup := seen[a.URL]; dup {
				logger.V(1).Info("Skipping duplicate entry", "url", a.URL)
				continue
			}
			seen[a.URL] = struct{}{}
			planned = append(planned, a)
		}

		if p.pageSize*(page+1) >= entries.Total || len(entries.Items) == 0 {
			logger.Info("Plan complete", "pages", page+1, "total", entries.Total, "planned", len(planned))
			return planned, nil
		}
	}
}

func (p *Planner) listPage(ctx context.Context, page int) (*sources.EntryPage, error) {
	ctx, span := otel.StartSpan(ctx, p.tracer, "sync.plan.page",
		trace.WithAttributes(
			otel.AttrPage.Int(page),
			otel.AttrPageSize.Int(p.pageSize),
		),
	)
	defer span.End()

	entries, err := p.source.ListEntries(ctx, p.pageSize*page, p.pageSize)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list page %d: %w", page, err)
	}
	span.SetAttributes(
		otel.AttrResultCount.Int(len(entries.Items)),
		otel.AttrUpstreamHits.Int(entries.Total),
	)
	return entries, nil
}

func (p *Planner) convert(ctx context.Context, entry sources.Entry, c *cache.Cache) (cache.Article, error) {
	thumbnail, err := p.resolver.ResolveThumbnail(ctx, entry, c)
	if err != nil {
		return cache.Article{}, fmt.Errorf("failed to resolve thumbnail of entry %s: %w", entry.ID(), err)
	}

	author, err := p.resolver.ResolveAuthor(ctx, entry, c)
	if err != nil {
		return cache.Article{}, fmt.Errorf("failed to resolve author of entry %s: %w", entry.ID(), err)
	}

	return p.normalizer.Normalize(entry, author, thumbnail)
}
