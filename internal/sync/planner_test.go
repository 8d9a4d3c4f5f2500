package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/articlesync/articlesync/internal/article"
	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/enrich"
	"github.com/articlesync/articlesync/internal/sources"
	"github.com/articlesync/articlesync/internal/sources/mocks"
)

const (
	testArticleTemplate = "https://x/articles/{slug}/"
	testAuthorTemplate  = "https://x/author/{slug}/"
)

func articleURL(slug string) string {
	return config.ExpandSlug(testArticleTemplate, slug)
}

func testEntry(t *testing.T, slug string) sources.Entry {
	t.Helper()
	raw := fmt.Sprintf(`{
		"sys": {"id": "entry-%[1]s", "createdAt": "2024-01-01T00:00:00.000Z"},
		"fields": {
			"slug": {"en-US": "%[1]s"},
			"title": {"en-US": "Title %[1]s"},
			"author": {"en-US": {"sys": {"id": "author-1"}}},
			"wpThumbnail": {"en-US": "https://img/%[1]s.png"}
		}
	}`, slug)
	e, err := sources.NewEntry([]byte(raw), "en-US")
	require.NoError(t, err)
	return e
}

func testPage(t *testing.T, total int, slugs ...string) *sources.EntryPage {
	t.Helper()
	page := &sources.EntryPage{Total: total}
	for _, slug := range slugs {
		page.Items = append(page.Items, testEntry(t, slug))
	}
	return page
}

func knownArticle(slug string) cache.Article {
	return cache.Article{URL: articleURL(slug), Title: "Title " + slug}
}

func newTestPlanner(source sources.ContentSource, opts ...PlannerOption) *Planner {
	return NewPlanner(
		source,
		enrich.NewResolver(source, testAuthorTemplate),
		article.NewNormalizer(testArticleTemplate),
		opts...,
	)
}

func expectAuthor(source *mocks.MockContentSource) {
	source.EXPECT().
		GetAuthor(gomock.Any(), "author-1").
		Return(&sources.AuthorProfile{ID: "author-1", Slug: "alice", DisplayName: "Alice", Thumbnail: "https://img/alice.png"}, nil).
		AnyTimes()
}

func plannedURLs(articles []cache.Article) []string {
	urls := make([]string, 0, len(articles))
	for _, a := range articles {
		urls = append(urls, a.URL)
	}
	return urls
}

func TestPlanner_PageCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		total int
		limit int
		pages int
	}{
		{name: "empty listing still fetches the first page", total: 0, limit: 2, pages: 1},
		{name: "single partial page", total: 1, limit: 2, pages: 1},
		{name: "exact multiple", total: 4, limit: 2, pages: 2},
		{name: "trailing partial page", total: 5, limit: 2, pages: 3},
		{name: "page size one", total: 3, limit: 1, pages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			source := mocks.NewMockContentSource(ctrl)
			expectAuthor(source)

			n := 0
			for page := range tt.pages {
				var slugs []string
				for i := 0; i < tt.limit && n < tt.total; i++ {
					slugs = append(slugs, fmt.Sprintf("a%d", n))
					n++
				}
				source.EXPECT().
					ListEntries(gomock.Any(), page*tt.limit, tt.limit).
					Return(testPage(t, tt.total, slugs...), nil).
					Times(1)
			}

			planned, err := newTestPlanner(source, WithPageSize(tt.limit)).Plan(context.Background(), cache.New())
			require.NoError(t, err)
			assert.Len(t, planned, tt.total)
		})
	}
}

func TestPlanner_EarlyStop(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockContentSource(ctrl)
	expectAuthor(source)

	// the second page must never be requested
	source.EXPECT().
		ListEntries(gomock.Any(), 0, 4).
		Return(testPage(t, 8, "n1", "n2", "k1", "n3"), nil)

	c := cache.New()
	require.NoError(t, c.AddArticle(knownArticle("k1")))

	planned, err := newTestPlanner(source, WithPageSize(4), WithMode(config.PlannerModeEarlyStop)).
		Plan(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{articleURL("n1"), articleURL("n2")}, plannedURLs(planned))
}

func TestPlanner_EarlyStopFirstItemKnown(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockContentSource(ctrl)
	expectAuthor(source)
	source.EXPECT().ListEntries(gomock.Any(), 0, 2).Return(testPage(t, 10, "k1", "n1"), nil)

	c := cache.New()
	require.NoError(t, c.AddArticle(knownArticle("k1")))

	planned, err := newTestPlanner(source, WithPageSize(2), WithMode(config.PlannerModeEarlyStop)).
		Plan(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, planned)
}

func TestPlanner_Exhaustive(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockContentSource(ctrl)
	expectAuthor(source)
	gomock.InOrder(
		source.EXPECT().ListEntries(gomock.Any(), 0, 3).Return(testPage(t, 5, "n1", "k1", "n2"), nil),
		source.EXPECT().ListEntries(gomock.Any(), 3, 3).Return(testPage(t, 5, "k2", "n3"), nil),
	)

	c := cache.New()
	require.NoError(t, c.AddArticle(knownArticle("k1")))
	require.NoError(t, c.AddArticle(knownArticle("k2")))

	planner := newTestPlanner(source, WithPageSize(3))
	assert.Equal(t, config.PlannerModeExhaustive, planner.Mode())

	planned, err := planner.Plan(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{articleURL("n1"), articleURL("n2"), articleURL("n3")}, plannedURLs(planned))
}

func TestPlanner_DeduplicatesWithinRun(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockContentSource(ctrl)
	expectAuthor(source)
	gomock.InOrder(
		source.EXPECT().ListEntries(gomock.Any(), 0, 2).Return(testPage(t, 4, "a", "b"), nil),
		// the listing shifted between requests and repeats b
		source.EXPECT().ListEntries(gomock.Any(), 2, 2).Return(testPage(t, 4, "b", "c"), nil),
	)

	planned, err := newTestPlanner(source, WithPageSize(2)).Plan(context.Background(), cache.New())
	require.NoError(t, err)
	assert.Equal(t, []string{articleURL("a"), articleURL("b"), articleURL("c")}, plannedURLs(planned))
}

func TestPlanner_StopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockContentSource(ctrl)
	expectAuthor(source)
	gomock.InOrder(
		source.EXPECT().ListEntries(gomock.Any(), 0, 2).Return(testPage(t, 1000, "a", "b"), nil),
		source.EXPECT().ListEntries(gomock.Any(), 2, 2).Return(testPage(t, 1000), nil),
	)

	planned, err := newTestPlanner(source, WithPageSize(2)).Plan(context.Background(), cache.New())
	require.NoError(t, err)
	assert.Len(t, planned, 2)
}

func TestPlanner_OnlyMemoizationIsMutated(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockContentSource(ctrl)
	source.EXPECT().
		GetAuthor(gomock.Any(), "author-1").
		Return(&sources.AuthorProfile{ID: "author-1", Slug: "alice", DisplayName: "Alice", Thumbnail: "https://img/alice.png"}, nil).
		Times(1)
	source.EXPECT().ListEntries(gomock.Any(), 0, 100).Return(testPage(t, 3, "a", "b", "c"), nil)

	c := cache.New()
	planned, err := newTestPlanner(source).Plan(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, planned, 3)

	assert.Empty(t, c.Articles)
	assert.Empty(t, c.ListPublished)
	assert.Contains(t, c.Authors, "author-1")

	a := planned[0]
	assert.Equal(t, "https://x/articles/a/", a.URL)
	assert.Equal(t, "https://img/a.png", a.Thumbnail)
	assert.Equal(t, "Title a", a.Title)
	assert.Equal(t, "2024.01.01", a.Date)
	assert.Equal(t, "2024-01-01 09:00:00+09:00", a.RawDate)
	assert.Equal(t, cache.Author{URL: "https://x/author/alice/", Name: "Alice", Avatar: "https://img/alice.png"}, a.Author)
}

func TestPlanner_Errors(t *testing.T) {
	t.Parallel()

	t.Run("listing failure", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		source := mocks.NewMockContentSource(ctrl)
		boom := errors.New("HTTP 502")
		source.EXPECT().ListEntries(gomock.Any(), 0, 100).Return(nil, boom)

		_, err := newTestPlanner(source).Plan(context.Background(), cache.New())
		require.ErrorIs(t, err, boom)
	})

	t.Run("malformed entry", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		source := mocks.NewMockContentSource(ctrl)
		bad, err := sources.NewEntry([]byte(`{"sys":{"id":"bad"},"fields":{}}`), "en-US")
		require.NoError(t, err)
		source.EXPECT().ListEntries(gomock.Any(), 0, 100).Return(&sources.EntryPage{Total: 1, Items: []sources.Entry{bad}}, nil)

		_, err = newTestPlanner(source).Plan(context.Background(), cache.New())
		require.ErrorIs(t, err, sources.ErrMalformed)
	})
}
