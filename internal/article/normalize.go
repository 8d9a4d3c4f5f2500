// Package article turns a raw CMS entry plus its resolved sub-resources into
// the canonical cache.Article. Nothing here performs I/O.
package article

import (
	"fmt"
	"time"

	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/sources"
)

const (
	// DateLayout is the layout of Article.Date
	DateLayout = "2006.01.02"

	rawDateLayout      = "2006-01-02 15:04:05-07:00"
	rawDateMicroLayout = "2006-01-02 15:04:05.000000-07:00"
)

// JST is the fixed UTC+9 zone article dates are expressed in
var JST = time.FixedZone("JST", 9*60*60)

// createdAtLayouts are tried in order. Fractional seconds are accepted by
// both even though neither layout names them.
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

// Normalizer builds articles from entries
type Normalizer struct {
	articleURLTemplate string
}

// NewNormalizer creates a normalizer. articleURLTemplate contains the {slug} placeholder.
func NewNormalizer(articleURLTemplate string) *Normalizer {
	return &Normalizer{articleURLTemplate: articleURLTemplate}
}

// Normalize builds the article for entry
func (n *Normalizer) Normalize(entry sources.Entry, author cache.Author, thumbnail string) (cache.Article, error) {
	rawCreated, ok := entry.CreatedAt()
	if !ok {
		return cache.Article{}, fmt.Errorf("%w: entry %s has no createdAt", sources.ErrMalformed, entry.ID())
	}
	created, err := ParseCreatedAt(rawCreated)
	if err != nil {
		return cache.Article{}, fmt.Errorf("%w: entry %s: %w", sources.ErrMalformed, entry.ID(), err)
	}

	slug, ok := entry.String("slug")
	if !ok || slug == "" {
		return cache.Article{}, fmt.Errorf("%w: entry %s has no slug", sources.ErrMalformed, entry.ID())
	}
	title, ok := entry.String("title")
	if !ok {
		return cache.Article{}, fmt.Errorf("%w: entry %s has no title", sources.ErrMalformed, entry.ID())
	}

	return cache.Article{
		URL:       config.ExpandSlug(n.articleURLTemplate, slug),
		Thumbnail: thumbnail,
		Title:     title,
		Date:      FormatDate(created),
		RawDate:   FormatRawDate(created),
		Author:    author,
	}, nil
}

// ParseCreatedAt parses an entry creation timestamp
func ParseCreatedAt(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range createdAtLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("invalid createdAt %q: %w", s, firstErr)
}

// FormatDate returns t in JST as YYYY.MM.DD
func FormatDate(t time.Time) string {
	return t.In(JST).Format(DateLayout)
}

// FormatRawDate returns t in JST as "YYYY-MM-DD HH:MM:SS+09:00", with six
// fractional digits inserted before the offset when the microsecond part is
// non-zero. Sub-microsecond precision is dropped.
func FormatRawDate(t time.Time) string {
	t = t.In(JST).Truncate(time.Microsecond)
	if t.Nanosecond() != 0 {
		return t.Format(rawDateMicroLayout)
	}
	return t.Format(rawDateLayout)
}
