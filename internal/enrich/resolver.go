// Package enrich resolves the sub-resources an entry references (its author
// and its thumbnail) and memoizes the results in the cache so each one is read
// from the content source at most once across runs.
package enrich

import (
	"context"
	"fmt"

	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/logging"
	"github.com/articlesync/articlesync/internal/sources"
)

const (
	fieldAuthor      = "author"
	fieldWPThumbnail = "wpThumbnail"
	fieldThumbnail   = "thumbnail"
)

// Resolver resolves authors and thumbnails through the content source
type Resolver struct {
	source            sources.ContentSource
	authorURLTemplate string
}

// NewResolver creates a resolver. authorURLTemplate contains the {slug} placeholder.
func NewResolver(source sources.ContentSource, authorURLTemplate string) *Resolver {
	return &Resolver{
		source:            source,
		authorURLTemplate: authorURLTemplate,
	}
}

// ResolveAuthor returns the author the entry links to. A memoized author is
// returned without a read; otherwise the profile is read once and memoized.
func (r *Resolver) ResolveAuthor(ctx context.Context, entry sources.Entry, c *cache.Cache) (cache.Author, error) {
	authorID, ok := entry.LinkID(fieldAuthor)
	if !ok {
		return cache.Author{}, fmt.Errorf("%w: entry %s has no author", sources.ErrMalformed, entry.ID())
	}

	if author, ok := c.Author(authorID); ok {
		return author, nil
	}

	profile, err := r.source.GetAuthor(ctx, authorID)
	if err != nil {
		return cache.Author{}, err
	}

	author := cache.Author{
		URL:    config.ExpandSlug(r.authorURLTemplate, profile.Slug),
		Name:   profile.DisplayName,
		Avatar: profile.Thumbnail,
	}
	c.SetAuthor(authorID, author)

	logging.FromContext(ctx).V(1).Info("Resolved author", "authorID", authorID, "name", author.Name)
	return author, nil
}

// ResolveThumbnail returns the entry's thumbnail URL. A direct wpThumbnail URL
// takes priority and is used unchanged; otherwise the linked asset is
// resolved through the memoized asset lookup.
func (r *Resolver) ResolveThumbnail(ctx context.Context, entry sources.Entry, c *cache.Cache) (string, error) {
	if direct, ok := entry.String(fieldWPThumbnail); ok {
		return direct, nil
	}

	assetID, ok := entry.LinkID(fieldThumbnail)
	if !ok {
		return "", fmt.Errorf("%w: entry %s has no thumbnail", sources.ErrMalformed, entry.ID())
	}

	if u, ok := c.Thumbnail(assetID); ok {
		return u, nil
	}

	u, err := r.source.GetAssetURL(ctx, assetID)
	if err != nil {
		return "", err
	}
	c.SetThumbnail(assetID, u)

	logging.FromContext(ctx).V(1).Info("Resolved thumbnail", "assetID", assetID)
	return u, nil
}
