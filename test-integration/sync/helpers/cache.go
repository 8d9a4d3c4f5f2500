package helpers

import (
	"context"
	"encoding/json"

	"github.com/articlesync/articlesync/internal/blob"
	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/config"
)

// WriteLegacyCache stores a version 1 cache below storageDir that records
// the articles for slugs as already published
func WriteLegacyCache(ctx context.Context, storageDir string, slugs ...string) error {
	articles := make([]cache.Article, 0, len(slugs))
	for _, s := range slugs {
		articles = append(articles, cache.Article{
			URL:    ArticleURL(s),
			Title:  "Article " + s,
			Author: cache.Author{Name: "Alice"},
		})
	}

	data, err := json.Marshal(map[string]any{
		"articles":       articles,
		"authors":        map[string]cache.Author{},
		"thumbnails":     map[string]string{},
		"list_inserted":  ArticleURLs(slugs...),
		"list_published": ArticleURLs(slugs...),
		"hash_inserted":  "",
		"hash_published": "",
	})
	if err != nil {
		return err
	}

	compressed, err := cache.Compress(data)
	if err != nil {
		return err
	}
	return blob.NewFileStore(storageDir).Put(ctx, config.DefaultCacheKey, compressed, cache.ContentType)
}

// LoadCache reads the cache stored below storageDir
func LoadCache(ctx context.Context, storageDir string) (*cache.Cache, error) {
	return cache.NewStore(blob.NewFileStore(storageDir), config.DefaultCacheKey).Load(ctx)
}
