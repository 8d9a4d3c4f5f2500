// Package writer contains the Publisher interface and its destinations
package writer

import (
	"context"

	"github.com/articlesync/articlesync/internal/cache"
)

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks -source=writer.go Publisher

// Publisher creates one destination record per article.
type Publisher interface {
	// Publish writes a single article. An error means the article was not published.
	Publish(ctx context.Context, article cache.Article) error
}
