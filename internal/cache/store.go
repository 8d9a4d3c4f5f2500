package cache

import (
	"context"
	"fmt"

	"github.com/articlesync/articlesync/internal/blob"
	"github.com/articlesync/articlesync/internal/logging"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go StateStore

// StateStore loads and saves the cache
type StateStore interface {
	// Load returns the persisted cache, or an empty one when nothing has been saved yet
	Load(ctx context.Context) (*Cache, error)

	// Save persists c, replacing the previous state
	Save(ctx context.Context, c *Cache) error
}

// Store persists the cache as one gzip-compressed JSON object in a blob store
type Store struct {
	blob blob.Store
	key  string
}

// NewStore creates a store writing the object under key
func NewStore(b blob.Store, key string) *Store {
	return &Store{blob: b, key: key}
}

// Key returns the object key
func (s *Store) Key() string {
	return s.key
}

// Load fetches, decompresses and decodes the cache
func (s *Store) Load(ctx context.Context) (*Cache, error) {
	logger := logging.FromContext(ctx).WithValues("key", s.key)

	raw, err := s.blob.Get(ctx, s.key)
	if err != nil {
		if blob.IsNotFound(err) {
			logger.Info("No cache found, starting from empty state")
			return New(), nil
		}
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	data, err := Decompress(raw)
	if err != nil {
		return nil, err
	}

	c, version, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if version != SchemaVersion {
		logger.Info("Migrated cache", "fromVersion", version, "toVersion", SchemaVersion)
	}

	logger.V(1).Info("Loaded cache",
		"articles", len(c.Articles),
		"authors", len(c.Authors),
		"thumbnails", len(c.Thumbnails),
		"published", len(c.ListPublished),
	)
	return c, nil
}

// Save encodes, compresses and uploads c unconditionally
func (s *Store) Save(ctx context.Context, c *Cache) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}

	compressed, err := Compress(data)
	if err != nil {
		return err
	}

	if err := s.blob.Put(ctx, s.key, compressed, ContentType); err != nil {
		return fmt.Errorf("failed to save cache: %w", err)
	}

	logging.FromContext(ctx).Info("Saved cache",
		"key", s.key,
		"articles", len(c.Articles),
		"hashPublished", c.HashPublished,
	)
	return nil
}
