// Package cache holds the persisted sync state: the index of articles already
// published, the author and thumbnail lookups memoized across runs, and the
// ledger of published URLs with its drift-detection hash.
//
// Struct fields are declared in JSON key order so that the encoding of a
// Cache is sorted at every level, which keeps it byte-stable for equal state.
package cache

import (
	"errors"
	"fmt"
	"slices"
)

// SchemaVersion is the version written by Encode
const SchemaVersion = 2

// ErrArticleExists is returned when an article URL is already recorded
var ErrArticleExists = errors.New("article already recorded")

// Author is a resolved author profile
type Author struct {
	Avatar string `json:"avatar"`
	Name   string `json:"name"`
	URL    string `json:"url"`
}

// Article is a normalized blog article. URL is its identity.
type Article struct {
	Author    Author `json:"author"`
	Date      string `json:"date"`
	RawDate   string `json:"raw_date"`
	Thumbnail string `json:"thumbnail"`
	Title     string `json:"title"`
	URL       string `json:"url"`
}

// Cache is the whole persisted sync state
type Cache struct {
	// Articles maps article URL to the article published for it
	Articles map[string]Article `json:"articles"`

	// Authors maps author entry id to the resolved profile
	Authors map[string]Author `json:"authors"`

	// HashPublished is the SHA-256 of the sorted ledger, recomputed on save
	HashPublished string `json:"hash_published"`

	// ListPublished is the ledger of published URLs
	ListPublished []string `json:"list_published"`

	// Thumbnails maps asset id to the asset file URL
	Thumbnails map[string]string `json:"thumbnails"`

	Version int `json:"version"`
}

// New returns an empty cache
func New() *Cache {
	return &Cache{
		Articles:      map[string]Article{},
		Authors:       map[string]Author{},
		ListPublished: []string{},
		Thumbnails:    map[string]string{},
		Version:       SchemaVersion,
	}
}

// HasArticle reports whether url is already recorded
func (c *Cache) HasArticle(url string) bool {
	_, ok := c.Articles[url]
	return ok
}

// AddArticle records a under its URL. Recorded articles are never overwritten.
func (c *Cache) AddArticle(a Article) error {
	if a.URL == "" {
		return fmt.Errorf("article has no URL")
	}
	if c.HasArticle(a.URL) {
		return fmt.Errorf("%w: %s", ErrArticleExists, a.URL)
	}
	if c.Articles == nil {
		c.Articles = map[string]Article{}
	}
	c.Articles[a.URL] = a
	return nil
}

// RecordPublished records a as published: it enters the index and the ledger.
func (c *Cache) RecordPublished(a Article) error {
	if err := c.AddArticle(a); err != nil {
		return err
	}
	c.ListPublished = append(c.ListPublished, a.URL)
	return nil
}

// Author returns the memoized author for id
func (c *Cache) Author(id string) (Author, bool) {
	a, ok := c.Authors[id]
	return a, ok
}

// SetAuthor memoizes the author for id
func (c *Cache) SetAuthor(id string, a Author) {
	if c.Authors == nil {
		c.Authors = map[string]Author{}
	}
	c.Authors[id] = a
}

// Thumbnail returns the memoized asset URL for id
func (c *Cache) Thumbnail(id string) (string, bool) {
	u, ok := c.Thumbnails[id]
	return u, ok
}

// SetThumbnail memoizes the asset URL for id
func (c *Cache) SetThumbnail(id, url string) {
	if c.Thumbnails == nil {
		c.Thumbnails = map[string]string{}
	}
	c.Thumbnails[id] = url
}

// Canonicalize puts c in its serialized form: nil maps become empty, the
// ledger is sorted and de-duplicated, and the hash is recomputed.
func (c *Cache) Canonicalize() {
	if c.Articles == nil {
		c.Articles = map[string]Article{}
	}
	if c.Authors == nil {
		c.Authors = map[string]Author{}
	}
	if c.Thumbnails == nil {
		c.Thumbnails = map[string]string{}
	}
	ledger := slices.Clone(c.ListPublished)
	slices.Sort(ledger)
	c.ListPublished = slices.Compact(ledger)
	if c.ListPublished == nil {
		c.ListPublished = []string{}
	}
	c.HashPublished = CalcHash(c.ListPublished)
	c.Version = SchemaVersion
}
