package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/httpclient"
	"github.com/articlesync/articlesync/internal/logging"
)

// Contentful reads blog entries from the Contentful management API
type Contentful struct {
	httpClient httpclient.Client
	cfg        config.ContentfulConfig
}

// NewContentful creates a content source. httpClient is expected to carry the
// bearer token and the cms-read gate.
func NewContentful(httpClient httpclient.Client, cfg config.ContentfulConfig) *Contentful {
	return &Contentful{
		httpClient: httpClient,
		cfg:        cfg,
	}
}

// ListEntries fetches the page of blog entries starting at skip
func (c *Contentful) ListEntries(ctx context.Context, skip, limit int) (*EntryPage, error) {
	q := url.Values{}
	q.Set(fmt.Sprintf("fields.referenceCategory.%s.sys.id", c.cfg.Locale), c.cfg.CategoryID)
	q.Set("content_type", c.cfg.ContentType)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(skip))
	endpoint := c.environmentURL() + "/" + strings.Trim(c.cfg.EntriesPath, "/") + "?" + q.Encode()

	logging.FromContext(ctx).V(1).Info("Listing entries", "skip", skip, "limit", limit)

	data, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: entry listing is not valid JSON", ErrMalformed)
	}

	doc := gjson.ParseBytes(data)
	total := doc.Get("total")
	if total.Type != gjson.Number {
		return nil, fmt.Errorf("%w: entry listing has no total", ErrMalformed)
	}
	items := doc.Get("items")
	if !items.IsArray() {
		return nil, fmt.Errorf("%w: entry listing has no items", ErrMalformed)
	}

	page := &EntryPage{Total: int(total.Int())}
	for _, item := range items.Array() {
		page.Items = append(page.Items, Entry{raw: item, locale: c.cfg.Locale})
	}
	return page, nil
}

// GetAssetURL fetches an asset and returns its localized file URL
func (c *Contentful) GetAssetURL(ctx context.Context, assetID string) (string, error) {
	endpoint := c.environmentURL() + "/assets/" + url.PathEscape(assetID)

	data, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to get asset %s: %w", assetID, err)
	}

	u := gjson.GetBytes(data, "fields.file."+gjson.Escape(c.cfg.Locale)+".url")
	if u.Type != gjson.String || u.Str == "" {
		return "", fmt.Errorf("%w: asset %s has no file url", ErrMalformed, assetID)
	}
	return u.Str, nil
}

// GetAuthor fetches an author profile entry
func (c *Contentful) GetAuthor(ctx context.Context, authorID string) (*AuthorProfile, error) {
	q := url.Values{}
	q.Set("sys.id", authorID)
	q.Set("content_type", c.cfg.AuthorContentType)
	endpoint := c.environmentURL() + "/entries?" + q.Encode()

	data, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get author %s: %w", authorID, err)
	}

	item := gjson.GetBytes(data, "items.0")
	if !item.Exists() {
		return nil, fmt.Errorf("%w: author %s not found", ErrMalformed, authorID)
	}
	entry := Entry{raw: item, locale: c.cfg.Locale}

	profile := &AuthorProfile{ID: authorID}
	var ok bool
	if profile.Slug, ok = entry.String("slug"); !ok {
		return nil, fmt.Errorf("%w: author %s has no slug", ErrMalformed, authorID)
	}
	if profile.DisplayName, ok = entry.String("displayName"); !ok {
		return nil, fmt.Errorf("%w: author %s has no displayName", ErrMalformed, authorID)
	}
	if profile.Thumbnail, ok = entry.String("thumbnail"); !ok {
		return nil, fmt.Errorf("%w: author %s has no thumbnail", ErrMalformed, authorID)
	}
	return profile, nil
}

func (c *Contentful) environmentURL() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") +
		"/spaces/" + url.PathEscape(c.cfg.SpaceID) +
		"/environments/" + url.PathEscape(c.cfg.Environment)
}
