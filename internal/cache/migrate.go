package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// legacyCache is the version 1 layout: articles as a list, plus a second
// ledger of inserted URLs with its own hash.
type legacyCache struct {
	Articles      []Article         `json:"articles"`
	Authors       map[string]Author `json:"authors"`
	HashInserted  string            `json:"hash_inserted"`
	HashPublished string            `json:"hash_published"`
	ListInserted  []string          `json:"list_inserted"`
	ListPublished []string          `json:"list_published"`
	Thumbnails    map[string]string `json:"thumbnails"`
}

type versionProbe struct {
	Version  int             `json:"version"`
	Articles json.RawMessage `json:"articles"`
}

// detectVersion returns 1 for the list layout and 2 otherwise. Documents
// written before the version field existed are recognized by their shape.
func detectVersion(data []byte) (int, error) {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to decode cache: %w", err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(probe.Articles), []byte("[")) {
		return 1, nil
	}
	return SchemaVersion, nil
}

// decodeLegacy converts the version 1 layout. The article list becomes the
// URL index (the first occurrence of a URL wins) and the inserted ledger is
// dropped since the index keys carry the same information.
func decodeLegacy(data []byte) (*Cache, error) {
	var legacy legacyCache
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode legacy cache: %w", err)
	}

	c := New()
	for _, a := range legacy.Articles {
		if c.HasArticle(a.URL) {
			continue
		}
		if err := c.AddArticle(a); err != nil {
			return nil, fmt.Errorf("failed to migrate legacy cache: %w", err)
		}
	}
	for id, a := range legacy.Authors {
		c.SetAuthor(id, a)
	}
	for id, u := range legacy.Thumbnails {
		c.SetThumbnail(id, u)
	}
	c.ListPublished = append(c.ListPublished, legacy.ListPublished...)
	return c, nil
}
