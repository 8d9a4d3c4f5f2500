// Package helpers provides fake upstream servers and fixtures for the sync integration suite.
package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// AuthorID is the author every fake article links to
const AuthorID = "author-1"

// ContentfulToken is the token the fake Contentful server expects
const ContentfulToken = "contentful-token"

// FakeContentful serves a category listing, newest article first
type FakeContentful struct {
	*httptest.Server

	mu          sync.Mutex
	slugs       []string
	listCalls   int
	authorCalls int
}

// NewFakeContentful starts a server listing slugs, newest first
func NewFakeContentful(slugs ...string) *FakeContentful {
	f := &FakeContentful{slugs: append([]string(nil), slugs...)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// Publish adds new articles in front of the listing
func (f *FakeContentful) Publish(slugs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugs = append(append([]string(nil), slugs...), f.slugs...)
}

// ListCalls returns how many listing pages were requested
func (f *FakeContentful) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// AuthorCalls returns how many author lookups were requested
func (f *FakeContentful) AuthorCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorCalls
}

// CreatedAt is the creation time of the article at position i counting from
// the oldest one, one day apart
func CreatedAt(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func (f *FakeContentful) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+ContentfulToken {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	var body any
	if id := q.Get("sys.id"); id != "" {
		f.authorCalls++
		body = map[string]any{"items": []any{authorEntry(id)}}
	} else {
		f.listCalls++
		skip, _ := strconv.Atoi(q.Get("skip"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		items := []any{}
		for i := skip; i < skip+limit && i < len(f.slugs); i++ {
			items = append(items, articleEntry(f.slugs[i], CreatedAt(len(f.slugs)-1-i)))
		}
		body = map[string]any{"total": len(f.slugs), "items": items}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func localized(v any) map[string]any {
	return map[string]any{"en-US": v}
}

func articleEntry(slug string, created time.Time) map[string]any {
	return map[string]any{
		"sys": map[string]any{"id": "entry-" + slug, "createdAt": created.Format(time.RFC3339)},
		"fields": map[string]any{
			"slug":        localized(slug),
			"title":       localized(fmt.Sprintf("Article %s", slug)),
			"author":      localized(map[string]any{"sys": map[string]any{"id": AuthorID}}),
			"wpThumbnail": localized("https://images.example.com/" + slug + ".png"),
		},
	}
}

func authorEntry(id string) map[string]any {
	return map[string]any{
		"sys": map[string]any{"id": id},
		"fields": map[string]any{
			"slug":        localized("alice"),
			"displayName": localized("Alice"),
			"thumbnail":   localized("https://images.example.com/alice.png"),
		},
	}
}
