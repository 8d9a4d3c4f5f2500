package helpers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/tidwall/gjson"
)

// NotionToken and NotionDatabaseID are the credentials the fake Notion server expects
const (
	NotionToken      = "notion-token"
	NotionDatabaseID = "database-1"
)

// FakeNotion records every page created through POST /v1/pages
type FakeNotion struct {
	*httptest.Server

	mu      sync.Mutex
	urls    []string
	failURL string
}

// NewFakeNotion starts a Notion server that accepts every page
func NewFakeNotion() *FakeNotion {
	f := &FakeNotion{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// FailFor makes page creation fail for the article with url. An empty url
// clears the failure.
func (f *FakeNotion) FailFor(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failURL = url
}

// Published returns the article URLs of the created pages, in order
func (f *FakeNotion) Published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

func (f *FakeNotion) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/v1/pages" {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+NotionToken {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if gjson.GetBytes(data, "parent.database_id").String() != NotionDatabaseID {
		http.Error(w, `{"message":"unknown database"}`, http.StatusNotFound)
		return
	}
	url := gjson.GetBytes(data, "properties.URL.url").String()

	f.mu.Lock()
	defer f.mu.Unlock()
	if url == f.failURL {
		http.Error(w, `{"message":"internal error"}`, http.StatusInternalServerError)
		return
	}
	f.urls = append(f.urls, url)
	_, _ = w.Write([]byte(`{"object":"page","id":"page-` + gjson.GetBytes(data, "properties.Title.title.0.text.content").String() + `"}`))
}
