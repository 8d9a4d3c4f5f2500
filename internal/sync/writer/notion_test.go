package writer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/httpclient"
)

func testArticle() cache.Article {
	return cache.Article{
		URL:       "https://dev.classmethod.jp/articles/hello/",
		Thumbnail: "https://images.example.com/hello.png",
		Title:     "Hello",
		Date:      "2024.01.02",
		RawDate:   "2024-01-02 09:00:00.123456+09:00",
		Author: cache.Author{
			URL:    "https://dev.classmethod.jp/author/alice/",
			Name:   "Alice",
			Avatar: "https://images.example.com/alice.png",
		},
	}
}

func TestNotionPublisher_Publish(t *testing.T) {
	t.Parallel()

	var body []byte
	var header http.Header
	var path, method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		header = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"object":"page","id":"page-1"}`))
	}))
	t.Cleanup(server.Close)

	client := httpclient.NewDefaultClient(
		httpclient.WithBearerToken("secret_abc"),
		httpclient.WithHeader("Notion-Version", "2022-06-28"),
	)
	p, err := NewNotionPublisher(client, server.URL+"/", "db-123")
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), testArticle()))

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/v1/pages", path)
	assert.Equal(t, "Bearer secret_abc", header.Get("Authorization"))
	assert.Equal(t, "2022-06-28", header.Get("Notion-Version"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))

	doc := gjson.ParseBytes(body)
	assert.Equal(t, "db-123", doc.Get("parent.database_id").String())
	props := doc.Get("properties")
	assert.Equal(t, "Hello", props.Get("Title.title.0.text.content").String())
	assert.Equal(t, "https://dev.classmethod.jp/articles/hello/", props.Get("URL.url").String())
	assert.Equal(t, "2024.01.02", props.Get("Date.rich_text.0.text.content").String())
	assert.Equal(t, "2024-01-02 09:00:00.123456+09:00", props.Get("RawDate.rich_text.0.text.content").String())
	assert.Equal(t, int64(1), props.Get("AuthorId.number").Int())
	assert.Equal(t, "Alice", props.Get("AuthorName.rich_text.0.text.content").String())
	assert.Equal(t, "https://dev.classmethod.jp/author/alice/", props.Get("AuthorUrl.url").String())
	assert.Equal(t, int64(1), props.Get("PostId.number").Int())
	assert.Equal(t, "https://images.example.com/hello.png", props.Get("Thumbnail.url").String())

	assert.False(t, props.Get("Title.rich_text").Exists())
	assert.False(t, props.Get("URL.number").Exists())
}

func TestNotionPublisher_Non2xxFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","code":"validation_error"}`))
	}))
	t.Cleanup(server.Close)

	p, err := NewNotionPublisher(httpclient.NewDefaultClient(), server.URL, "db-123")
	require.NoError(t, err)

	err = p.Publish(context.Background(), testArticle())
	require.Error(t, err)

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, httpErr.Message, "validation_error")
}

func TestNewNotionPublisher_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewNotionPublisher(nil, "https://api.notion.com", "db")
	require.Error(t, err)

	_, err = NewNotionPublisher(httpclient.NewDefaultClient(), "https://api.notion.com", "")
	require.Error(t, err)
}
