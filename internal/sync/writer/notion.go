package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/httpclient"
	"github.com/articlesync/articlesync/internal/logging"
)

// placeholderNumber fills the AuthorId and PostId properties of every page
const placeholderNumber = 1

type notionText struct {
	Content string `json:"content"`
}

type notionRichText struct {
	Text notionText `json:"text"`
}

type notionProperty struct {
	Title    []notionRichText `json:"title,omitempty"`
	RichText []notionRichText `json:"rich_text,omitempty"`
	URL      *string          `json:"url,omitempty"`
	Number   *int             `json:"number,omitempty"`
}

type notionParent struct {
	DatabaseID string `json:"database_id"`
}

type notionPage struct {
	Parent     notionParent              `json:"parent"`
	Properties map[string]notionProperty `json:"properties"`
}

// notionPublisher creates one page per article in a Notion database
type notionPublisher struct {
	httpClient httpclient.Client
	pagesURL   string
	databaseID string
}

// NewNotionPublisher creates a publisher posting to {baseURL}/v1/pages. httpClient
// is expected to carry the token, the Notion-Version header and the
// workspace-write gate.
func NewNotionPublisher(httpClient httpclient.Client, baseURL, databaseID string) (Publisher, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if databaseID == "" {
		return nil, fmt.Errorf("notion database id is required")
	}
	return &notionPublisher{
		httpClient: httpClient,
		pagesURL:   strings.TrimRight(baseURL, "/") + "/v1/pages",
		databaseID: databaseID,
	}, nil
}

// Publish creates the page for article
func (n *notionPublisher) Publish(ctx context.Context, article cache.Article) error {
	resp, err := n.httpClient.PostJSON(ctx, n.pagesURL, newNotionPage(n.databaseID, article))
	if err != nil {
		return fmt.Errorf("failed to create notion page for %s: %w", article.URL, err)
	}

	logging.FromContext(ctx).V(1).Info("Created notion page",
		"url", article.URL,
		"pageID", gjson.GetBytes(resp, "id").String())
	return nil
}

func newNotionPage(databaseID string, a cache.Article) notionPage {
	return notionPage{
		Parent: notionParent{DatabaseID: databaseID},
		Properties: map[string]notionProperty{
			"Title":      {Title: richText(a.Title)},
			"URL":        {URL: &a.URL},
			"Date":       {RichText: richText(a.Date)},
			"RawDate":    {RichText: richText(a.RawDate)},
			"AuthorId":   {Number: intPtr(placeholderNumber)},
			"AuthorName": {RichText: richText(a.Author.Name)},
			"AuthorUrl":  {URL: &a.Author.URL},
			"PostId":     {Number: intPtr(placeholderNumber)},
			"Thumbnail":  {URL: &a.Thumbnail},
		},
	}
}

func richText(content string) []notionRichText {
	return []notionRichText{{Text: notionText{Content: content}}}
}

func intPtr(v int) *int {
	return &v
}
