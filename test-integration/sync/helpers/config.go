package helpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/articlesync/articlesync/internal/secrets"
)

// Secret names written into every test configuration
const (
	contentfulTokenName  = "contentful-token"
	notionTokenName      = "notion-token"
	notionDatabaseIDName = "notion-database-id"
)

// ArticleURL returns the public URL of the fake article slug
func ArticleURL(slug string) string {
	return "https://dev.classmethod.jp/articles/" + slug + "/"
}

// ArticleURLs maps slugs to public URLs
func ArticleURLs(slugs ...string) []string {
	urls := make([]string, 0, len(slugs))
	for _, s := range slugs {
		urls = append(urls, ArticleURL(s))
	}
	return urls
}

// WriteConfigYAML writes a configuration pointing at the fake servers, with
// file storage below storageDir. extra is appended verbatim.
func WriteConfigYAML(dir, contentfulURL, notionURL, storageDir, extra string) (string, error) {
	yaml := fmt.Sprintf(`contentful:
  baseURL: %s
  pageSize: 2
notion:
  baseURL: %s
rateLimits:
  cmsRead: 0s
  workspaceWrite: 0s
storage:
  type: file
  file:
    path: %s
secrets:
  provider: env
  names:
    contentfulToken: %s
    notionToken: %s
    notionDatabaseID: %s
lock:
  disabled: true
%s`, contentfulURL, notionURL, storageDir, contentfulTokenName, notionTokenName, notionDatabaseIDName, extra)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		return "", err
	}
	return path, nil
}

// SecretsProvider serves the fake servers' credentials under the configured names
type SecretsProvider struct{}

// GetSecrets implements secrets.Provider
func (SecretsProvider) GetSecrets(_ context.Context, names []string) (map[string]string, error) {
	known := map[string]string{
		contentfulTokenName:  ContentfulToken,
		notionTokenName:      NotionToken,
		notionDatabaseIDName: NotionDatabaseID,
	}
	out := make(map[string]string, len(names))
	for _, name := range names {
		v, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", secrets.ErrSecretNotFound, name)
		}
		out[name] = v
	}
	return out, nil
}
