package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/articlesync/articlesync/internal/blob"
	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/status"
	"github.com/articlesync/articlesync/internal/versions"
)

// writeTestConfig writes a file-storage configuration and returns its path
// and the storage directory
func writeTestConfig(t *testing.T, extra string) (string, string) {
	t.Helper()

	dataDir := t.TempDir()
	yaml := fmt.Sprintf(`
storage:
  type: file
  file:
    path: %s
secrets:
  provider: env
  names:
    contentfulToken: CF_TOKEN
    notionToken: NOTION_TOKEN
    notionDatabaseID: NOTION_DB
%s`, dataDir, extra)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path, dataDir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func seedCache(t *testing.T, dataDir string, articles ...cache.Article) {
	t.Helper()

	c := cache.New()
	for _, a := range articles {
		require.NoError(t, c.RecordPublished(a))
	}
	store := cache.NewStore(blob.NewFileStore(dataDir), config.DefaultCacheKey)
	require.NoError(t, store.Save(context.Background(), c))
}

var (
	olderArticle = cache.Article{
		URL:     "https://x/articles/older/",
		Title:   "Older",
		Date:    "2024.01.01",
		RawDate: "2024-01-01 09:00:00+09:00",
		Author:  cache.Author{Name: "Alice"},
	}
	newerArticle = cache.Article{
		URL:     "https://x/articles/newer/",
		Title:   "Newer",
		Date:    "2024.02.01",
		RawDate: "2024-02-01 09:00:00+09:00",
		Author:  cache.Author{Name: "Bob"},
	}
)

func TestVersionCmd_JSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "version", "--format", "json")
	require.NoError(t, err)

	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, versions.GetVersionInfo(), info)
}

func TestCacheShow(t *testing.T) {
	t.Parallel()

	configPath, dataDir := writeTestConfig(t, "")
	seedCache(t, dataDir, olderArticle, newerArticle)

	t.Run("json is newest first", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "", "cache", "show", "--config", configPath, "--format", "json")
		require.NoError(t, err)

		var got []cache.Article
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 2)
		assert.Equal(t, newerArticle.URL, got[0].URL)
		assert.Equal(t, olderArticle.URL, got[1].URL)
	})

	t.Run("table", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "", "cache", "show", "--config", configPath)
		require.NoError(t, err)
		assert.Contains(t, out, newerArticle.URL)
		assert.Contains(t, out, "Alice")
		assert.Less(t, strings.Index(out, newerArticle.URL), strings.Index(out, olderArticle.URL))
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "", "cache", "show", "--config", configPath, "--format", "yaml")
		require.ErrorContains(t, err, "unsupported output format")
	})
}

func TestCacheShow_EmptyStore(t *testing.T) {
	t.Parallel()

	configPath, _ := writeTestConfig(t, "")
	out, err := execute(t, "", "cache", "show", "--config", configPath, "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestCacheHash(t *testing.T) {
	t.Parallel()

	configPath, dataDir := writeTestConfig(t, "")
	seedCache(t, dataDir, olderArticle, newerArticle)

	out, err := execute(t, "", "cache", "hash", "--config", configPath)
	require.NoError(t, err)

	want := cache.CalcHash([]string{newerArticle.URL, olderArticle.URL})
	assert.Equal(t, want+"  2 published\n", out)
}

func TestStatusCmd(t *testing.T) {
	t.Parallel()

	configPath, dataDir := writeTestConfig(t, "")

	out, err := execute(t, "", "status", "--config", configPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":"","planned":0,"published":0,"articleCount":0}`, out)

	persistence := status.NewBlobStatusPersistence(blob.NewFileStore(dataDir), config.DefaultStatusKey)
	require.NoError(t, persistence.SaveStatus(context.Background(), &status.SyncStatus{
		Phase:     status.SyncPhaseComplete,
		RunID:     "run-1",
		Published: 2,
	}))

	out, err = execute(t, "", "status", "--config", configPath)
	require.NoError(t, err)

	var got status.SyncStatus
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, status.SyncPhaseComplete, got.Phase)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.Published)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "", "status", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to load configuration")
}

func TestPlanCmd_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	configPath, _ := writeTestConfig(t, "")
	_, err := execute(t, "", "plan", "--config", configPath, "--format", "xml")
	require.ErrorContains(t, err, "unsupported output format")
}

func TestRunCmd_InvalidMode(t *testing.T) {
	t.Parallel()

	configPath, _ := writeTestConfig(t, "lock:\n  disabled: true\n")
	_, err := execute(t, "", "run", "--config", configPath, "--dry-run", "--mode", "sometimes")
	require.ErrorContains(t, err, "unsupported planner mode")
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	t.Run("down is cancelled without confirmation", func(t *testing.T) {
		t.Parallel()

		configPath, _ := writeTestConfig(t, "")
		out, err := execute(t, "no\n", "migrate", "down", "--config", configPath, "--num-steps", "1")
		require.EqualError(t, err, "migration cancelled by user")
		assert.Contains(t, out, "migrate down 1 step(s)")
	})

	t.Run("up requires a database section", func(t *testing.T) {
		t.Parallel()

		configPath, _ := writeTestConfig(t, "")
		_, err := execute(t, "", "migrate", "up", "--config", configPath, "--yes")
		require.EqualError(t, err, "database configuration is required")
	})
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"Y\n", true},
		{"y", true},
		{"no\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			t.Parallel()

			cmd := NewRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetIn(strings.NewReader(tt.input))
			assert.Equal(t, tt.want, confirm(cmd, "Continue?"))
		})
	}
}
