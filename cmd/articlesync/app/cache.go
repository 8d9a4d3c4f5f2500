package app

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/articlesync/articlesync/internal/blob"
	"github.com/articlesync/articlesync/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the persisted cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "List the articles recorded in the cache, newest first",
		RunE:  runCacheShow,
	}
	showCmd.Flags().String("format", formatTable, "Output format (table or json)")

	hashCmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the hash of the published ledger",
		RunE:  runCacheHash,
	}

	cacheCmd.AddCommand(showCmd, hashCmd)
	return cacheCmd
}

// loadCache loads the cache from the configured storage
func loadCache(cmd *cobra.Command) (*cache.Cache, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := blob.NewStore(cmd.Context(), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s store: %w", cfg.Storage.Type, err)
	}
	return cache.NewStore(store, cfg.Storage.CacheKey).Load(cmd.Context())
}

func runCacheShow(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	c, err := loadCache(cmd)
	if err != nil {
		return err
	}

	articles := make([]cache.Article, 0, len(c.Articles))
	for _, a := range c.Articles {
		articles = append(articles, a)
	}
	slices.SortFunc(articles, func(a, b cache.Article) int {
		if n := cmp.Compare(b.RawDate, a.RawDate); n != 0 {
			return n
		}
		return cmp.Compare(a.URL, b.URL)
	})
	return writeArticles(cmd.OutOrStdout(), format, articles)
}

func runCacheHash(cmd *cobra.Command, _ []string) error {
	c, err := loadCache(cmd)
	if err != nil {
		return err
	}

	// Load canonicalizes, so the hash matches the ledger as read
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s  %d published\n", c.HashPublished, len(c.ListPublished))
	return err
}
