package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/articlesync/articlesync/internal/cache"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want %s or %s)", format, formatTable, formatJSON)
	}
}

// writeArticles renders articles as a table or as an indented JSON array
func writeArticles(w io.Writer, format string, articles []cache.Article) error {
	if format == formatJSON {
		return writeJSON(w, articles)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Date", "Title", "Author", "URL")
	for _, a := range articles {
		if err := table.Append([]string{a.Date, a.Title, a.Author.Name, a.URL}); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}
	return table.Render()
}

func writeJSON(w io.Writer, v any) error {
	if v == nil {
		v = []any{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
