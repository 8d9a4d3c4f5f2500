package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/logging"
)

// DBTX is the subset of a pgx pool or transaction used by the database publisher
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// dbPublisher mirrors articles into a PostgreSQL table
type dbPublisher struct {
	db         DBTX
	insertStmt string
}

// NewDBPublisher creates a publisher inserting into table, which may be
// schema-qualified. The caller is responsible for closing the pool.
func NewDBPublisher(db DBTX, table string) (Publisher, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if table == "" {
		return nil, fmt.Errorf("table name is required")
	}

	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	return &dbPublisher{
		db: db,
		insertStmt: "INSERT INTO " + ident +
			" (url, title, thumbnail, date, raw_date, author_name, author_url, author_avatar)" +
			" VALUES ($1, $2, $3, $4, $5, $6, $7, $8)" +
			" ON CONFLICT (url) DO NOTHING",
	}, nil
}

// Publish inserts the article row. A row already present for the URL is left untouched.
func (d *dbPublisher) Publish(ctx context.Context, a cache.Article) error {
	tag, err := d.db.Exec(ctx, d.insertStmt,
		a.URL, a.Title, a.Thumbnail, a.Date, a.RawDate,
		a.Author.Name, a.Author.URL, a.Author.Avatar,
	)
	if err != nil {
		return fmt.Errorf("failed to insert article %s: %w", a.URL, err)
	}

	if tag.RowsAffected() == 0 {
		logging.FromContext(ctx).Info("Article row already present", "url", a.URL)
	}
	return nil
}
