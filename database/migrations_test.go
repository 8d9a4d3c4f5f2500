package database

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tclog "github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type nopLogger struct{}

func (*nopLogger) Printf(_ string, _ ...any) {}

var _ tclog.Logger = (*nopLogger)(nil)

// fakeMigrator records calls and returns err from every migration method
type fakeMigrator struct {
	err   error
	calls []string
	steps []int
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.err
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	return f.err
}

func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.steps = append(f.steps, n)
	return f.err
}

func (*fakeMigrator) Version() (uint, bool, error) { return 1, false, nil }

func (*fakeMigrator) Close() (error, error) { return nil, nil }

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	t.Parallel()

	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(migrationsFS, down)
		assert.NoError(t, err, "missing down migration for %s", up)
	}
}

func TestMigrateUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "applied", err: nil},
		{name: "already up to date", err: migrate.ErrNoChange},
		{name: "failure", err: errors.New("dirty database"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &fakeMigrator{err: tt.err}
			err := MigrateUp(m)
			if tt.wantErr {
				require.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, []string{"up"}, m.calls)
		})
	}
}

func TestMigrateDown(t *testing.T) {
	t.Parallel()

	t.Run("all steps", func(t *testing.T) {
		t.Parallel()
		m := &fakeMigrator{}
		require.NoError(t, MigrateDown(m, 0))
		assert.Equal(t, []string{"down"}, m.calls)
	})

	t.Run("n steps", func(t *testing.T) {
		t.Parallel()
		m := &fakeMigrator{}
		require.NoError(t, MigrateDown(m, 2))
		assert.Equal(t, []int{-2}, m.steps)
	})

	t.Run("nothing to revert", func(t *testing.T) {
		t.Parallel()
		m := &fakeMigrator{err: migrate.ErrNoChange}
		require.NoError(t, MigrateDown(m, 1))
	})
}

func TestMigrationsAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	tc.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("articlesync"),
		postgres.WithUsername("articlesync"),
		postgres.WithPassword("articlesync"),
		postgres.BasicWaitStrategies(),
		tc.WithLogger(&nopLogger{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := NewFromConnectionString(strings.Replace(connStr, "postgres://", "pgx5://", 1))
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = m.Close() })

	// up, down, up again
	require.NoError(t, MigrateUp(m))
	require.NoError(t, MigrateDown(m, 0))
	require.NoError(t, MigrateUp(m))

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	conn, err := pgx.Connect(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	_, err = conn.Exec(ctx,
		`INSERT INTO articles (url, title, date, raw_date) VALUES ($1, $2, $3, $4)`,
		"https://x/a/", "A", "2024.01.01", "2024-01-01 09:00:00+09:00")
	require.NoError(t, err)

	var publishedAtSet bool
	require.NoError(t, conn.QueryRow(ctx,
		`SELECT published_at IS NOT NULL FROM articles WHERE url = $1`, "https://x/a/").Scan(&publishedAtSet))
	assert.True(t, publishedAtSet)
}
