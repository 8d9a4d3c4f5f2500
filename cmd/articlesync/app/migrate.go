package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/articlesync/articlesync/database"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/db"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long: `Database migration tool for the PostgreSQL article mirror.
Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	migrateCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	migrateCmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate down (0 = all)")

	migrateCmd.AddCommand(newMigrateUpCmd())
	migrateCmd.AddCommand(newMigrateDownCmd())
	return migrateCmd
}

// setupMigration loads the database configuration and opens a migrator on it
func setupMigration(ctx context.Context, cmd *cobra.Command) (*config.DatabaseConfig, database.Migrator, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database == nil {
		return nil, nil, fmt.Errorf("database configuration is required")
	}

	connString, err := db.MigrationConnectionString(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build migration connection string: %w", err)
	}

	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Database, m, nil
}

func closeMigrator(m database.Migrator) {
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		slog.Warn("Error closing migration source", "error", sourceErr)
	}
	if dbErr != nil {
		slog.Warn("Error closing database connection", "error", dbErr)
	}
}

// confirm asks prompt on the command's output and reads a yes/no answer
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s (yes/no): ", prompt)
	response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "yes" || response == "y"
}

func displayMigrationVersion(m database.Migrator, removedAll bool) {
	version, dirty, err := m.Version()
	if err != nil {
		if removedAll {
			slog.Info("Database schema has been completely removed")
		} else {
			slog.Warn("Failed to get migration version", "error", err)
		}
		return
	}

	if dirty {
		slog.Warn("Database is in a dirty state, manual intervention may be required", "version", version)
	} else {
		slog.Info("Current migration version", "version", version)
	}
}
