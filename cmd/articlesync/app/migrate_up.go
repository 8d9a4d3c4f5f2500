package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/articlesync/articlesync/database"
)

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply all pending database migrations to bring the article mirror schema
up to date. The connection parameters are read from the database section of
the config file.`,
		RunE: runMigrateUp,
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}

	dbCfg, m, err := setupMigration(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if !yes {
		prompt := fmt.Sprintf("About to apply migrations to %s@%s:%d/%s. Continue?",
			dbCfg.User, dbCfg.Host, dbCfg.Port, dbCfg.Database)
		if !confirm(cmd, prompt) {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	slog.Info("Applying database migrations")
	if err := database.MigrateUp(m); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	displayMigrationVersion(m, false)
	return nil
}
