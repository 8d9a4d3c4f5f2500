package app

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/articlesync/articlesync/database"
)

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the article mirror schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  articlesync migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: drops the articles table)
  articlesync migrate down --config config.yaml --yes`,
		RunE: runMigrateDown,
	}
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	// Check for overflow before conversion
	if numSteps > math.MaxInt {
		return fmt.Errorf("number of steps exceeds maximum allowed value")
	}

	if err := confirmMigrateDown(cmd, numSteps); err != nil {
		return err
	}

	_, m, err := setupMigration(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if numSteps == 0 {
		slog.Warn("Migrating down all steps, this will remove the whole schema")
	} else {
		slog.Info("Migrating down", "steps", numSteps)
	}
	if err := database.MigrateDown(m, int(numSteps)); err != nil { // #nosec G115 -- overflow checked above
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Migration completed successfully")
	displayMigrationVersion(m, numSteps == 0)
	return nil
}

func confirmMigrateDown(cmd *cobra.Command, numSteps uint) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	if yes {
		return nil
	}

	var prompt string
	if numSteps == 0 {
		prompt = "WARNING: This will migrate down ALL steps and may result in complete data loss. Continue?"
	} else {
		prompt = fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?", numSteps)
	}

	if !confirm(cmd, prompt) {
		slog.Info("Migration cancelled")
		return fmt.Errorf("migration cancelled by user")
	}
	return nil
}
