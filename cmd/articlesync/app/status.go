package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/articlesync/articlesync/internal/blob"
	"github.com/articlesync/articlesync/internal/status"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the status of the last run",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := blob.NewStore(cmd.Context(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create %s store: %w", cfg.Storage.Type, err)
	}

	syncStatus, err := status.NewBlobStatusPersistence(store, cfg.Storage.StatusKey).LoadStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load run status: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), syncStatus)
}
