// Package app provides the command tree of the articlesync binary.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/versions"
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "articlesync",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Copy new Contentful blog articles into a Notion database",
		Long: `articlesync lists the blog articles of a Contentful category, finds the ones
not yet recorded in its persisted cache, publishes them to a Notion database
(or a PostgreSQL mirror) oldest first, and saves the cache for the next run.`,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().String("config", config.DefaultConfigPath(),
		"Path to configuration file (YAML format)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			slog.Info("articlesync version",
				"version", info.Version,
				"commit", info.Commit,
				"built", info.BuildDate,
				"go", info.GoVersion,
				"platform", info.Platform)
			return nil
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// loadConfig loads the configuration named by the persistent --config flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if configPath != "" {
		slog.Debug("Loaded configuration", "path", configPath)
	}
	return cfg, nil
}
