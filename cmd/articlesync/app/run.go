package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	syncapp "github.com/articlesync/articlesync/internal/app"
	"github.com/articlesync/articlesync/internal/config"
	"github.com/articlesync/articlesync/internal/lock"
	pkgsync "github.com/articlesync/articlesync/internal/sync"
	"github.com/articlesync/articlesync/internal/telemetry"
)

const telemetryShutdownTimeout = 10 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync",
		Long: `Run one sync: load the cache, plan the new articles, publish them oldest
first and persist the cache and the run status.

The configuration (--config) names the Contentful space, the destination,
the secret names and the storage holding the cache. A second concurrent run
on the same host is refused unless lock.disabled is set.`,
		RunE: runSync,
	}
	cmd.Flags().Bool("dry-run", false, "Plan without publishing or persisting anything")
	cmd.Flags().String("mode", "",
		fmt.Sprintf("Planner mode override (%s or %s)", config.PlannerModeExhaustive, config.PlannerModeEarlyStop))
	return cmd
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the articles the next run would publish",
		RunE:  runPlan,
	}
	cmd.Flags().String("mode", "",
		fmt.Sprintf("Planner mode override (%s or %s)", config.PlannerModeExhaustive, config.PlannerModeEarlyStop))
	cmd.Flags().String("format", formatTable, "Output format (table or json)")
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}

	result, err := executeSync(cmd, dryRun)
	if err != nil {
		slog.Error("Sync failed", "error", err)
		return err
	}

	slog.Info("Sync finished",
		"run_id", result.RunID,
		"dry_run", result.DryRun,
		"planned", len(result.Planned),
		"published", result.Published,
		"articles", result.ArticleCount)
	return nil
}

func runPlan(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	result, err := executeSync(cmd, true)
	if err != nil {
		return err
	}
	return writeArticles(cmd.OutOrStdout(), format, result.Planned)
}

// executeSync builds the sync app from the command flags and runs it once
func executeSync(cmd *cobra.Command, dryRun bool) (*pkgsync.Result, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	mode, err := cmd.Flags().GetString("mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get mode flag: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A dry run writes nothing, so it can run next to a real one
	if !dryRun && !cfg.Lock.Disabled {
		release, err := acquireRunLock(cfg.Lock)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	app, err := syncapp.NewSyncApp(ctx,
		syncapp.WithConfig(cfg),
		syncapp.WithDryRun(dryRun),
		syncapp.WithPlannerMode(mode),
		syncapp.WithMeterProvider(tel.MeterProvider()),
		syncapp.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sync: %w", err)
	}
	defer app.Close()

	return app.Run(ctx)
}

// acquireRunLock takes the host-local run lock and returns its release function
func acquireRunLock(cfg config.LockConfig) (func(), error) {
	path := cfg.Path
	if path == "" {
		var err error
		if path, err = config.DefaultLockPath(); err != nil {
			return nil, fmt.Errorf("failed to resolve lock path: %w", err)
		}
	}

	runLock, err := lock.Acquire(path)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			slog.Error("Another run is in progress", "lock", path)
		}
		return nil, err
	}
	slog.Debug("Acquired run lock", "lock", runLock.Path())

	return func() {
		if err := runLock.Release(); err != nil {
			slog.Warn("Failed to release run lock", "lock", runLock.Path(), "error", err)
		}
	}, nil
}
