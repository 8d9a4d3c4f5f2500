// Package app wires the components of one sync run from the configuration.
package app

import (
	"context"
	"log/slog"

	"github.com/articlesync/articlesync/internal/config"
	pkgsync "github.com/articlesync/articlesync/internal/sync"
)

// SyncApp encapsulates all components needed to perform one sync run
type SyncApp struct {
	config     *config.Config
	components *AppComponents
	dryRun     bool
}

// Run performs the sync. A dry run bypasses the run status so the last real
// run stays on record.
func (app *SyncApp) Run(ctx context.Context) (*pkgsync.Result, error) {
	if app.dryRun {
		return app.components.SyncManager.PerformSync(ctx)
	}
	return app.components.SyncCoordinator.Run(ctx)
}

// Close releases resources held by the components
func (app *SyncApp) Close() {
	if app.components.Database != nil {
		slog.Info("Closing database connection pool")
		app.components.Database.Close()
	}
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// Components returns the wired components
func (app *SyncApp) Components() *AppComponents {
	return app.components
}
