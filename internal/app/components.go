package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/articlesync/articlesync/internal/cache"
	"github.com/articlesync/articlesync/internal/status"
	pkgsync "github.com/articlesync/articlesync/internal/sync"
	"github.com/articlesync/articlesync/internal/sync/coordinator"
)

// AppComponents groups all components of one sync run
//
//nolint:revive // This name is fine
type AppComponents struct {
	// CacheStore loads and saves the sync state
	CacheStore cache.StateStore

	// StatusPersistence loads and saves the run status
	StatusPersistence status.StatusPersistence

	// Planner decides which articles are new
	Planner *pkgsync.Planner

	// SyncManager runs load, plan, publish and persist
	SyncManager pkgsync.Manager

	// SyncCoordinator wraps the manager with run status tracking
	SyncCoordinator coordinator.Coordinator

	// Database is the connection pool of the postgres destination (optional)
	Database *pgxpool.Pool
}
