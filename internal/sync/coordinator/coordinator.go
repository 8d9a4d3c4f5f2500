package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/articlesync/articlesync/internal/logging"
	"github.com/articlesync/articlesync/internal/status"
	pkgsync "github.com/articlesync/articlesync/internal/sync"
	"github.com/articlesync/articlesync/internal/telemetry"
	"github.com/articlesync/articlesync/internal/versions"
)

// statusTimeout bounds each status write
const statusTimeout = 10 * time.Second

// Coordinator runs one sync and records its outcome as the run status
type Coordinator interface {
	// Run performs a sync. The run status is saved as Syncing before the
	// sync starts and saved again with the outcome, whatever it is.
	Run(ctx context.Context) (*pkgsync.Result, error)
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager           pkgsync.Manager
	statusPersistence status.StatusPersistence
	clock             clock.PassiveClock
	version           string

	// Metrics
	syncMetrics *telemetry.SyncMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithClock overrides the clock used for status timestamps and durations
func WithClock(clk clock.PassiveClock) Option {
	return func(c *defaultCoordinator) {
		c.clock = clk
	}
}

// WithVersion overrides the version recorded in the run status
func WithVersion(version string) Option {
	return func(c *defaultCoordinator) {
		c.version = version
	}
}

// New creates a new coordinator with injected dependencies
func New(manager pkgsync.Manager, statusPersistence status.StatusPersistence, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		manager:           manager,
		statusPersistence: statusPersistence,
		clock:             clock.RealClock{},
		version:           versions.GetVersionInfo().Version,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run executes the sync operation and keeps the run status current
func (c *defaultCoordinator) Run(ctx context.Context) (*pkgsync.Result, error) {
	logger := logging.FromContext(ctx)
	startTime := c.clock.Now()

	syncStatus, err := c.statusPersistence.LoadStatus(ctx)
	if err != nil {
		logger.Error(err, "Failed to load previous sync status, starting fresh")
		syncStatus = &status.SyncStatus{}
	}
	if versions.IsNewerVersion(syncStatus.WrittenBy, c.version) {
		logger.Info("Previous run was made by a newer articlesync version",
			"previous", syncStatus.WrittenBy, "current", c.version)
	}

	syncStatus.WrittenBy = c.version
	syncStatus.Phase = status.SyncPhaseSyncing
	syncStatus.Message = "Sync in progress"
	syncStatus.FailedStage = ""
	syncStatus.LastAttempt = &startTime
	syncStatus.AttemptCount++

	// Persist the "Syncing" state immediately so an interrupted run is visible
	if err := c.saveStatus(ctx, syncStatus); err != nil {
		logger.Error(err, "Failed to persist syncing status")
	}

	// Set up the final status update in a defer block to ensure that we always
	// record the outcome. The default covers an unexpected panic in the run.
	syncStatus.Phase = status.SyncPhaseFailed
	syncStatus.Message = "Unexpected failure while syncing"
	defer func() {
		if err := c.saveStatus(ctx, syncStatus); err != nil {
			logger.Error(err, "Failed to persist final sync status")
		}
	}()

	logger.Info("Starting sync operation", "attempt", syncStatus.AttemptCount)

	result, syncErr := c.manager.PerformSync(ctx)
	syncDuration := c.clock.Since(startTime)

	if result != nil {
		syncStatus.RunID = result.RunID
		syncStatus.Planned = len(result.Planned)
		syncStatus.Published = result.Published
		if result.ArticleCount > 0 {
			syncStatus.ArticleCount = result.ArticleCount
		}
	}

	if syncErr != nil {
		syncStatus.Phase = status.SyncPhaseFailed
		syncStatus.Message = syncErr.Error()
		var stageErr *pkgsync.Error
		if errors.As(syncErr, &stageErr) {
			syncStatus.FailedStage = string(stageErr.Stage)
		}
		logger.Error(syncErr, "Sync failed", "duration", syncDuration)
		c.syncMetrics.RecordSyncDuration(ctx, syncDuration, false)
		return result, syncErr
	}

	now := c.clock.Now()
	syncStatus.Phase = status.SyncPhaseComplete
	syncStatus.Message = completionMessage(result)
	syncStatus.LastSyncTime = &now
	syncStatus.LastSyncHash = result.Hash
	syncStatus.AttemptCount = 0

	hashPreview := result.Hash
	if len(hashPreview) > 8 {
		hashPreview = hashPreview[:8]
	}
	logger.Info("Sync completed successfully",
		"published", result.Published,
		"articles", result.ArticleCount,
		"hash", hashPreview,
		"duration", syncDuration)

	c.syncMetrics.RecordSyncDuration(ctx, syncDuration, true)
	return result, nil
}

// saveStatus writes the status on a context that outlives cancellation of ctx
func (c *defaultCoordinator) saveStatus(ctx context.Context, syncStatus *status.SyncStatus) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusTimeout)
	defer cancel()
	return c.statusPersistence.SaveStatus(saveCtx, syncStatus)
}

func completionMessage(result *pkgsync.Result) string {
	if result.Published == 0 {
		return "Sync completed successfully, no new articles"
	}
	return fmt.Sprintf("Sync completed successfully, published %d articles", result.Published)
}
