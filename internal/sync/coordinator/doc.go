// Package coordinator runs a sync and keeps the persisted run status current.
//
// It sits on top of sync.Manager and handles:
//
//   - Loading the previous run status and counting attempts since the last success
//   - Persisting the "Syncing" phase before the run starts
//   - Persisting the outcome (Complete or Failed, with the failed stage) after
//     the run, even when the root context was cancelled
//   - Recording the sync duration metric
//
// # Usage Example
//
//	manager := sync.NewDefaultSyncManager(cacheStore, planner, publisher)
//	statusPersistence := status.NewBlobStatusPersistence(store, cfg.Storage.StatusKey)
//
//	coord := coordinator.New(manager, statusPersistence, coordinator.WithSyncMetrics(metrics))
//	result, err := coord.Run(ctx)
package coordinator
