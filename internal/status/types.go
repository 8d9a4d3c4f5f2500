package status

import "time"

// SyncPhase represents the current phase of a synchronization run
type SyncPhase string

const (
	// SyncPhaseSyncing means a run is in progress or was interrupted
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last run completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means the last run failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus is the report of the most recent run
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty"`

	// RunID identifies the run that wrote this status
	RunID string `json:"runID,omitempty"`

	// WrittenBy is the articlesync version that wrote this status
	WrittenBy string `json:"writtenBy,omitempty"`

	// FailedStage is the stage the last failed run stopped in
	FailedStage string `json:"failedStage,omitempty"`

	// LastAttempt is the timestamp of the last run start
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of runs since the last success
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful run
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// LastSyncHash is the published-ledger hash after the last successful run
	LastSyncHash string `json:"lastSyncHash,omitempty"`

	// Planned is the number of new articles found by the last run
	Planned int `json:"planned"`

	// Published is the number of articles the last run published
	Published int `json:"published"`

	// ArticleCount is the number of articles recorded in the cache
	ArticleCount int `json:"articleCount"`
}
