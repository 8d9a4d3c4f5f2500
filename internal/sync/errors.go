package sync

import "fmt"

// Stage names one step of a sync run
type Stage string

const (
	// StageLoad loads the cache
	StageLoad Stage = "load"

	// StagePlan computes the new articles
	StagePlan Stage = "plan"

	// StagePublish writes articles to the destination
	StagePublish Stage = "publish"

	// StagePersist saves the cache
	StagePersist Stage = "persist"
)

// Error identifies the stage a sync run failed in
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sync %s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
