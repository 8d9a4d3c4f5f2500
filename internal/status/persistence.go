// Package status provides run status tracking and persistence.
package status

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/articlesync/articlesync/internal/blob"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

// ContentType is the content type the status object is stored with
const ContentType = "application/json"

// StatusPersistence defines the interface for run status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the run status, replacing the previous one
	SaveStatus(ctx context.Context, status *SyncStatus) error

	// LoadStatus loads the run status
	// Returns an empty SyncStatus if none was saved yet (first run)
	LoadStatus(ctx context.Context) (*SyncStatus, error)
}

// blobStatusPersistence implements StatusPersistence on top of a blob store
type blobStatusPersistence struct {
	store blob.Store
	key   string
}

// NewBlobStatusPersistence creates a status persistence writing one JSON object under key
func NewBlobStatusPersistence(store blob.Store, key string) StatusPersistence {
	return &blobStatusPersistence{
		store: store,
		key:   key,
	}
}

// SaveStatus writes the status as indented JSON
func (b *blobStatusPersistence) SaveStatus(ctx context.Context, status *SyncStatus) error {
	// Marshal status to JSON with pretty printing for readability
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data: %w", err)
	}

	if err := b.store.Put(ctx, b.key, data, ContentType); err != nil {
		return fmt.Errorf("failed to write status %s: %w", b.key, err)
	}
	return nil
}

// LoadStatus reads the status object
// Returns an empty SyncStatus if the object doesn't exist
func (b *blobStatusPersistence) LoadStatus(ctx context.Context) (*SyncStatus, error) {
	data, err := b.store.Get(ctx, b.key)
	if err != nil {
		if blob.IsNotFound(err) {
			// Object doesn't exist - this is OK for first run
			return &SyncStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status %s: %w", b.key, err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data: %w", err)
	}

	return &status, nil
}
