// Package lock provides an advisory file lock that keeps two local sync runs
// from working on the same state at once.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the lock
var ErrLocked = errors.New("another run holds the lock")

// RunLock is a held advisory lock
type RunLock struct {
	fl *flock.Flock
}

// Acquire takes the lock at path without blocking. The parent directory is
// created when missing.
func Acquire(path string) (*RunLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &RunLock{fl: fl}, nil
}

// Path returns the lock file path
func (l *RunLock) Path() string {
	return l.fl.Path()
}

// Release unlocks. The lock file is left in place.
func (l *RunLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.fl.Path(), err)
	}
	return nil
}
