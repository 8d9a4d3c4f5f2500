// Package blob provides the key-value byte store the sync state lives in.
//
// Keys are slash-separated paths such as "data/cached_data.json.gzip". A Put
// overwrites whatever is stored under the key; there is no conditional write.
package blob

import (
	"context"
	"errors"
	"fmt"
)

const (
	// TypeS3 stores objects in an S3 bucket
	TypeS3 = "s3"

	// TypeFile stores objects as files below a local directory
	TypeFile = "file"

	// TypeMemory keeps objects in process memory
	TypeMemory = "memory"
)

// ErrNotFound is returned by Get when no object is stored under the key
var ErrNotFound = errors.New("blob: object not found")

// Store reads and writes whole objects by key
type Store interface {
	// Get returns the object stored under key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any existing object
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Error carries the operation and key of a failed store call
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("blob.%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the object does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
