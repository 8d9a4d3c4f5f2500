package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps objects as files below a base directory
type FileStore struct {
	basePath string
}

// NewFileStore creates a store rooted at basePath
func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

func (f *FileStore) path(key string) (string, error) {
	local := filepath.FromSlash(key)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("key is not a local path: %s", key)
	}
	return filepath.Join(f.basePath, local), nil
}

// Get reads the file stored under key
func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	filePath, err := f.path(key)
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Err: err}
	}

	// #nosec G304 -- filePath is confined to basePath by path()
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Op: "get", Key: key, Err: ErrNotFound}
		}
		return nil, &Error{Op: "get", Key: key, Err: err}
	}
	return data, nil
}

// Put writes data to a temporary file and renames it over the target
func (f *FileStore) Put(_ context.Context, key string, data []byte, _ string) error {
	filePath, err := f.path(key)
	if err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return &Error{Op: "put", Key: key, Err: fmt.Errorf("failed to create directory: %w", err)}
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return &Error{Op: "put", Key: key, Err: fmt.Errorf("failed to write temporary file: %w", err)}
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return &Error{Op: "put", Key: key, Err: fmt.Errorf("failed to rename temporary file: %w", err)}
	}

	return nil
}
