package blob

import (
	"context"
	"sync"
)

// Object is a stored value together with its content type
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore keeps objects in memory. Used for dry runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

// Get returns a copy of the object stored under key
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, &Error{Op: "get", Key: key, Err: ErrNotFound}
	}
	return append([]byte(nil), obj.Data...), nil
}

// Put stores a copy of data under key
func (m *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

// Object returns the stored object and whether it exists
func (m *MemoryStore) Object(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	return obj, ok
}
