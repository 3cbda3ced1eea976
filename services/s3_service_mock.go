package services

import (
	"context"
	"fmt"
	"sync"
)

// MockObjectStore keeps objects in memory for tests
type MockObjectStore struct {
	mu           sync.RWMutex
	objects      map[string][]byte
	contentTypes map[string]string
	err          error
}

// NewMockObjectStore creates an empty mock store
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// FailWith makes subsequent writes return err
func (m *MockObjectStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// PutObject implements ObjectStore
func (m *MockObjectStore) PutObject(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.objects[key] = append([]byte(nil), body...)
	m.contentTypes[key] = contentType
	return nil
}

// PresignedURL implements ObjectStore
func (m *MockObjectStore) PresignedURL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	return "https://mock-s3.example.com/" + key + "?X-Amz-Signature=mock", nil
}

// DeleteObject implements ObjectStore
func (m *MockObjectStore) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.objects, key)
	delete(m.contentTypes, key)
	return nil
}

// Object returns the stored body and content type for key
func (m *MockObjectStore) Object(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	return b, m.contentTypes[key], ok
}

// Count returns the number of stored objects
func (m *MockObjectStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
