package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrReceiptArchiveDisabled is returned when receipts are not being stored
var ErrReceiptArchiveDisabled = errors.New("receipt archive is not configured")

// MockReceiptArchive keeps receipts in memory for tests
type MockReceiptArchive struct {
	mu       sync.RWMutex
	receipts map[string][]byte
	err      error
}

// NewMockReceiptArchive creates an empty mock archive
func NewMockReceiptArchive() *MockReceiptArchive {
	return &MockReceiptArchive{receipts: make(map[string][]byte)}
}

// FailWith makes subsequent Archive calls return err
func (m *MockReceiptArchive) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Archive implements ReceiptArchive
func (m *MockReceiptArchive) Archive(_ context.Context, receipt *InvoiceView) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	body, err := json.Marshal(receipt)
	if err != nil {
		return "", err
	}
	key := ReceiptKey(receipt)
	m.receipts[key] = body
	return key, nil
}

// URL implements ReceiptArchive
func (m *MockReceiptArchive) URL(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.receipts[key]; !ok {
		return "", fmt.Errorf("receipt %s not found", key)
	}
	return "https://mock-s3.example.com/" + key, nil
}

// Receipt returns the stored receipt body for key
func (m *MockReceiptArchive) Receipt(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.receipts[key]
	return b, ok
}

// Count returns the number of stored receipts
func (m *MockReceiptArchive) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.receipts)
}
