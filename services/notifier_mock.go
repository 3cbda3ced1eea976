package services

import (
	"context"
	"sync"
)

// MockNotifier records notifications for tests
type MockNotifier struct {
	mu     sync.Mutex
	orders []uint
	err    error
}

// NewMockNotifier creates an empty mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// FailWith makes subsequent calls return err
func (m *MockNotifier) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// OrderChanged implements Notifier
func (m *MockNotifier) OrderChanged(_ context.Context, orderID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, orderID)
	return m.err
}

// Orders returns the order ids notified so far
func (m *MockNotifier) Orders() []uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint(nil), m.orders...)
}

// Notified reports whether orderID has been notified
func (m *MockNotifier) Notified(orderID uint) bool {
	for _, id := range m.Orders() {
		if id == orderID {
			return true
		}
	}
	return false
}
