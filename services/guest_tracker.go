package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// GuestTracker keeps the number of guests seated at each table
type GuestTracker interface {
	GuestCount(ctx context.Context, tableID uint) (int, error)
	SetGuestCount(ctx context.Context, tableID uint, guests int) error
}

// guestTTL expires counts for tables nobody has touched in a day
const guestTTL = 24 * time.Hour

// RedisGuestTracker stores guest counts in redis so every instance sees the same value
type RedisGuestTracker struct {
	client redis.UniversalClient
}

// NewRedisGuestTracker creates a tracker on an existing client
func NewRedisGuestTracker(client redis.UniversalClient) *RedisGuestTracker {
	return &RedisGuestTracker{client: client}
}

func guestKey(tableID uint) string {
	return fmt.Sprintf("tableside:table:%d:guests", tableID)
}

// GuestCount implements GuestTracker
func (t *RedisGuestTracker) GuestCount(ctx context.Context, tableID uint) (int, error) {
	v, err := t.client.Get(ctx, guestKey(tableID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read guest count: %w", err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("corrupt guest count %q: %w", v, err)
	}
	return n, nil
}

// SetGuestCount implements GuestTracker
func (t *RedisGuestTracker) SetGuestCount(ctx context.Context, tableID uint, guests int) error {
	if err := t.client.Set(ctx, guestKey(tableID), guests, guestTTL).Err(); err != nil {
		return fmt.Errorf("failed to store guest count: %w", err)
	}
	return nil
}

// MemoryGuestTracker keeps guest counts in process memory
type MemoryGuestTracker struct {
	mu     sync.RWMutex
	guests map[uint]int
}

// NewMemoryGuestTracker creates an empty in-memory tracker
func NewMemoryGuestTracker() *MemoryGuestTracker {
	return &MemoryGuestTracker{guests: make(map[uint]int)}
}

// GuestCount implements GuestTracker
func (t *MemoryGuestTracker) GuestCount(_ context.Context, tableID uint) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.guests[tableID], nil
}

// SetGuestCount implements GuestTracker
func (t *MemoryGuestTracker) SetGuestCount(_ context.Context, tableID uint, guests int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.guests[tableID] = guests
	return nil
}
