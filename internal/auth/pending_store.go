package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"exchangedesk/internal/cache"
)

const pendingKeyPrefix = "mfa_pending:"

// PendingStore remembers which emails passed the password step and may submit a code.
type PendingStore interface {
	MarkPending(ctx context.Context, email string, ttl time.Duration) error
	ConsumePending(ctx context.Context, email string) (bool, error)
}

// CachePendingStore keeps pending markers in Redis.
type CachePendingStore struct {
	cache *cache.Client
}

// Ensure CachePendingStore implements PendingStore
var _ PendingStore = (*CachePendingStore)(nil)

// NewCachePendingStore creates a Redis-backed pending store.
func NewCachePendingStore(cache *cache.Client) *CachePendingStore {
	return &CachePendingStore{cache: cache}
}

// MarkPending stores a marker for email that expires after ttl.
func (s *CachePendingStore) MarkPending(ctx context.Context, email string, ttl time.Duration) error {
	return s.cache.Set(ctx, pendingKey(email), []byte("1"), ttl)
}

// ConsumePending removes the marker and reports whether it was present.
func (s *CachePendingStore) ConsumePending(ctx context.Context, email string) (bool, error) {
	data, err := s.cache.GetDel(ctx, pendingKey(email))
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// MemoryPendingStore keeps pending markers in process memory.
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// Ensure MemoryPendingStore implements PendingStore
var _ PendingStore = (*MemoryPendingStore)(nil)

// NewMemoryPendingStore creates an in-process pending store.
func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *MemoryPendingStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// MarkPending stores a marker for email that expires after ttl.
func (s *MemoryPendingStore) MarkPending(_ context.Context, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.entries {
		if !now.Before(exp) {
			delete(s.entries, k)
		}
	}
	s.entries[pendingKey(email)] = now.Add(ttl)
	return nil
}

// ConsumePending removes the marker and reports whether it was present and unexpired.
func (s *MemoryPendingStore) ConsumePending(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pendingKey(email)
	exp, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	delete(s.entries, key)
	return s.now().Before(exp), nil
}

func pendingKey(email string) string {
	return pendingKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}
