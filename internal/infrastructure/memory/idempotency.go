package memory

import (
	"context"
	"sync"
	"time"
)

type idempotencyEntry struct {
	expiresAt time.Time
	paymentID string
}

// IdempotencyStore is a process-local port.IdempotencyStore. Expired keys are
// dropped lazily on access.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idempotencyEntry
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{entries: make(map[string]idempotencyEntry), now: time.Now}
}

func (s *IdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = idempotencyEntry{expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *IdempotencyStore) Lookup(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, _ := s.live(key)
	return e.paymentID, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key, paymentID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = idempotencyEntry{paymentID: paymentID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// live must be called with mu held.
func (s *IdempotencyStore) live(key string) (idempotencyEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return idempotencyEntry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return idempotencyEntry{}, false
	}
	return e, true
}
