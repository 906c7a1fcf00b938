package storage

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	touchedAt time.Time
}

// MemoryStore keeps values in process memory. With a positive TTL an entry
// is forgotten once it has not been written for that long, which gives
// session semantics.
type MemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]*memoryEntry
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a memory store. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		scopes: make(map[string]map[string]*memoryEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryStore) expired(entry *memoryEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.touchedAt) > s.ttl
}

// Get returns a copy of the stored value.
func (s *MemoryStore) Get(ctx context.Context, scope, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.scopes[scope][key]
	if !ok || s.expired(entry, s.now()) {
		return nil, ErrNotFound
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a copy of value.
func (s *MemoryStore) Set(ctx context.Context, scope, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.scopes[scope]
	if !ok {
		entries = make(map[string]*memoryEntry)
		s.scopes[scope] = entries
	}
	entries[key] = &memoryEntry{value: stored, touchedAt: s.now()}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, scope, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries, ok := s.scopes[scope]; ok {
		delete(entries, key)
		if len(entries) == 0 {
			delete(s.scopes, scope)
		}
	}
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for scope, entries := range s.scopes {
		for key, entry := range entries {
			if s.expired(entry, now) {
				delete(entries, key)
				removed++
			}
		}
		if len(entries) == 0 {
			delete(s.scopes, scope)
		}
	}
	return removed
}

// StartJanitor sweeps expired entries every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
