package cache

import (
	"context"
	"sync"
	"time"
)

type lruEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	prev      *lruEntry
	next      *lruEntry
}

// MemoryStore is a size-bounded LRU with per-entry expiry. Expired entries
// are dropped lazily on access.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*lruEntry
	// head.next is most recently used, tail.prev least.
	head, tail *lruEntry

	hits, misses int64
	now          func() time.Time
}

// NewMemoryStore returns an LRU holding at most capacity entries.
func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	if capacity <= 0 {
		capacity = 1024
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &MemoryStore{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*lruEntry, capacity),
		head:     &lruEntry{},
		tail:     &lruEntry{},
		now:      time.Now,
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		s.misses++
		recordLookup("memory", ErrNotFound)
		return nil, ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		s.remove(e)
		s.misses++
		recordLookup("memory", ErrNotFound)
		return nil, ErrNotFound
	}
	s.moveToFront(e)
	s.hits++
	recordLookup("memory", nil)
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	v := make([]byte, len(value))
	copy(v, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	exp := s.now().Add(ttl)
	if e, ok := s.items[key]; ok {
		e.value = v
		e.expiresAt = exp
		s.moveToFront(e)
		return nil
	}
	e := &lruEntry{key: key, value: v, expiresAt: exp}
	s.addToFront(e)
	s.items[key] = e
	for len(s.items) > s.capacity {
		s.remove(s.tail.prev)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[key]; ok {
		s.remove(e)
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Len returns the number of stored entries, including expired ones not yet evicted.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Stats returns hit and miss counts.
func (s *MemoryStore) Stats() (hits, misses int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

func (s *MemoryStore) addToFront(e *lruEntry) {
	e.prev = s.head
	e.next = s.head.next
	s.head.next.prev = e
	s.head.next = e
}

func (s *MemoryStore) moveToFront(e *lruEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	s.addToFront(e)
}

func (s *MemoryStore) remove(e *lruEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(s.items, e.key)
}
