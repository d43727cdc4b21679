// Package cache holds computed prediction results for a bounded time.
//
// Each result kind lives in its own Store guarded by its own mutex. Entries are
// never served once expired; a full store drops its oldest entries in a batch
// before accepting a new key.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/pitchcast/pkg/metrics"
)

// Eviction reasons reported to metrics.
const (
	reasonCapacity    = "capacity"
	reasonExpired     = "expired"
	reasonInvalidated = "invalidated"
)

// Entry wraps a cached value with its bookkeeping.
type Entry[T any] struct {
	Key       string
	Value     T
	CachedAt  time.Time
	ExpiresAt time.Time
	Hits      int64
}

func (e *Entry[T]) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Expiring identifies an entry due to expire within a lookahead window.
type Expiring struct {
	Kind      Kind      `json:"kind"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Stats is a point-in-time view of one store.
type Stats struct {
	Name      string  `json:"name"`
	Entries   int     `json:"entries"`
	Capacity  int     `json:"capacity"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// Store is a TTL and capacity bounded map of results of one type.
type Store[T any] struct {
	name string
	opts options

	mu        sync.Mutex
	entries   map[string]*Entry[T]
	hits      int64
	misses    int64
	evictions int64
}

// NewStore creates an empty store. name labels its metrics.
func NewStore[T any](name string, opts ...Option) *Store[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Store[T]{
		name:    name,
		opts:    o,
		entries: make(map[string]*Entry[T]),
	}
	metrics.UpdateCacheEntries(name, 0)
	return s
}

// Name returns the store's metrics label.
func (s *Store[T]) Name() string { return s.name }

// Get returns the value for key if present and unexpired. A stale entry is
// removed on the spot and counted as a miss.
func (s *Store[T]) Get(key string) (T, bool) {
	var zero T
	now := s.opts.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		metrics.RecordCacheMiss(s.name)
		return zero, false
	}
	if e.expired(now) {
		delete(s.entries, key)
		s.misses++
		s.evictions++
		metrics.RecordCacheMiss(s.name)
		metrics.RecordCacheEvictions(s.name, reasonExpired, 1)
		metrics.UpdateCacheEntries(s.name, len(s.entries))
		return zero, false
	}
	e.Hits++
	s.hits++
	metrics.RecordCacheHit(s.name)
	return e.Value, true
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
// When a new key would exceed capacity the oldest entries by cached-at are
// evicted first.
func (s *Store[T]) Set(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := s.opts.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.opts.capacity {
		n := len(s.entries) - s.opts.capacity + 1
		if n < s.opts.evictionBatch {
			n = s.opts.evictionBatch
		}
		s.evictOldest(n)
	}
	s.entries[key] = &Entry[T]{
		Key:       key,
		Value:     value,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	metrics.UpdateCacheEntries(s.name, len(s.entries))
}

// evictOldest removes up to n entries with the earliest cached-at.
// Must be called with s.mu held.
func (s *Store[T]) evictOldest(n int) {
	if n <= 0 || len(s.entries) == 0 {
		return
	}
	all := make([]*Entry[T], 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CachedAt.Equal(all[j].CachedAt) {
			return all[i].Key < all[j].Key
		}
		return all[i].CachedAt.Before(all[j].CachedAt)
	})
	if n > len(all) {
		n = len(all)
	}
	for _, e := range all[:n] {
		delete(s.entries, e.Key)
	}
	s.evictions += int64(n)
	metrics.RecordCacheEvictions(s.name, reasonCapacity, n)
}

// Delete removes key and reports whether it was present.
func (s *Store[T]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	s.evictions++
	metrics.RecordCacheEvictions(s.name, reasonInvalidated, 1)
	metrics.UpdateCacheEntries(s.name, len(s.entries))
	return true
}

// DeleteMatching removes every key containing substr and returns the count.
func (s *Store[T]) DeleteMatching(substr string) int {
	if substr == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.entries {
		if strings.Contains(k, substr) {
			delete(s.entries, k)
			n++
		}
	}
	s.evictions += int64(n)
	metrics.RecordCacheEvictions(s.name, reasonInvalidated, n)
	metrics.UpdateCacheEntries(s.name, len(s.entries))
	return n
}

// Sweep removes all expired entries and returns how many were removed.
func (s *Store[T]) Sweep() int {
	now := s.opts.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	s.evictions += int64(n)
	metrics.RecordCacheEvictions(s.name, reasonExpired, n)
	metrics.UpdateCacheEntries(s.name, len(s.entries))
	return n
}

// ExpiringSoon lists unexpired keys whose expiry falls within window,
// soonest first.
func (s *Store[T]) ExpiringSoon(window time.Duration) []Expiring {
	now := s.opts.now()
	horizon := now.Add(window)

	s.mu.Lock()
	out := make([]Expiring, 0)
	for k, e := range s.entries {
		if !e.expired(now) && !e.ExpiresAt.After(horizon) {
			out = append(out, Expiring{Kind: Kind(s.name), Key: k, ExpiresAt: e.ExpiresAt})
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}

// Clear drops every entry and resets the counters.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Entry[T])
	s.hits, s.misses, s.evictions = 0, 0, 0
	metrics.UpdateCacheEntries(s.name, 0)
}

// Len returns the current number of entries, expired ones included.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns the store's counters.
func (s *Store[T]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		Name:      s.name,
		Entries:   len(s.entries),
		Capacity:  s.opts.capacity,
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
	}
	if total := s.hits + s.misses; total > 0 {
		st.HitRate = float64(s.hits) / float64(total)
	}
	return st
}
