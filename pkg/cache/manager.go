package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCacheMiss indicates the requested key was not found in cache
var ErrCacheMiss = errors.New("cache miss")

// DefaultMaxEntries bounds the manager when no size is given.
const DefaultMaxEntries = 256

// Manager holds entries in memory. It is safe for concurrent use.
type Manager struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int
}

// NewManager creates a manager holding at most maxEntries entries. The
// oldest entry is evicted when it is full.
func NewManager(maxEntries int) *Manager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Manager{
		entries:    make(map[string]*Entry),
		maxEntries: maxEntries,
	}
}

// Get retrieves an entry by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (m *Manager) Get(key Key) (*Entry, error) {
	k := key.String()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[k]
	if !ok {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	if entry.IsExpired() {
		m.deleteLocked(k)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.Inc()
	return entry, nil
}

// Set stores an entry until its Expires time.
func (m *Manager) Set(key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	if entry.TTL() <= 0 {
		// Already expired, don't cache
		return nil
	}

	k := key.String()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[k]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldestLocked()
	}
	m.entries[k] = entry
	CacheEntries.Set(float64(len(m.entries)))

	return nil
}

// Delete removes an entry.
func (m *Manager) Delete(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(key.String())
}

// UpdateTTL moves the expiry of an existing entry, as when a 304 Not
// Modified carries new caching headers.
func (m *Manager) UpdateTTL(key Key, newExpires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key.String()]
	if !ok {
		return ErrCacheMiss
	}
	updated := *entry
	updated.Expires = newExpires
	m.entries[key.String()] = &updated
	return nil
}

// Len returns the number of entries held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) deleteLocked(k string) {
	delete(m.entries, k)
	CacheEntries.Set(float64(len(m.entries)))
}

func (m *Manager) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range m.entries {
		if oldestKey == "" || e.CachedAt.Before(oldest) {
			oldestKey, oldest = k, e.CachedAt
		}
	}
	if oldestKey != "" {
		m.deleteLocked(oldestKey)
	}
}
