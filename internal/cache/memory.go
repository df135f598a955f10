package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/schooldex/internal/domain"
)

// Memory defaults.
const (
	DefaultMaxEntries    = 10000
	DefaultMaxEntryBytes = 1 << 20
)

type entry struct {
	value   []byte
	created time.Time
	expires time.Time
	tags    []string
}

// Memory is an in-process cache guarded by a single mutex.
// Expired entries are dropped lazily on Get and swept when the cache is full; it starts no goroutines.
type Memory struct {
	mu            sync.Mutex
	entries       map[string]*entry
	tags          map[string]map[string]struct{}
	now           func() time.Time
	maxEntries    int
	maxEntryBytes int
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithMaxEntries caps the number of stored entries.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// WithMaxEntryBytes caps the size of a single value.
func WithMaxEntryBytes(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxEntryBytes = n
		}
	}
}

// NewMemory creates an empty in-process cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries:       make(map[string]*entry),
		tags:          make(map[string]map[string]struct{}),
		now:           time.Now,
		maxEntries:    DefaultMaxEntries,
		maxEntryBytes: DefaultMaxEntryBytes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the value while now < created + ttl. Stale entries are removed on access.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		m.remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a copy of value. Oversized values are rejected with domain.ErrEntryTooLarge.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags []string) error {
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	if len(value) > m.maxEntryBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", domain.ErrEntryTooLarge, len(value), m.maxEntryBytes)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; exists {
		m.remove(key)
	} else if len(m.entries) >= m.maxEntries {
		m.makeRoom(now)
	}

	e := &entry{
		value:   append([]byte(nil), value...),
		created: now,
		expires: now.Add(ttl),
		tags:    dedup(tags),
	}
	m.entries[key] = e
	for _, tag := range e.tags {
		keys, ok := m.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

// InvalidateByTag removes every entry indexed under tag.
func (m *Memory) InvalidateByTag(_ context.Context, tag string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.tags[tag]
	n := len(keys)
	for key := range keys {
		m.remove(key)
	}
	delete(m.tags, tag)
	return n, nil
}

// Clear removes every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*entry)
	m.tags = make(map[string]map[string]struct{})
	return nil
}

// Len returns the number of stored entries, fresh or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// remove drops key from the entry map and from every tag index. Caller holds mu.
func (m *Memory) remove(key string) {
	e, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	for _, tag := range e.tags {
		if keys, ok := m.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.tags, tag)
			}
		}
	}
}

// makeRoom sweeps expired entries and, if still full, evicts the oldest one. Caller holds mu.
func (m *Memory) makeRoom(now time.Time) {
	for key, e := range m.entries {
		if !now.Before(e.expires) {
			m.remove(key)
		}
	}
	if len(m.entries) < m.maxEntries {
		return
	}

	var oldestKey string
	var oldest time.Time
	for key, e := range m.entries {
		if oldestKey == "" || e.created.Before(oldest) || (e.created.Equal(oldest) && key < oldestKey) {
			oldestKey, oldest = key, e.created
		}
	}
	m.remove(oldestKey)
}

func dedup(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
