package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultMemoryCacheSize = 4096
	// memoryCacheCeiling caps how long any entry may linger regardless of the
	// TTL it was stored with; per-entry deadlines are enforced on read.
	memoryCacheCeiling = 24 * time.Hour
)

type memoryEntry struct {
	value    string
	deadline time.Time
}

// Memory is an in-process Store backed by an expirable LRU. It is the
// default cache when no external cache is configured and never returns
// infrastructure errors.
type Memory struct {
	entries *expirable.LRU[string, memoryEntry]
	now     func() time.Time
}

// NewMemory constructs an in-process cache holding at most size entries.
// A non-positive size selects a sensible default.
func NewMemory(size int) *Memory {
	return newMemory(size, time.Now)
}

func newMemory(size int, now func() time.Time) *Memory {
	if size <= 0 {
		size = defaultMemoryCacheSize
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{
		entries: expirable.NewLRU[string, memoryEntry](size, nil, memoryCacheCeiling),
		now:     now,
	}
}

// Get returns the cached value when present and not past its own deadline.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	entry, ok := m.entries.Get(key)
	if !ok {
		return "", false, nil
	}
	if !entry.deadline.IsZero() && !entry.deadline.After(m.now()) {
		m.entries.Remove(key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores the value with its own expiry deadline. A non-positive ttl
// stores the entry subject only to the cache-wide ceiling.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.deadline = m.now().Add(ttl)
	}
	m.entries.Add(key, entry)
	return nil
}

// Delete removes the entry if present.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}
