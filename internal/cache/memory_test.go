package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

func TestMemory_SetGetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(8)

	if err := m.Set(ctx, "session:abc", `{"user":"u1"}`, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, ok, err := m.Get(ctx, "session:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || value != `{"user":"u1"}` {
		t.Fatalf("Get = (%q, %v), want hit", value, ok)
	}

	if err := m.Delete(ctx, "session:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "session:abc"); ok {
		t.Fatal("entry should be gone after Delete")
	}
}

func TestMemory_MissForUnknownKey(t *testing.T) {
	t.Parallel()

	_, ok, err := NewMemory(8).Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("unexpected hit for unknown key")
	}
}

func TestMemory_EntryExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{current: time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)}
	m := newMemory(8, clock.now)

	if err := m.Set(ctx, "k", "v", 30*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Fatal("entry should be live before its deadline")
	}

	clock.advance(31 * time.Second)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("entry should expire once its deadline passes")
	}
}

func TestMemory_EvictsWhenFull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(2)

	m.Set(ctx, "a", "1", time.Minute)
	m.Set(ctx, "b", "2", time.Minute)
	m.Set(ctx, "c", "3", time.Minute)

	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Fatal("oldest entry should have been evicted at capacity")
	}
	if _, ok, _ := m.Get(ctx, "c"); !ok {
		t.Fatal("newest entry should survive eviction")
	}
}
