package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	c := New(NewMemory(), slog.Default())
	ctx := context.Background()

	var calls int32
	fetch := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrFetch(ctx, c, "k", time.Minute, fetch)
		if err != nil || got != 42 {
			t.Fatalf("GetOrFetch = (%d, %v)", got, err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

func TestGetOrFetchExpiry(t *testing.T) {
	c := New(NewMemory(), slog.Default())
	ctx := context.Background()

	var calls int32
	fetch := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}

	if _, err := GetOrFetch(ctx, c, "k", 10*time.Millisecond, fetch); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := GetOrFetch(ctx, c, "k", 10*time.Millisecond, fetch); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("fetch called %d times after expiry, want 2", n)
	}
}

func TestGetOrFetchErrorNotCached(t *testing.T) {
	c := New(NewMemory(), slog.Default())
	ctx := context.Background()

	var calls int32
	fetch := func(context.Context) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return 0, errors.New("boom")
		}
		return 7, nil
	}

	if _, err := GetOrFetch(ctx, c, "k", time.Minute, fetch); err == nil {
		t.Fatal("expected first fetch error")
	}
	got, err := GetOrFetch(ctx, c, "k", time.Minute, fetch)
	if err != nil || got != 7 {
		t.Errorf("second GetOrFetch = (%d, %v), want (7, nil)", got, err)
	}
}

// Concurrent misses for the same key must coalesce into one fetch.
func TestGetOrFetchSingleFlight(t *testing.T) {
	c := New(NewMemory(), slog.Default())
	ctx := context.Background()

	var calls int32
	fetch := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return 1, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := GetOrFetch(ctx, c, "k", time.Minute, fetch); err != nil || got != 1 {
				t.Errorf("GetOrFetch = (%d, %v)", got, err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("fetch called %d times for concurrent misses, want 1", n)
	}
}

func TestMemoryLazyEviction(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
	if _, ok := m.Get(ctx, "k"); !ok {
		t.Fatal("entry missing before TTL")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Error("entry survived past TTL")
	}
	// The expired read must have evicted the entry.
	m.mu.RLock()
	_, present := m.entries["k"]
	m.mu.RUnlock()
	if present {
		t.Error("expired entry not evicted on read")
	}
}

func TestGetOrFetchDistinctKeys(t *testing.T) {
	c := New(NewMemory(), slog.Default())
	ctx := context.Background()

	a, _ := GetOrFetch(ctx, c, "a", time.Minute, func(context.Context) (int, error) { return 1, nil })
	b, _ := GetOrFetch(ctx, c, "b", time.Minute, func(context.Context) (int, error) { return 2, nil })
	if a != 1 || b != 2 {
		t.Errorf("keys collided: a=%d b=%d", a, b)
	}
}
