package analysiscache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestSetThenGet(t *testing.T) {
	c := New[string]()
	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("expected hit with v, got %q %v", got, ok)
	}
}

func TestExpiredEntryIsRemoved(t *testing.T) {
	clock := newFakeClock()
	c := New[int](WithClock(clock.Now), WithTTL(30*time.Minute))
	c.Set("k", 1)

	clock.Advance(29 * time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected hit before ttl")
	}
	clock.Advance(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss at ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be removed, len=%d", c.Len())
	}
}

func TestCapacityEvictsFirstInserted(t *testing.T) {
	c := New[int]()
	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	// Reading k0 does not protect it: eviction is by insertion order.
	if _, ok := c.Get("k0"); !ok {
		t.Fatalf("expected k0 present")
	}
	c.Set("k100", 100)

	if c.Len() != 100 {
		t.Fatalf("expected size 100, got %d", c.Len())
	}
	if _, ok := c.Get("k0"); ok {
		t.Fatalf("expected k0 evicted")
	}
	if _, ok := c.Get("k1"); !ok {
		t.Fatalf("expected k1 kept")
	}
}

func TestOverwriteKeepsPosition(t *testing.T) {
	clock := newFakeClock()
	c := New[string](WithCapacity(3), WithClock(clock.Now))
	c.Set("a", "1")
	c.Set("b", "2")
	clock.Advance(time.Minute)
	c.Set("a", "1b")
	c.Set("c", "3")
	c.Set("d", "4")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("overwritten key keeps its original slot and is evicted first")
	}
	if got, ok := c.Get("b"); !ok || got != "2" {
		t.Fatalf("expected b kept")
	}
	if c.Len() != 3 {
		t.Fatalf("expected size 3, got %d", c.Len())
	}
}

func TestOverwriteAtCapacityEvictsOldest(t *testing.T) {
	c := New[int](WithCapacity(100))
	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	c.Set("k50", -1)

	if c.Len() != 99 {
		t.Fatalf("expected size 99, got %d", c.Len())
	}
	if _, ok := c.Get("k0"); ok {
		t.Fatalf("expected k0 evicted")
	}
	if got, ok := c.Get("k50"); !ok || got != -1 {
		t.Fatalf("expected k50 overwritten, got %d %v", got, ok)
	}
}

func TestOverwriteOldestAtCapacityMovesItLast(t *testing.T) {
	c := New[string](WithCapacity(2))
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "1b")
	c.Set("c", "3")

	if got, ok := c.Get("a"); !ok || got != "1b" {
		t.Fatalf("expected a re-inserted, got %q %v", got, ok)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b evicted")
	}
}

func TestOverwriteRefreshesTimestamp(t *testing.T) {
	clock := newFakeClock()
	c := New[string](WithTTL(10*time.Minute), WithClock(clock.Now))
	c.Set("a", "1")
	clock.Advance(8 * time.Minute)
	c.Set("a", "2")
	clock.Advance(8 * time.Minute)

	got, ok := c.Get("a")
	if !ok || got != "2" {
		t.Fatalf("expected refreshed entry, got %q %v", got, ok)
	}
}

func TestStatsHitRate(t *testing.T) {
	c := New[int]()
	if s := c.Stats(); s.HitRate != 0 || s.MaxSize != DefaultCapacity {
		t.Fatalf("unexpected empty stats: %+v", s)
	}
	c.Set("k", 1)
	c.Get("k")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	s := c.Stats()
	if s.HitRate != 75.0 || s.Hits != 3 || s.Misses != 1 || s.Size != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestStatsRoundsToOneDecimal(t *testing.T) {
	c := New[int]()
	c.Set("k", 1)
	c.Get("k")
	c.Get("x")
	c.Get("y")
	if s := c.Stats(); s.HitRate != 33.3 {
		t.Fatalf("expected 33.3, got %v", s.HitRate)
	}
}

func TestClearResetsCounters(t *testing.T) {
	c := New[int]()
	c.Set("k", 1)
	c.Get("k")
	c.Get("x")
	c.Clear()

	s := c.Stats()
	if s.Size != 0 || s.Hits != 0 || s.Misses != 0 {
		t.Fatalf("expected reset stats, got %+v", s)
	}
}

func TestDelete(t *testing.T) {
	c := New[int]()
	c.Set("k", 1)
	if !c.Delete("k") {
		t.Fatalf("expected delete to report presence")
	}
	if c.Delete("k") {
		t.Fatalf("second delete should report absence")
	}
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](WithCapacity(10))
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%25)
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 10 {
		t.Fatalf("size exceeded capacity: %d", c.Len())
	}
}
