package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCachePutGet(t *testing.T) {
	c := New[string]("test_put_get", 4, time.Minute)

	c.Put("a", "alpha")
	got, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit for freshly inserted key")
	}
	if got != "alpha" {
		t.Fatalf("Get(a) = %q, want %q", got, "alpha")
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := New[int]("test_overwrite", 2, 0)

	c.Put("k", 1)
	c.Put("k", 2)
	if got, _ := c.Get("k"); got != 2 {
		t.Fatalf("Get(k) = %d, want 2", got)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := New[string]("test_ttl", 4, 10*time.Second)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put("k", "v")

	c.now = func() time.Time { return base.Add(9 * time.Second) }
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired before TTL elapsed")
	}

	c.now = func() time.Time { return base.Add(11 * time.Second) }
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry survived past TTL")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not removed, Len() = %d", c.Len())
	}

	stats := c.Stats()
	if stats.Expirations != 1 {
		t.Fatalf("Expirations = %d, want 1", stats.Expirations)
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c := New[string]("test_no_ttl", 4, 0)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put("k", "v")

	c.now = func() time.Time { return base.Add(1000 * time.Hour) }
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry with zero TTL should never expire")
	}
}

func TestCacheEvictsOldest(t *testing.T) {
	c := New[int]("test_evict", 3, 0)

	base := time.Now()
	for i := 0; i < 3; i++ {
		idx := i
		c.now = func() time.Time { return base.Add(time.Duration(idx) * time.Second) }
		c.Put(fmt.Sprintf("k%d", i), i)
	}

	// Touching k0 does not protect it; eviction is insertion-ordered.
	if _, ok := c.Get("k0"); !ok {
		t.Fatal("expected k0 present before eviction")
	}

	c.now = func() time.Time { return base.Add(10 * time.Second) }
	c.Put("k3", 3)

	if _, ok := c.Get("k0"); ok {
		t.Fatal("oldest entry k0 should have been evicted")
	}
	for _, k := range []string{"k1", "k2", "k3"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("entry %s should have survived eviction", k)
		}
	}

	stats := c.Stats()
	if stats.Evictions != 1 {
		t.Fatalf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestCacheStatsCounters(t *testing.T) {
	c := New[string]("test_counters", 4, 0)

	c.Put("a", "1")
	c.Get("a")
	c.Get("a")
	c.Get("b")

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Size != 1 {
		t.Errorf("Size = %d, want 1", stats.Size)
	}
}

func TestHashKey(t *testing.T) {
	if HashKey("ab", "c") == HashKey("a", "bc") {
		t.Fatal("HashKey must separate parts")
	}
	if HashKey("same") != HashKey("same") {
		t.Fatal("HashKey must be deterministic")
	}
	if len(HashKey("x")) != 64 {
		t.Fatalf("HashKey length = %d, want 64 hex chars", len(HashKey("x")))
	}
}
