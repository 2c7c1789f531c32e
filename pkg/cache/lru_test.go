package cache

import (
	"testing"
	"time"
)

func TestLRUHitMovesToFront(t *testing.T) {
	l := NewLRU[int]("test_lru_front", 2, 0, nil)

	l.Put("a", 1)
	l.Put("b", 2)

	// A hit on "a" makes "b" the eviction candidate.
	if _, ok := l.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}
	l.Put("c", 3)

	if _, ok := l.Get("b"); ok {
		t.Fatal("b should have been evicted as least recently used")
	}
	if _, ok := l.Get("a"); !ok {
		t.Fatal("a should have survived: it was used most recently")
	}
	if _, ok := l.Get("c"); !ok {
		t.Fatal("c should be present")
	}
}

func TestLRUTTL(t *testing.T) {
	l := NewLRU[string]("test_lru_ttl", 4, 5*time.Second, nil)

	base := time.Now()
	l.now = func() time.Time { return base }
	l.Put("k", "v")

	l.now = func() time.Time { return base.Add(6 * time.Second) }
	if _, ok := l.Get("k"); ok {
		t.Fatal("entry survived past TTL")
	}
	if l.Len() != 0 {
		t.Fatalf("expired entry not removed, Len() = %d", l.Len())
	}
}

func TestLRUEvictionCallback(t *testing.T) {
	var evicted []string
	l := NewLRU[int]("test_lru_cb", 2, 0, func(key string, value int) {
		evicted = append(evicted, key)
	})

	l.Put("a", 1)
	l.Put("b", 2)
	l.Put("c", 3)

	if len(evicted) != 1 || evicted[0] != "a" {
		t.Fatalf("evicted = %v, want [a]", evicted)
	}

	// Overwrites must not fire the callback.
	l.Put("b", 20)
	if len(evicted) != 1 {
		t.Fatalf("overwrite fired eviction callback: %v", evicted)
	}

	l.Purge()
	if len(evicted) != 3 {
		t.Fatalf("Purge should release remaining entries, evicted = %v", evicted)
	}
}

func TestLRUOverwriteKeepsSingleEntry(t *testing.T) {
	l := NewLRU[int]("test_lru_overwrite", 4, 0, nil)

	l.Put("k", 1)
	l.Put("k", 2)
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	if got, _ := l.Get("k"); got != 2 {
		t.Fatalf("Get(k) = %d, want 2", got)
	}
}
