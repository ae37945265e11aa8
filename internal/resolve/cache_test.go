package resolve

import (
	"testing"
	"time"
)

func TestURLCache_TTL(t *testing.T) {
	base := time.Now()
	current := base

	cache := newURLCache(30 * time.Minute)
	cache.now = func() time.Time { return current }

	cache.Put("abc-123", "https://cdn.example/abc-123/index.m3u8")

	current = base.Add(29 * time.Minute)
	url, ok := cache.Get("abc-123")
	if !ok {
		t.Fatal("entry should still be valid at T+29min")
	}
	if url != "https://cdn.example/abc-123/index.m3u8" {
		t.Errorf("Get() = %s, unexpected URL", url)
	}

	current = base.Add(31 * time.Minute)
	if _, ok := cache.Get("abc-123"); ok {
		t.Error("entry should be expired at T+31min")
	}

	// Expired lookup evicts lazily.
	if cache.Len() != 0 {
		t.Errorf("expected lazy eviction, %d entries remain", cache.Len())
	}
}

func TestURLCache_Sweep(t *testing.T) {
	base := time.Now()
	current := base

	cache := newURLCache(30 * time.Minute)
	cache.now = func() time.Time { return current }

	cache.Put("old", "https://cdn.example/old.m3u8")
	current = base.Add(31 * time.Minute)
	cache.Put("fresh", "https://cdn.example/fresh.m3u8")

	cache.Sweep()

	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry after sweep, got %d", cache.Len())
	}
	if _, ok := cache.Get("fresh"); !ok {
		t.Error("fresh entry must survive the sweep")
	}
}

func TestURLCache_MissingKey(t *testing.T) {
	cache := newURLCache(30 * time.Minute)
	if _, ok := cache.Get("nope"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestAttemptCounters(t *testing.T) {
	counters := newAttemptCounters()

	if got := counters.Inc("abc"); got != 1 {
		t.Errorf("first Inc() = %d, expected 1", got)
	}
	if got := counters.Inc("abc"); got != 2 {
		t.Errorf("second Inc() = %d, expected 2", got)
	}
	if got := counters.Get("abc"); got != 2 {
		t.Errorf("Get() = %d, expected 2", got)
	}
	if got := counters.Get("other"); got != 0 {
		t.Errorf("Get(other) = %d, expected 0", got)
	}
}
