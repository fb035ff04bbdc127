package apiclient

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCacheGetFreshAndExpired(t *testing.T) {
	cache := NewCache()

	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.Set("GET:/api/strategies:", json.RawMessage(`{"ok":true}`), time.Minute)

	data, ok := cache.Get("GET:/api/strategies:")
	if !ok {
		t.Fatal("expected fresh entry to be returned")
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("unexpected data: %s", data)
	}

	// Возраст ровно TTL - запись уже протухла
	current = current.Add(time.Minute)

	if _, ok := cache.Get("GET:/api/strategies:"); ok {
		t.Error("expected entry aged exactly ttl to be stale")
	}

	current = current.Add(time.Minute)

	if _, ok := cache.Get("GET:/api/strategies:"); ok {
		t.Error("expected expired entry to be skipped")
	}

	// Запись не удаляется, только перестает отдаваться
	if cache.Len() != 1 {
		t.Errorf("expected stale entry to remain, len = %d", cache.Len())
	}
}

func TestCacheGetMissing(t *testing.T) {
	cache := NewCache()

	if _, ok := cache.Get("nope"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCacheInvalidateSubstring(t *testing.T) {
	cache := NewCache()
	cache.Set("GET:/api/strategies:", json.RawMessage(`1`), time.Minute)
	cache.Set("GET:/api/strategies/5:", json.RawMessage(`2`), time.Minute)
	cache.Set("GET:/api/alerts:", json.RawMessage(`3`), time.Minute)

	cache.Invalidate("/api/strategies")

	if _, ok := cache.Get("GET:/api/strategies:"); ok {
		t.Error("expected strategies list to be invalidated")
	}
	if _, ok := cache.Get("GET:/api/strategies/5:"); ok {
		t.Error("expected single strategy to be invalidated")
	}
	if _, ok := cache.Get("GET:/api/alerts:"); !ok {
		t.Error("expected alerts to survive invalidation")
	}
}

func TestCacheInvalidateAll(t *testing.T) {
	cache := NewCache()
	cache.Set("a", json.RawMessage(`1`), time.Minute)
	cache.Set("b", json.RawMessage(`2`), time.Minute)

	cache.Invalidate("")

	if cache.Len() != 0 {
		t.Errorf("expected empty cache, len = %d", cache.Len())
	}
}

func TestCacheSetOverwrites(t *testing.T) {
	cache := NewCache()

	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.Set("key", json.RawMessage(`old`), time.Second)
	current = current.Add(2 * time.Second)
	cache.Set("key", json.RawMessage(`new`), time.Second)

	data, ok := cache.Get("key")
	if !ok {
		t.Fatal("expected overwritten entry to be fresh")
	}
	if string(data) != "new" {
		t.Errorf("unexpected data: %s", data)
	}
}
