package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/ppiankov/factgate/internal/model"
)

func testResult(score float64) *model.ConsensusResult {
	return &model.ConsensusResult{
		Level: model.LevelHigh,
		Score: score,
	}
}

func TestMemoryCache_HitBeforeTTL(t *testing.T) {
	c := NewMemoryCache(model.CacheConfig{TTLSeconds: 3600, MaxSize: 8})

	base := time.Now()
	c.now = func() time.Time { return base }

	if err := c.Set("k", testResult(88)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	c.now = func() time.Time { return base.Add(3599 * time.Second) }
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit at t=3599 with ttl=3600")
	}
	if got.Score != 88 {
		t.Errorf("expected score 88, got %v", got.Score)
	}
}

func TestMemoryCache_MissAfterTTL(t *testing.T) {
	c := NewMemoryCache(model.CacheConfig{TTLSeconds: 3600, MaxSize: 8})

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("k", testResult(88))

	c.now = func() time.Time { return base.Add(3601 * time.Second) }
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss at t=3601 with ttl=3600")
	}
	if c.Len() != 0 {
		t.Errorf("stale entry should be evicted on Get, len=%d", c.Len())
	}
}

func TestMemoryCache_MissAtExactTTL(t *testing.T) {
	c := NewMemoryCache(model.CacheConfig{TTLSeconds: 3600, MaxSize: 8})

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("k", testResult(88))

	c.now = func() time.Time { return base.Add(3600 * time.Second) }
	if _, ok := c.Get("k"); ok {
		t.Error("entry at exactly t=ttl should be stale")
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	c := NewMemoryCache(model.CacheConfig{TTLSeconds: 3600, MaxSize: 3})

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), testResult(float64(i)))
	}

	// Touch k0 so k1 becomes least recently used
	if _, ok := c.Get("k0"); !ok {
		t.Fatal("expected k0 present")
	}

	c.Set("k3", testResult(3))

	if _, ok := c.Get("k1"); ok {
		t.Error("k1 should have been evicted as least recently used")
	}
	if _, ok := c.Get("k0"); !ok {
		t.Error("k0 was recently used and should survive")
	}
	if _, ok := c.Get("k3"); !ok {
		t.Error("k3 was just inserted and should be present")
	}
	if c.Len() != 3 {
		t.Errorf("expected len 3, got %d", c.Len())
	}
}

func TestMemoryCache_SetExistingUpdatesInPlace(t *testing.T) {
	c := NewMemoryCache(model.CacheConfig{TTLSeconds: 3600, MaxSize: 2})

	c.Set("k", testResult(10))
	c.Set("k", testResult(20))

	if c.Len() != 1 {
		t.Fatalf("re-setting the same key must not grow the cache, len=%d", c.Len())
	}
	got, ok := c.Get("k")
	if !ok || got.Score != 20 {
		t.Errorf("expected updated score 20, got %+v ok=%v", got, ok)
	}
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	c := NewMemoryCache(model.CacheConfig{TTLSeconds: 3600, MaxSize: 2})
	c.Set("k", testResult(50))

	first, _ := c.Get("k")
	first.Score = 999

	second, _ := c.Get("k")
	if second.Score != 50 {
		t.Errorf("mutating a returned result must not corrupt the cache, got %v", second.Score)
	}
}

func TestFingerprint_ProviderOrderIndependent(t *testing.T) {
	a := Fingerprint("body", []string{"openai", "anthropic", "google"}, "v1")
	b := Fingerprint("body", []string{"google", "openai", "anthropic"}, "v1")
	if a != b {
		t.Error("fingerprint must not depend on provider order")
	}
}

func TestFingerprint_SensitiveToInputs(t *testing.T) {
	base := Fingerprint("body", []string{"openai"}, "v1")

	if Fingerprint("body.", []string{"openai"}, "v1") == base {
		t.Error("content change must change the fingerprint")
	}
	if Fingerprint("body", []string{"anthropic"}, "v1") == base {
		t.Error("provider set change must change the fingerprint")
	}
	if Fingerprint("body", []string{"openai"}, "v2") == base {
		t.Error("prompt version change must change the fingerprint")
	}
}
