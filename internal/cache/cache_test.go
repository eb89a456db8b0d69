package cache

import (
	"testing"
	"time"

	"dailybrief/internal/core"
)

func TestTopicCacheHitWithinTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Hour, func() time.Time { return now })

	material := core.CompiledMaterial{Text: "cached", SourceURLs: []string{"http://a"}}
	c.Put("ai", material)

	now = now.Add(59 * time.Minute)
	got, ok := c.Get("ai")
	if !ok {
		t.Fatal("entry within TTL should hit")
	}
	if got.Text != "cached" || len(got.SourceURLs) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestTopicCacheExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Hour, func() time.Time { return now })

	c.Put("ai", core.CompiledMaterial{Text: "cached"})

	now = now.Add(61 * time.Minute)
	if _, ok := c.Get("ai"); ok {
		t.Error("entry past TTL should miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be evicted, Len = %d", c.Len())
	}
}

func TestTopicCacheMiss(t *testing.T) {
	c := New(time.Hour, nil)
	if _, ok := c.Get("unknown"); ok {
		t.Error("unknown topic should miss")
	}
}

func TestTopicCachePutRefreshesExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Hour, func() time.Time { return now })

	c.Put("ai", core.CompiledMaterial{Text: "old"})
	now = now.Add(50 * time.Minute)
	c.Put("ai", core.CompiledMaterial{Text: "new"})

	now = now.Add(50 * time.Minute)
	got, ok := c.Get("ai")
	if !ok || got.Text != "new" {
		t.Errorf("refreshed entry should still hit, ok=%v got=%+v", ok, got)
	}
}
