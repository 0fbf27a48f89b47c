package cache

import (
	"sync"
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}

	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Errorf("expected 42, got %v (ok=%v)", v, ok)
	}

	c.Set("k", "replaced")
	v, _ = c.Get("k")
	if v != "replaced" {
		t.Errorf("set must overwrite, got %v", v)
	}
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v")

	now = now.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired before TTL")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry survived past TTL")
	}
	if c.Len() != 0 {
		t.Error("expired entry not evicted on access")
	}
}

func TestSetResetsTimestamp(t *testing.T) {
	c := New(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(45 * time.Second)
	c.Set("k", 2)
	now = now.Add(30 * time.Second)

	v, ok := c.Get("k")
	if !ok || v != 2 {
		t.Errorf("overwrite must reset insertion time, got %v (ok=%v)", v, ok)
	}
}

func TestInvalidate(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("invalidated key still present")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("unrelated key removed")
	}

	c.Set("a", 1)
	c.Invalidate()
	if c.Len() != 0 {
		t.Error("invalidate with no keys must clear everything")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("shared", n)
				c.Get("shared")
				if j%10 == 0 {
					c.Invalidate("shared")
				}
			}
		}(i)
	}
	wg.Wait()
}
