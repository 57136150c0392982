package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestKeyFrom_DeterministicAndSensitive(t *testing.T) {
	a := KeyFrom("summary", "model", "short", "text")
	b := KeyFrom("summary", "model", "short", "text")
	if a != b {
		t.Fatal("same inputs must produce the same key")
	}
	if a == KeyFrom("summary", "model", "long", "text") {
		t.Fatal("different parameters must produce different keys")
	}
	if a == KeyFrom("sentiment", "model", "short", "text") {
		t.Fatal("different operations must produce different keys")
	}
}

func TestMemo_SetGet(t *testing.T) {
	c := NewMemo()
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("expected hit with %q, got %q ok=%v", "v", got, ok)
	}
}

func TestMemo_ConcurrentDistinctKeys(t *testing.T) {
	c := NewMemo()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			c.Set(key, fmt.Sprintf("val-%d", i))
			if v, ok := c.Get(key); !ok || v != fmt.Sprintf("val-%d", i) {
				t.Errorf("key %s: got %q ok=%v", key, v, ok)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != 50 {
		t.Fatalf("expected 50 entries, got %d", c.Len())
	}
}

func TestMemo_LastWriteWinsOnSameKey(t *testing.T) {
	c := NewMemo()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set("shared", fmt.Sprintf("%d", i))
		}(i)
	}
	wg.Wait()
	v, ok := c.Get("shared")
	if !ok || v == "" {
		t.Fatalf("expected a complete value, got %q ok=%v", v, ok)
	}
}
