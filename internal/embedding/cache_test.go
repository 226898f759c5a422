package embedding

import (
	"context"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	hits, misses, size := c.Stats()
	if hits != 3 || misses != 2 || size != 2 {
		t.Errorf("stats = %d/%d/%d, want 3/2/2", hits, misses, size)
	}
}

func TestEmbeddingCache_ReturnsCopies(t *testing.T) {
	c := NewEmbeddingCache(4)
	src := []float32{1, 2}
	c.Set("재건축", src)
	src[0] = 9

	v, _ := c.Get("재건축")
	if v[0] != 1 {
		t.Fatalf("cache kept the caller's slice: %v", v)
	}
	v[1] = 7
	again, _ := c.Get("재건축")
	if again[1] != 2 {
		t.Errorf("cache returned its own slice: %v", again)
	}
}

func TestEmbeddingCache_Disabled(t *testing.T) {
	c := NewEmbeddingCache(0)
	c.Set("a", []float32{1})
	if _, ok := c.Get("a"); ok {
		t.Error("zero capacity should not store")
	}
}

func TestCachedEmbedder(t *testing.T) {
	inner := NewMockEmbedder(16)
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	if _, err := c.Embed(ctx, "조합설립인가"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(ctx, "조합설립인가"); err != nil {
		t.Fatal(err)
	}
	if inner.Calls() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.Calls())
	}

	vs, err := c.EmbedBatch(ctx, []string{"조합설립인가", "현금청산"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 2 || vs[0] == nil || vs[1] == nil {
		t.Fatalf("batch = %v", vs)
	}
	if inner.Calls() != 2 {
		t.Errorf("inner calls after batch = %d, want 2 (only the miss)", inner.Calls())
	}
}
