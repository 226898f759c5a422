package embedding

import (
	"container/list"
	"crypto/sha256"
	"sync"
)

// cacheKey is the SHA-256 of the embedded text. Article chunks run to hundreds of
// runes, so the digest keeps the map small.
type cacheKey [sha256.Size]byte

// EmbeddingCache is a bounded LRU of embeddings keyed by text digest. Vectors are
// copied in and out, so callers may modify what they receive.
type EmbeddingCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[cacheKey]*list.Element
	order    *list.List
	hits     uint64
	misses   uint64
}

type cached struct {
	key cacheKey
	vec []float32
}

// NewEmbeddingCache returns a cache holding up to capacity vectors. A non-positive
// capacity disables caching.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		capacity: capacity,
		entries:  make(map[cacheKey]*list.Element),
		order:    list.New(),
	}
}

// Get returns a copy of the vector cached for text.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	k := sha256.Sum256([]byte(text))
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[k]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return cloneVector(el.Value.(*cached).vec), true
}

// Set caches vec for text, evicting the least recently used entry when full.
func (c *EmbeddingCache) Set(text string, vec []float32) {
	if c.capacity <= 0 {
		return
	}
	k := sha256.Sum256([]byte(text))
	v := cloneVector(vec)
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[k]; ok {
		el.Value.(*cached).vec = v
		c.order.MoveToFront(el)
		return
	}
	c.entries[k] = c.order.PushFront(&cached{key: k, vec: v})
	for c.order.Len() > c.capacity {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.entries, last.Value.(*cached).key)
	}
}

// Stats returns hit and miss counts and the current number of entries.
func (c *EmbeddingCache) Stats() (hits, misses uint64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.order.Len()
}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
