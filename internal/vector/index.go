// Package vector provides the article embedding index and similarity search.
package vector

import "context"

// Index stores one normalized vector per article ID and answers nearest-neighbour queries.
type Index interface {
	Upsert(ctx context.Context, ids []string, vectors [][]float32) error
	// Search returns up to k hits whose similarity is at least threshold, best first.
	Search(ctx context.Context, query []float32, k int, threshold float64) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	IDs() []string
	Size() int
	Dimensions() int
	Close() error
}

// Result is a single vector search hit. ID is an article ID (see models.ArticleKey.ID).
type Result struct {
	ID    string
	Score float64 // cosine similarity for normalized vectors, clamped to [0, 1]
}
