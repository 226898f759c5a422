// Package keyword provides full-text indexing of articles and query term extraction.
package keyword

import (
	"context"

	"github.com/hyperjump/jeongbi/internal/models"
)

// Index defines keyword search operations over articles.
type Index interface {
	IndexArticle(ctx context.Context, a *models.Article) error
	// Search returns articles matching any of terms, best first. Score is the raw
	// text-match score of the index; Matched is the number of distinct terms hit.
	Search(ctx context.Context, terms []string, limit int) ([]*Result, error)
	Delete(ctx context.Context, key models.ArticleKey) error
	// DocCount returns the total number of articles in the index.
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword hit.
type Result struct {
	Key     models.ArticleKey
	Score   float64
	Matched int
}
