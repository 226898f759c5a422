// Package graph provides read access to the law graph: keyword lookup over article
// content, neighbor expansion over article relationships, and label statistics.
package graph

import (
	"context"
	"errors"

	"github.com/hyperjump/jeongbi/internal/models"
)

// ErrUnavailable marks failures caused by the store being unreachable.
var ErrUnavailable = errors.New("graph store unavailable")

// Store is the graph store accessor. Implementations never mutate the graph on
// these paths.
type Store interface {
	// SearchArticles returns articles whose content contains any of terms, best first.
	SearchArticles(ctx context.Context, terms []string, limit int) ([]Match, error)
	// RelatedArticles returns articles reachable from seeds within depth hops over
	// article relationships in either direction, nearest first. A seed is never its
	// own neighbor, but a seed reached from another seed is returned with that distance.
	RelatedArticles(ctx context.Context, seeds []models.ArticleKey, depth, limit int) ([]Neighbor, error)
	// LabelCounts returns node counts per label.
	LabelCounts(ctx context.Context) (map[string]int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Match is a keyword hit. Score is the raw match score of the backend.
type Match struct {
	Article *models.Article
	Score   float64
	Matched int
}

// Neighbor is an article reached by traversal with its shortest hop distance.
type Neighbor struct {
	Article *models.Article
	Hops    int
}

// ArticleRelationTypes are the edge types followed during expansion.
var ArticleRelationTypes = []models.RelationType{
	models.RelReferences,
	models.RelAppliesTo,
	models.RelImplements,
	models.RelAmends,
}
