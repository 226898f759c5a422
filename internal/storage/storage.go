// Package storage persists the article catalog and the query log.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/jeongbi/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines article catalog and query log persistence.
type Storage interface {
	// Catalog
	ReplaceCorpus(ctx context.Context, laws []*models.Law, articles []*models.Article, relations []models.Relation) error
	UpsertArticles(ctx context.Context, articles []*models.Article) error
	GetArticle(ctx context.Context, key models.ArticleKey) (*models.Article, error)
	GetArticles(ctx context.Context, keys []models.ArticleKey) (map[models.ArticleKey]*models.Article, error)
	ListArticles(ctx context.Context, offset, limit int) ([]*models.Article, error)
	ListLaws(ctx context.Context) ([]*models.Law, error)
	ListRelations(ctx context.Context) ([]models.Relation, error)

	// Query log
	LogQuery(ctx context.Context, entry *QueryLogEntry) error
	RecentQueries(ctx context.Context, limit int) ([]*QueryLogEntry, error)

	// Stats
	CountArticles(ctx context.Context) (int64, error)
	CountLaws(ctx context.Context) (int64, error)
	CountRelations(ctx context.Context) (int64, error)

	Close() error
}

// QueryLogEntry records one executed search.
type QueryLogEntry struct {
	ID          string        `json:"id"`
	Query       string        `json:"query"`
	ResultCount int           `json:"result_count"`
	Partial     bool          `json:"partial"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}
