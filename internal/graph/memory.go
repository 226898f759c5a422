package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/jeongbi/internal/keyword"
	"github.com/hyperjump/jeongbi/internal/models"
)

// MemoryStore is a Store held in process: article text is searched through a keyword
// index and expansion walks an in-memory adjacency list. It backs the local
// deployment mode and is rebuilt from the article catalog.
type MemoryStore struct {
	mu        sync.RWMutex
	index     keyword.Index
	laws      map[string]*models.Law
	articles  map[models.ArticleKey]*models.Article
	adjacency map[models.ArticleKey][]models.ArticleKey
}

// NewMemoryStore returns an empty store searching through index.
func NewMemoryStore(index keyword.Index) *MemoryStore {
	return &MemoryStore{
		index:     index,
		laws:      make(map[string]*models.Law),
		articles:  make(map[models.ArticleKey]*models.Article),
		adjacency: make(map[models.ArticleKey][]models.ArticleKey),
	}
}

// Replace swaps the store contents for the given snapshot. Articles missing from the
// snapshot are removed from the keyword index. Relations whose ends are unknown or
// whose type is not an article relationship are ignored.
func (m *MemoryStore) Replace(ctx context.Context, laws []*models.Law, articles []*models.Article, relations []models.Relation) error {
	nextArticles := make(map[models.ArticleKey]*models.Article, len(articles))
	for _, a := range articles {
		nextArticles[a.Key()] = a
	}
	nextLaws := make(map[string]*models.Law, len(laws))
	for _, l := range laws {
		nextLaws[l.Name] = l
	}
	nextAdj := make(map[models.ArticleKey][]models.ArticleKey)
	for _, r := range relations {
		if !models.ValidRelationType(r.Type) {
			continue
		}
		if _, ok := nextArticles[r.From]; !ok {
			continue
		}
		if _, ok := nextArticles[r.To]; !ok {
			continue
		}
		nextAdj[r.From] = append(nextAdj[r.From], r.To)
		nextAdj[r.To] = append(nextAdj[r.To], r.From)
	}
	for k, ns := range nextAdj {
		nextAdj[k] = sortedUnique(ns)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.articles {
		if _, ok := nextArticles[k]; !ok {
			if err := m.index.Delete(ctx, k); err != nil {
				return fmt.Errorf("unindex %s: %w", k, err)
			}
		}
	}
	for _, a := range articles {
		if err := m.index.IndexArticle(ctx, a); err != nil {
			return err
		}
	}
	m.laws = nextLaws
	m.articles = nextArticles
	m.adjacency = nextAdj
	return nil
}

// SearchArticles looks terms up in the keyword index.
func (m *MemoryStore) SearchArticles(ctx context.Context, terms []string, limit int) ([]Match, error) {
	hits, err := m.index.Search(ctx, terms, limit)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		a, ok := m.articles[h.Key]
		if !ok {
			continue
		}
		matches = append(matches, Match{Article: a, Score: h.Score, Matched: h.Matched})
	}
	return matches, nil
}

// RelatedArticles walks breadth-first from each seed and keeps every article's
// shortest distance to a seed other than itself, so linked seeds reach each other.
// Ties on distance are ordered by key.
func (m *MemoryStore) RelatedArticles(ctx context.Context, seeds []models.ArticleKey, depth, limit int) ([]Neighbor, error) {
	if len(seeds) == 0 || depth <= 0 || limit <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	best := make(map[models.ArticleKey]int)
	for _, s := range sortedUnique(seeds) {
		if _, ok := m.articles[s]; !ok {
			continue
		}
		visited := map[models.ArticleKey]bool{s: true}
		frontier := []models.ArticleKey{s}
		for hops := 1; hops <= depth && len(frontier) > 0; hops++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			var next []models.ArticleKey
			for _, k := range frontier {
				for _, n := range m.adjacency[k] {
					if visited[n] {
						continue
					}
					visited[n] = true
					next = append(next, n)
					if h, ok := best[n]; !ok || hops < h {
						best[n] = hops
					}
				}
			}
			frontier = next
		}
	}

	out := make([]Neighbor, 0, len(best))
	for k, h := range best {
		out = append(out, Neighbor{Article: m.articles[k], Hops: h})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hops != out[j].Hops {
			return out[i].Hops < out[j].Hops
		}
		return out[i].Article.Key().Less(out[j].Article.Key())
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LabelCounts reports Law and Article node counts.
func (m *MemoryStore) LabelCounts(ctx context.Context) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int64{
		"Law":     int64(len(m.laws)),
		"Article": int64(len(m.articles)),
	}, nil
}

// Article returns one article by key.
func (m *MemoryStore) Article(key models.ArticleKey) (*models.Article, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.articles[key]
	return a, ok
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close closes the keyword index.
func (m *MemoryStore) Close(ctx context.Context) error {
	return m.index.Close()
}

func sortedUnique(keys []models.ArticleKey) []models.ArticleKey {
	seen := make(map[models.ArticleKey]struct{}, len(keys))
	out := make([]models.ArticleKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// GetArticles returns the stored articles among keys.
func (m *MemoryStore) GetArticles(ctx context.Context, keys []models.ArticleKey) (map[models.ArticleKey]*models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[models.ArticleKey]*models.Article, len(keys))
	for _, k := range keys {
		if a, ok := m.articles[k]; ok {
			out[k] = a
		}
	}
	return out, nil
}
