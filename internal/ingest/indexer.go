package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/jeongbi/internal/embedding"
	"github.com/hyperjump/jeongbi/internal/graph"
	"github.com/hyperjump/jeongbi/internal/models"
	"github.com/hyperjump/jeongbi/internal/storage"
	"github.com/hyperjump/jeongbi/internal/vector"
	"github.com/hyperjump/jeongbi/pkg/utils"
)

// Report summarizes one load.
type Report struct {
	Files     []string      `json:"files,omitempty"`
	Laws      int           `json:"laws"`
	Articles  int           `json:"articles"`
	Relations int           `json:"relations"`
	Derived   int           `json:"derived_relations"`
	Embedded  int           `json:"embedded"`
	Reused    int           `json:"reused_vectors"`
	Removed   int           `json:"removed_vectors"`
	Warnings  []string      `json:"warnings,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Indexer writes corpora into the catalog, the local graph store and the vector index.
type Indexer struct {
	storage    storage.Storage
	local      *graph.MemoryStore
	embedder   embedding.Embedder
	vectors    vector.Index
	vectorPath string
	chunker    *Chunker
	batchSize  int
	derive     bool
	logger     *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithLocalGraph keeps store in sync with the catalog.
func WithLocalGraph(store *graph.MemoryStore) IndexerOption {
	return func(idx *Indexer) { idx.local = store }
}

// WithVectors embeds articles into index with embedder, saving the index to path
// after each load when path is non-empty.
func WithVectors(embedder embedding.Embedder, index vector.Index, path string) IndexerOption {
	return func(idx *Indexer) {
		idx.embedder = embedder
		idx.vectors = index
		idx.vectorPath = path
	}
}

// WithBatchSize sets how many chunks are sent per embedding request.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// WithDerivedReferences adds REFERENCES relations for article numbers cited in content.
func WithDerivedReferences(on bool) IndexerOption {
	return func(idx *Indexer) { idx.derive = on }
}

// NewIndexer creates an indexer writing to store. Chunk size and overlap are in runes.
func NewIndexer(store storage.Storage, chunkSize, chunkOverlap int, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:   store,
		chunker:   NewChunker(chunkSize, chunkOverlap),
		batchSize: 32,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// LoadFiles reads corpus files and directories and loads them.
func (idx *Indexer) LoadFiles(ctx context.Context, paths ...string) (*Report, error) {
	corpus, files, err := LoadFiles(paths...)
	if err != nil {
		return nil, err
	}
	report, err := idx.Load(ctx, corpus)
	if err != nil {
		return nil, err
	}
	report.Files = files
	return report, nil
}

// Load replaces the catalog with corpus, then rebuilds the local graph and updates
// the vector index. Articles whose content is unchanged keep their vectors. An
// embedding failure leaves the catalog loaded and is reported as a warning.
func (idx *Indexer) Load(ctx context.Context, corpus *Corpus) (*Report, error) {
	start := time.Now()
	if err := corpus.Normalize(); err != nil {
		return nil, fmt.Errorf("invalid corpus: %w", err)
	}
	report := &Report{}
	if idx.derive {
		report.Derived = corpus.DeriveReferences()
	}

	previous, err := idx.previousContent(ctx, corpus.Articles)
	if err != nil {
		return nil, err
	}

	if err := idx.storage.ReplaceCorpus(ctx, corpus.Laws, corpus.Articles, corpus.Relations); err != nil {
		return nil, fmt.Errorf("failed to store corpus: %w", err)
	}
	if idx.local != nil {
		if err := idx.local.Replace(ctx, corpus.Laws, corpus.Articles, corpus.Relations); err != nil {
			return nil, fmt.Errorf("failed to rebuild local graph: %w", err)
		}
	}
	report.Laws = len(corpus.Laws)
	report.Articles = len(corpus.Articles)
	report.Relations = len(corpus.Relations)

	if idx.embedder != nil && idx.vectors != nil {
		if err := idx.syncVectors(ctx, corpus.Articles, previous, report); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			idx.logger.Warn("article embedding failed; semantic search will be incomplete", zap.Error(err))
			report.Warnings = append(report.Warnings, err.Error())
		}
	}

	report.Duration = time.Since(start)
	idx.logger.Info("corpus loaded",
		zap.Int("laws", report.Laws),
		zap.Int("articles", report.Articles),
		zap.Int("relations", report.Relations),
		zap.Int("embedded", report.Embedded),
		zap.Int("reused", report.Reused),
		zap.Duration("took", report.Duration))
	return report, nil
}

// Restore rebuilds the local graph from the catalog and loads the saved vector index,
// embedding any catalog article that has no vector yet.
func (idx *Indexer) Restore(ctx context.Context) (*Report, error) {
	start := time.Now()
	laws, err := idx.storage.ListLaws(ctx)
	if err != nil {
		return nil, fmt.Errorf("list laws: %w", err)
	}
	articles, err := idx.storage.ListArticles(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	relations, err := idx.storage.ListRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	if idx.local != nil {
		if err := idx.local.Replace(ctx, laws, articles, relations); err != nil {
			return nil, fmt.Errorf("failed to rebuild local graph: %w", err)
		}
	}
	report := &Report{Laws: len(laws), Articles: len(articles), Relations: len(relations)}
	if idx.vectors != nil {
		if err := idx.vectors.Load(idx.vectorPath); err != nil {
			idx.logger.Warn("vector index could not be loaded; re-embedding", zap.Error(err))
			report.Warnings = append(report.Warnings, err.Error())
		}
		if idx.embedder != nil {
			current := make(map[models.ArticleKey]string, len(articles))
			for _, a := range articles {
				current[a.Key()] = a.Content
			}
			if err := idx.syncVectors(ctx, articles, current, report); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				idx.logger.Warn("article embedding failed; semantic search will be incomplete", zap.Error(err))
				report.Warnings = append(report.Warnings, err.Error())
			}
		}
	}
	report.Duration = time.Since(start)
	return report, nil
}

func (idx *Indexer) previousContent(ctx context.Context, articles []*models.Article) (map[models.ArticleKey]string, error) {
	keys := make([]models.ArticleKey, len(articles))
	for i, a := range articles {
		keys[i] = a.Key()
	}
	prev := make(map[models.ArticleKey]string, len(keys))
	const page = 200
	for startKey := 0; startKey < len(keys); startKey += page {
		end := min(startKey+page, len(keys))
		found, err := idx.storage.GetArticles(ctx, keys[startKey:end])
		if err != nil {
			return nil, fmt.Errorf("read previous catalog: %w", err)
		}
		for k, a := range found {
			prev[k] = a.Content
		}
	}
	return prev, nil
}

// syncVectors removes vectors of articles no longer present and embeds articles that
// are new, changed, or missing a vector. An article vector is the normalized mean
// of its chunk vectors.
func (idx *Indexer) syncVectors(ctx context.Context, articles []*models.Article, previous map[models.ArticleKey]string, report *Report) error {
	wanted := make(map[string]bool, len(articles))
	for _, a := range articles {
		wanted[a.Key().ID()] = true
	}
	var stale []string
	for _, id := range idx.vectors.IDs() {
		if !wanted[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := idx.vectors.Remove(ctx, stale); err != nil {
			return fmt.Errorf("remove stale vectors: %w", err)
		}
		report.Removed = len(stale)
	}

	have := make(map[string]bool, idx.vectors.Size())
	for _, id := range idx.vectors.IDs() {
		have[id] = true
	}
	var todo []*models.Article
	for _, a := range articles {
		if prevContent, ok := previous[a.Key()]; ok && prevContent == a.Content && have[a.Key().ID()] {
			report.Reused++
			continue
		}
		todo = append(todo, a)
	}

	for start := 0; start < len(todo); start += idx.batchSize {
		end := min(start+idx.batchSize, len(todo))
		if err := idx.embedArticles(ctx, todo[start:end]); err != nil {
			return err
		}
		report.Embedded += end - start
	}
	if report.Embedded > 0 || report.Removed > 0 {
		if err := idx.vectors.Save(idx.vectorPath); err != nil {
			return fmt.Errorf("save vector index: %w", err)
		}
	}
	return nil
}

func (idx *Indexer) embedArticles(ctx context.Context, articles []*models.Article) error {
	var texts []string
	spans := make([][2]int, len(articles))
	for i, a := range articles {
		chunks := idx.chunker.Chunk(articleText(a))
		spans[i] = [2]int{len(texts), len(texts) + len(chunks)}
		texts = append(texts, chunks...)
	}
	vecs, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(texts))
	}
	ids := make([]string, 0, len(articles))
	out := make([][]float32, 0, len(articles))
	for i, a := range articles {
		mean := utils.MeanVector(vecs[spans[i][0]:spans[i][1]])
		if mean == nil {
			continue
		}
		ids = append(ids, a.Key().ID())
		out = append(out, mean)
	}
	if err := idx.vectors.Upsert(ctx, ids, out); err != nil {
		return fmt.Errorf("failed to index vectors: %w", err)
	}
	idx.logger.Debug("articles embedded", zap.Int("articles", len(ids)), zap.Int("chunks", len(texts)))
	return nil
}

// articleText is what gets embedded for an article: its title, when present, then its content.
func articleText(a *models.Article) string {
	if a.Title == "" {
		return a.Content
	}
	return a.Title + " " + a.Content
}
