// Package retrieval implements the hybrid retriever: keyword lookup, graph expansion
// and semantic similarity over the law graph, merged into one ranked list.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/jeongbi/internal/config"
	"github.com/hyperjump/jeongbi/internal/embedding"
	"github.com/hyperjump/jeongbi/internal/graph"
	"github.com/hyperjump/jeongbi/internal/keyword"
	"github.com/hyperjump/jeongbi/internal/models"
	"github.com/hyperjump/jeongbi/internal/vector"
)

// ArticleLookup resolves article keys to articles for semantic hits.
type ArticleLookup interface {
	GetArticles(ctx context.Context, keys []models.ArticleKey) (map[models.ArticleKey]*models.Article, error)
}

// Retriever answers search queries.
type Retriever interface {
	Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error)
}

// HybridRetriever runs the keyword, graph and semantic channels and merges their hits.
type HybridRetriever struct {
	store    graph.Store
	embedder embedding.Embedder
	vectors  vector.Index
	articles ArticleLookup
	cfg      *config.SearchConfig
	weights  Weights
	decay    HopDecay
	logger   *zap.Logger
}

// Option configures a HybridRetriever.
type Option func(*HybridRetriever)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *HybridRetriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHopDecay replaces the graph channel's decay policy.
func WithHopDecay(d HopDecay) Option {
	return func(r *HybridRetriever) {
		if d != nil {
			r.decay = d
		}
	}
}

// WithWeights replaces the merge weights.
func WithWeights(w Weights) Option {
	return func(r *HybridRetriever) {
		r.weights = w
	}
}

// NewHybridRetriever creates a retriever. embedder, vectors and articles may be nil, in
// which case the semantic channel never runs.
func NewHybridRetriever(
	store graph.Store,
	embedder embedding.Embedder,
	vectors vector.Index,
	articles ArticleLookup,
	cfg *config.SearchConfig,
	opts ...Option,
) *HybridRetriever {
	r := &HybridRetriever{
		store:    store,
		embedder: embedder,
		vectors:  vectors,
		articles: articles,
		cfg:      cfg,
		weights:  WeightsFrom(cfg.Weights),
		decay:    InverseHop,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// channelResult collects the hits of a group of channels and the channels that failed.
type channelResult struct {
	hits   []ChannelHit
	failed []models.Channel
	err    error
}

// Search validates query, runs all channels and returns merged, ranked results.
// A failing store makes the response partial; if nothing was produced the store
// channels are retried once before ErrSystemUnavailable is returned.
func (r *HybridRetriever) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if query == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, models.ErrEmptyQuery)
	}
	if err := query.Validate(r.cfg.DefaultLimit, r.cfg.MaxLimit); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	threshold := r.cfg.SimilarityThreshold
	if query.Threshold != nil {
		threshold = *query.Threshold
	}
	terms := keyword.ExtractTerms(query.Query, r.cfg.MaxTerms)

	var storeRes, semanticRes channelResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		storeRes = r.storeChannels(gctx, terms)
		return ctx.Err()
	})
	g.Go(func() error {
		semanticRes = r.semanticChannel(gctx, query.Query, threshold)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if storeRes.err != nil && len(storeRes.hits) == 0 && len(semanticRes.hits) == 0 {
		r.logger.Warn("store unavailable and no semantic results, retrying",
			zap.Duration("backoff", r.cfg.RetryBackoff), zap.Error(storeRes.err))
		if err := sleep(ctx, r.cfg.RetryBackoff); err != nil {
			return nil, err
		}
		storeRes = r.storeChannels(ctx, terms)
		if storeRes.err != nil && len(storeRes.hits) == 0 {
			return nil, fmt.Errorf("%w: %w", ErrSystemUnavailable, storeRes.err)
		}
	}

	hits := append(storeRes.hits, semanticRes.hits...)
	results := Merge(hits, r.weights, query.Limit)

	resp := &models.SearchResponse{
		Query:     query.Query,
		Results:   results,
		Partial:   len(storeRes.failed) > 0,
		Degraded:  append(storeRes.failed, semanticRes.failed...),
		QueryTime: time.Since(startTime),
	}
	r.logger.Debug("search completed",
		zap.String("query", query.Query),
		zap.Strings("terms", terms),
		zap.Int("hits", len(hits)),
		zap.Int("results", len(results)),
		zap.Bool("partial", resp.Partial),
		zap.Duration("took", resp.QueryTime))
	return resp, nil
}

// storeChannels runs keyword lookup and then graph expansion seeded by its hits.
func (r *HybridRetriever) storeChannels(ctx context.Context, terms []string) channelResult {
	var res channelResult
	if r.store == nil {
		return res
	}
	if len(terms) == 0 {
		// Nothing to look up, but an unreachable store must still be reported.
		pctx, cancel := r.channelContext(ctx)
		err := r.store.Ping(pctx)
		cancel()
		if err != nil {
			res.err = fmt.Errorf("%w: ping: %w", ErrChannelUnavailable, err)
			res.failed = []models.Channel{models.ChannelKeyword, models.ChannelGraph}
			r.logger.Warn("store unreachable", zap.Error(err))
		}
		return res
	}

	kctx, cancel := r.channelContext(ctx)
	matches, err := r.store.SearchArticles(kctx, terms, r.cfg.KeywordLimit)
	cancel()
	if err != nil {
		res.err = fmt.Errorf("%w: keyword: %w", ErrChannelUnavailable, err)
		res.failed = []models.Channel{models.ChannelKeyword, models.ChannelGraph}
		r.logger.Warn("keyword channel failed", zap.Strings("terms", terms), zap.Error(err))
		return res
	}
	res.hits = scoreKeyword(matches)
	if len(matches) == 0 {
		return res
	}

	seeds := make([]models.ArticleKey, 0, len(matches))
	for _, m := range matches {
		if m.Article != nil {
			seeds = append(seeds, m.Article.Key())
		}
	}
	gctx, cancel := r.channelContext(ctx)
	neighbors, err := r.store.RelatedArticles(gctx, seeds, r.cfg.GraphDepth, r.cfg.GraphNodeLimit)
	cancel()
	if err != nil {
		res.err = fmt.Errorf("%w: graph: %w", ErrChannelUnavailable, err)
		res.failed = []models.Channel{models.ChannelGraph}
		r.logger.Warn("graph channel failed", zap.Int("seeds", len(seeds)), zap.Error(err))
		return res
	}
	res.hits = append(res.hits, scoreGraph(neighbors, r.decay)...)
	return res
}

// semanticChannel embeds the query and looks it up in the vector index. Any failure
// skips the channel.
func (r *HybridRetriever) semanticChannel(ctx context.Context, text string, threshold float64) channelResult {
	var res channelResult
	if r.embedder == nil || r.vectors == nil || r.articles == nil || r.vectors.Size() == 0 {
		return res
	}
	skip := func(stage string, err error) channelResult {
		r.logger.Info("semantic channel skipped", zap.String("stage", stage), zap.Error(err))
		return channelResult{
			failed: []models.Channel{models.ChannelSemantic},
			err:    fmt.Errorf("%w: semantic %s: %w", ErrChannelUnavailable, stage, err),
		}
	}

	cctx, cancel := r.channelContext(ctx)
	defer cancel()

	vec, err := r.embedder.Embed(cctx, text)
	if err != nil {
		return skip("embed", err)
	}
	found, err := r.vectors.Search(cctx, vec, r.cfg.SemanticTopK, threshold)
	if err != nil {
		return skip("vector search", err)
	}
	if len(found) == 0 {
		return res
	}
	keys := make([]models.ArticleKey, 0, len(found))
	for _, f := range found {
		if k, err := models.ParseArticleID(f.ID); err == nil {
			keys = append(keys, k)
		}
	}
	articles, err := r.articles.GetArticles(cctx, keys)
	if err != nil {
		return skip("article lookup", err)
	}
	res.hits = scoreSemantic(found, articles, threshold)
	return res
}

func (r *HybridRetriever) channelContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.ChannelTimeout > 0 {
		return context.WithTimeout(ctx, r.cfg.ChannelTimeout)
	}
	return context.WithCancel(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsUnavailable reports whether err means the search system cannot serve requests.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrSystemUnavailable)
}
