package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/jeongbi/internal/models"
	"github.com/hyperjump/jeongbi/internal/retrieval"
	"github.com/hyperjump/jeongbi/internal/storage"
)

// User-facing error messages.
const (
	msgInvalidBody    = "잘못된 요청 형식입니다."
	msgEmptyQuery     = "검색어를 입력해주세요."
	msgUnavailable    = "검색 시스템을 일시적으로 사용할 수 없습니다. 잠시 후 다시 시도해주세요."
	msgSearchFailed   = "검색 중 오류가 발생했습니다"
	msgStatsFailed    = "통계 조회 오류"
	msgArticleMissing = "조문을 찾을 수 없습니다."

	searchEngineName = "하이브리드 (키워드 + 그래프 + 의미) 검색"
	previewRunes     = 200
)

type searchRequest struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	resp, ok := s.search(w, r, query)
	if !ok {
		return
	}

	out := models.NewSearchReply(resp, previewRunes)
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	start := time.Now()
	resp, ok := s.search(w, r, query)
	if !ok {
		return
	}
	ans, err := s.synthesizer.Synthesize(r.Context(), resp.Query, resp.Results)
	if err != nil {
		s.logger.Warn("answer synthesis aborted", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}
	s.respondJSON(w, http.StatusOK, models.NewAskReply(ans, resp.Partial, time.Since(start)))
}

// decodeQuery parses the request body and rejects blank queries before any
// retrieval channel is called.
func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (*models.SearchQuery, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}
	q := &models.SearchQuery{Query: req.Query, Limit: req.Limit, Threshold: req.Threshold, ReceivedAt: time.Now()}
	if err := q.Validate(s.config.Search.DefaultLimit, s.config.Search.MaxLimit); err != nil {
		msg := msgEmptyQuery
		if !errors.Is(err, models.ErrEmptyQuery) {
			msg = err.Error()
		}
		s.respondError(w, http.StatusBadRequest, msg)
		return nil, false
	}
	return q, true
}

// search runs the retriever, counts the query and records it in the query log. On
// failure the error response has been written.
func (s *Server) search(w http.ResponseWriter, r *http.Request, q *models.SearchQuery) (*models.SearchResponse, bool) {
	s.session.RecordQuery()
	s.logger.Debug("search request", zap.String("query", q.Query), zap.Int("limit", q.Limit))

	resp, err := s.retriever.Search(r.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, retrieval.ErrInvalidQuery):
			s.respondError(w, http.StatusBadRequest, msgEmptyQuery)
		case errors.Is(err, retrieval.ErrSystemUnavailable),
			errors.Is(err, context.DeadlineExceeded),
			errors.Is(err, context.Canceled):
			s.logger.Error("search unavailable", zap.String("query", q.Query), zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, msgUnavailable)
		default:
			s.logger.Error("search failed", zap.String("query", q.Query), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", msgSearchFailed, err))
		}
		return nil, false
	}

	entry := &storage.QueryLogEntry{
		Query:       resp.Query,
		ResultCount: len(resp.Results),
		Partial:     resp.Partial,
		Duration:    resp.QueryTime,
	}
	if err := s.storage.LogQuery(r.Context(), entry); err != nil {
		s.logger.Warn("query log write failed", zap.Error(err))
	}
	return resp, true
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	key := models.ArticleKey{
		LawName:       pathParam(r, "law"),
		ArticleNumber: pathParam(r, "number"),
	}
	if key.LawName == "" || !models.ValidArticleNumber(key.ArticleNumber) {
		s.respondError(w, http.StatusBadRequest, msgArticleMissing)
		return
	}
	article, err := s.storage.GetArticle(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, msgArticleMissing)
			return
		}
		s.logger.Error("article lookup failed", zap.String("article", key.String()), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, article)
}

func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sys, err := s.SystemStats(r.Context())
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, fmt.Sprintf("%s: %v", msgStatsFailed, err))
		return
	}
	snap := s.session.Snapshot()
	s.respondJSON(w, http.StatusOK, models.StatsReply{
		SystemStats: *sys,
		SessionStats: models.SessionStats{
			QueryCount:      snap.QueryCount,
			SessionDuration: snap.SessionDuration,
		},
	})
}

// SystemStats collects graph label counts, catalog counts, index sizes and the
// embedder description.
func (s *Server) SystemStats(ctx context.Context) (*models.SystemStats, error) {
	labels, err := s.graph.LabelCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph label counts: %w", err)
	}
	sys := &models.SystemStats{GraphStats: labels, SearchEngine: searchEngineName}

	counts := []struct {
		dst *int64
		fn  func(context.Context) (int64, error)
	}{
		{&sys.Catalog.Laws, s.storage.CountLaws},
		{&sys.Catalog.Articles, s.storage.CountArticles},
		{&sys.Catalog.Relations, s.storage.CountRelations},
	}
	for _, c := range counts {
		n, err := c.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog count: %w", err)
		}
		*c.dst = n
	}

	if s.vectors != nil {
		sys.VectorIndexSize = s.vectors.Size()
	}
	sys.Embedding.Provider = s.config.Embedding.Provider
	sys.Embedding.Model = s.config.Embedding.Model
	if s.embedder != nil {
		sys.Embedding.Dimensions = s.embedder.Dimensions()
		if c, ok := s.embedder.(interface {
			CacheStats() (uint64, uint64, int)
		}); ok {
			hits, misses, size := c.CacheStats()
			sys.Embedding.CacheHits, sys.Embedding.CacheMisses, sys.Embedding.CacheSize = hits, misses, size
			if total := hits + misses; total > 0 {
				sys.Embedding.HitRate = float64(hits) / float64(total)
			}
		}
	}
	disk, err := storage.MeasureDiskUsage(
		s.config.Storage.DatabasePath,
		s.config.Storage.BleveIndexPath,
		s.config.Storage.VectorIndexPath,
	)
	if err != nil {
		s.logger.Warn("failed to measure disk usage", zap.Error(err))
	}
	sys.Disk = disk
	return sys, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "graph": "ok"}
	if err := s.graph.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["graph"] = "unavailable"
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
