// Package server provides the HTTP API for the legal QA service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/jeongbi/internal/answer"
	"github.com/hyperjump/jeongbi/internal/config"
	"github.com/hyperjump/jeongbi/internal/embedding"
	"github.com/hyperjump/jeongbi/internal/graph"
	"github.com/hyperjump/jeongbi/internal/retrieval"
	"github.com/hyperjump/jeongbi/internal/stats"
	"github.com/hyperjump/jeongbi/internal/storage"
	"github.com/hyperjump/jeongbi/internal/vector"
)

// Components are the services the handlers call. Vectors may be nil when semantic
// search is disabled.
type Components struct {
	Retriever   retrieval.Retriever
	Synthesizer *answer.Synthesizer
	Graph       graph.Store
	Storage     storage.Storage
	Vectors     vector.Index
	Embedder    embedding.Embedder
	Session     *stats.Session
}

// Server is the HTTP server for the QA API.
type Server struct {
	retriever   retrieval.Retriever
	synthesizer *answer.Synthesizer
	graph       graph.Store
	storage     storage.Storage
	vectors     vector.Index
	embedder    embedding.Embedder
	session     *stats.Session
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given components.
func NewServer(c Components, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	session := c.Session
	if session == nil {
		session = stats.NewSession()
	}
	return &Server{
		retriever:   c.Retriever,
		synthesizer: c.Synthesizer,
		graph:       c.Graph,
		storage:     c.Storage,
		vectors:     c.Vectors,
		embedder:    c.Embedder,
		session:     session,
		config:      cfg,
		logger:      logger,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if t := s.config.Server.RequestTimeout; t > 0 {
		r.Use(middleware.Timeout(t))
	}
	r.Use(middleware.Compress(5))

	r.Post("/api/search", s.handleSearch)
	r.Post("/api/ask", s.handleAsk)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/articles/{law}/{number}", s.handleGetArticle)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

const requestIDHeader = "X-Request-ID"

// requestID echoes the caller's request id or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
