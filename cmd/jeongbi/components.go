package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/hyperjump/jeongbi/internal/answer"
	"github.com/hyperjump/jeongbi/internal/config"
	"github.com/hyperjump/jeongbi/internal/embedding"
	"github.com/hyperjump/jeongbi/internal/graph"
	"github.com/hyperjump/jeongbi/internal/ingest"
	"github.com/hyperjump/jeongbi/internal/keyword"
	"github.com/hyperjump/jeongbi/internal/retrieval"
	"github.com/hyperjump/jeongbi/internal/server"
	"github.com/hyperjump/jeongbi/internal/stats"
	"github.com/hyperjump/jeongbi/internal/storage"
	"github.com/hyperjump/jeongbi/internal/vector"
)

// Components holds initialized services.
type Components struct {
	Storage     storage.Storage
	Graph       graph.Store
	Local       *graph.MemoryStore
	Embedder    embedding.Embedder
	VectorIndex vector.Index
	Indexer     *ingest.Indexer
	Retriever   *retrieval.HybridRetriever
	Synthesizer *answer.Synthesizer
	Session     *stats.Session

	genai *genai.Client
}

// Close releases every component. The vector index is saved by the indexer after
// each load, so nothing is flushed here.
func (c *Components) Close() {
	ctx := context.Background()
	if c.Graph != nil {
		_ = c.Graph.Close(ctx)
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.genai != nil {
		_ = c.genai.Close()
	}
}

// ServerComponents adapts c for the HTTP server.
func (c *Components) ServerComponents() server.Components {
	return server.Components{
		Retriever:   c.Retriever,
		Synthesizer: c.Synthesizer,
		Graph:       c.Graph,
		Storage:     c.Storage,
		Vectors:     c.VectorIndex,
		Embedder:    c.Embedder,
		Session:     c.Session,
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{Session: stats.NewSession()}
	ready := false
	defer func() {
		if !ready {
			c.Close()
		}
	}()

	var err error
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	c.Storage, err = storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if cfg.LLM.APIKey != "" {
		c.genai, err = genai.NewClient(ctx, option.WithAPIKey(cfg.LLM.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
	}

	if err := c.initGraph(ctx, cfg, logger); err != nil {
		return nil, err
	}

	inner, err := newEmbedder(cfg, c.genai, logger)
	if err != nil {
		return nil, err
	}
	c.Embedder = embedding.NewCachedEmbedder(inner, cfg.Embedding.CacheSize)

	memIndex, err := vector.NewMemoryIndex(c.Embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	c.VectorIndex = memIndex

	idxOpts := []ingest.IndexerOption{
		ingest.WithLogger(logger),
		ingest.WithVectors(c.Embedder, c.VectorIndex, cfg.Storage.VectorIndexPath),
		ingest.WithBatchSize(cfg.Embedding.BatchSize),
		ingest.WithDerivedReferences(true),
	}
	if c.Local != nil {
		idxOpts = append(idxOpts, ingest.WithLocalGraph(c.Local))
	}
	c.Indexer = ingest.NewIndexer(c.Storage, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap, idxOpts...)

	report, err := c.Indexer.Restore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore indices: %w", err)
	}
	logger.Info("indices restored",
		zap.Int("articles", report.Articles),
		zap.Int("vectors", c.VectorIndex.Size()),
		zap.Int("embedded", report.Embedded))

	c.Retriever = retrieval.NewHybridRetriever(c.Graph, c.Embedder, c.VectorIndex, c.Storage, &cfg.Search,
		retrieval.WithLogger(logger))

	var llm answer.LLM
	if c.genai != nil {
		gl, err := answer.NewGeminiLLM(c.genai, cfg.LLM.Model, cfg.LLM.Temperature)
		if err != nil {
			return nil, err
		}
		llm = gl
	} else {
		logger.Warn("no LLM API key configured; answers will list matching articles only")
	}
	c.Synthesizer = answer.NewSynthesizer(llm, &cfg.Answer,
		answer.WithLogger(logger),
		answer.WithArticleLookup(c.Storage))
	ready = true
	return c, nil
}

// initGraph connects to Neo4j, or builds the in-process store over the catalog for the
// local backend. A Neo4j connection failure falls back to the local store.
func (c *Components) initGraph(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Graph.Backend == "neo4j" {
		store, err := graph.NewNeo4jStore(ctx, graph.Neo4jConfig{
			URI:                   cfg.Graph.URI,
			Username:              cfg.Graph.Username,
			Password:              cfg.Graph.Password,
			Database:              cfg.Graph.Database,
			MaxConnectionPoolSize: cfg.Graph.MaxConnectionPoolSize,
			ConnectTimeout:        cfg.Graph.ConnectTimeout,
			QueryTimeout:          cfg.Graph.QueryTimeout,
		}, graph.WithLogger(logger))
		if err == nil {
			c.Graph = store
			return nil
		}
		if !errors.Is(err, graph.ErrUnavailable) {
			return fmt.Errorf("failed to configure neo4j: %w", err)
		}
		logger.Warn("neo4j unavailable; serving the local catalog graph", zap.Error(err))
	}

	kw, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	c.Local = graph.NewMemoryStore(kw)
	c.Graph = c.Local
	return nil
}

func newEmbedder(cfg *config.Config, client *genai.Client, logger *zap.Logger) (embedding.Embedder, error) {
	ec := cfg.Embedding
	switch ec.Provider {
	case "gemini":
		if client == nil {
			logger.Warn("gemini embeddings need an API key; using the hashing embedder")
			return embedding.NewMockEmbedder(ec.Dimensions), nil
		}
		return embedding.NewGeminiEmbedder(client, ec.Model, ec.Dimensions, ec.BatchSize)
	case "onnx":
		e, err := embedding.NewONNXEmbedder(embedding.ONNXConfig{
			ModelPath:  ec.ModelPath,
			Dimensions: ec.Dimensions,
			MaxTokens:  ec.MaxTokens,
		})
		if err != nil {
			logger.Warn("onnx embedder unavailable; using the hashing embedder", zap.Error(err))
			return embedding.NewMockEmbedder(ec.Dimensions), nil
		}
		return e, nil
	case "mock":
		return embedding.NewMockEmbedder(ec.Dimensions), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q", ec.Provider)
}
