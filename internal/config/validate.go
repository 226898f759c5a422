package config

import (
	"errors"
	"fmt"
)

// Validate checks value ranges after defaults have been applied.
func (c *Config) Validate() error {
	var errs []error
	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("environment must be development, testing or production, got %q", c.Environment))
	}
	switch c.Graph.Backend {
	case "neo4j", "local":
	default:
		errs = append(errs, fmt.Errorf("graph.backend must be neo4j or local, got %q", c.Graph.Backend))
	}
	switch c.Embedding.Provider {
	case "gemini", "onnx", "mock":
	default:
		errs = append(errs, fmt.Errorf("embedding.provider must be gemini, onnx or mock, got %q", c.Embedding.Provider))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Search.SimilarityThreshold < 0 || c.Search.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("search.similarity_threshold must be in [0,1], got %v", c.Search.SimilarityThreshold))
	}
	if c.Search.DefaultLimit <= 0 || c.Search.DefaultLimit > c.Search.MaxLimit {
		errs = append(errs, fmt.Errorf("search.default_limit must be in [1,%d], got %d", c.Search.MaxLimit, c.Search.DefaultLimit))
	}
	if c.Search.GraphDepth < 1 || c.Search.GraphNodeLimit < 1 {
		errs = append(errs, errors.New("search.graph_depth and search.graph_node_limit must be positive"))
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest.chunk_overlap must be in [0,%d), got %d", c.Ingest.ChunkSize, c.Ingest.ChunkOverlap))
	}
	if c.Answer.TopK <= 0 || c.Answer.MaxPromptChars <= 0 {
		errs = append(errs, errors.New("answer.top_k and answer.max_prompt_chars must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
