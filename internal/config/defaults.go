package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = EnvProduction
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/jeongbi/data/db/articles.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/jeongbi/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/jeongbi/data/indices/vectors.bin"
	}
	if cfg.Graph.Backend == "" {
		cfg.Graph.Backend = "neo4j"
	}
	if cfg.Graph.URI == "" {
		cfg.Graph.URI = "bolt://localhost:7687"
	}
	if cfg.Graph.Username == "" {
		cfg.Graph.Username = "neo4j"
	}
	if cfg.Graph.Database == "" {
		cfg.Graph.Database = "neo4j"
	}
	if cfg.Graph.MaxConnectionPoolSize == 0 {
		cfg.Graph.MaxConnectionPoolSize = 50
	}
	if cfg.Graph.ConnectTimeout == 0 {
		cfg.Graph.ConnectTimeout = 10 * time.Second
	}
	if cfg.Graph.QueryTimeout == 0 {
		cfg.Graph.QueryTimeout = 5 * time.Second
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "gemini"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-004"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-1.5-flash"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.1
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 50
	}
	if cfg.Search.SimilarityThreshold == 0 {
		cfg.Search.SimilarityThreshold = 0.7
	}
	if cfg.Search.MaxTerms == 0 {
		cfg.Search.MaxTerms = 5
	}
	if cfg.Search.KeywordLimit == 0 {
		cfg.Search.KeywordLimit = 25
	}
	if cfg.Search.GraphDepth == 0 {
		cfg.Search.GraphDepth = 2
	}
	if cfg.Search.GraphNodeLimit == 0 {
		cfg.Search.GraphNodeLimit = 20
	}
	if cfg.Search.SemanticTopK == 0 {
		cfg.Search.SemanticTopK = 50
	}
	if cfg.Search.ChannelTimeout == 0 {
		cfg.Search.ChannelTimeout = 10 * time.Second
	}
	if cfg.Search.RetryBackoff == 0 {
		cfg.Search.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.Search.Weights == (WeightsConfig{}) {
		cfg.Search.Weights = WeightsConfig{Keyword: 1.0, Graph: 0.8, Semantic: 0.9}
	}
	if cfg.Answer.TopK == 0 {
		cfg.Answer.TopK = 5
	}
	if cfg.Answer.MaxPromptChars == 0 {
		cfg.Answer.MaxPromptChars = 6000
	}
	if cfg.Answer.Timeout == 0 {
		cfg.Answer.Timeout = 30 * time.Second
	}
	if cfg.Answer.PreviewChars == 0 {
		cfg.Answer.PreviewChars = 100
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 512
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 50
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}
