// Package config provides configuration loading and structs for the jeongbi server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment modes.
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool            `yaml:"debug"`
	Environment string          `yaml:"environment"`
	LogLevel    string          `yaml:"log_level"`
	Server      ServerConfig    `yaml:"server"`
	Storage     StorageConfig   `yaml:"storage"`
	Graph       GraphConfig     `yaml:"graph"`
	Embedding   EmbeddingConfig `yaml:"embedding"`
	LLM         LLMConfig       `yaml:"llm"`
	Search      SearchConfig    `yaml:"search"`
	Answer      AnswerConfig    `yaml:"answer"`
	Ingest      IngestConfig    `yaml:"ingest"`
	Watch       WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig holds paths for the article catalog and indices.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
}

// GraphConfig selects and configures the graph store. Backend is "neo4j" or "local";
// the local backend serves the catalog loaded from the corpus files.
type GraphConfig struct {
	Backend               string        `yaml:"backend"`
	URI                   string        `yaml:"uri"`
	Username              string        `yaml:"username"`
	Password              string        `yaml:"password"`
	Database              string        `yaml:"database"`
	MaxConnectionPoolSize int           `yaml:"max_connection_pool_size"`
	ConnectTimeout        time.Duration `yaml:"connect_timeout"`
	QueryTimeout          time.Duration `yaml:"query_timeout"`
}

// EmbeddingConfig holds embedder settings. Provider is "gemini", "onnx", or "mock".
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	BatchSize  int    `yaml:"batch_size"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig holds generative model settings. An empty APIKey disables generation
// and every answer is served degraded.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// WeightsConfig holds per-channel merge weights.
type WeightsConfig struct {
	Keyword  float64 `yaml:"keyword"`
	Graph    float64 `yaml:"graph"`
	Semantic float64 `yaml:"semantic"`
}

// SearchConfig holds hybrid retrieval settings.
type SearchConfig struct {
	DefaultLimit        int           `yaml:"default_limit"`
	MaxLimit            int           `yaml:"max_limit"`
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	MaxTerms            int           `yaml:"max_terms"`
	KeywordLimit        int           `yaml:"keyword_limit"`
	GraphDepth          int           `yaml:"graph_depth"`
	GraphNodeLimit      int           `yaml:"graph_node_limit"`
	SemanticTopK        int           `yaml:"semantic_top_k"`
	ChannelTimeout      time.Duration `yaml:"channel_timeout"`
	RetryBackoff        time.Duration `yaml:"retry_backoff"`
	Weights             WeightsConfig `yaml:"weights"`
}

// AnswerConfig holds answer synthesis settings.
type AnswerConfig struct {
	TopK           int           `yaml:"top_k"`
	MaxPromptChars int           `yaml:"max_prompt_chars"`
	Timeout        time.Duration `yaml:"timeout"`
	PreviewChars   int           `yaml:"preview_chars"`
}

// IngestConfig holds corpus loading settings.
type IngestConfig struct {
	CorpusPaths  []string `yaml:"corpus_paths"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// WatchConfig controls reloading of corpus files when they change.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a config with every default applied, for running without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, applies environment overrides and
// defaults, expands paths, and validates the result.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	for i := range cfg.Ingest.CorpusPaths {
		cfg.Ingest.CorpusPaths[i] = expandPath(cfg.Ingest.CorpusPaths[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds a config from defaults and environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DebugEnabled reports whether debug logging should be on: explicitly, via LOG_LEVEL,
// or by running in development mode.
func (c *Config) DebugEnabled() bool {
	return c.Debug || strings.EqualFold(c.LogLevel, "debug") || c.Environment == EnvDevelopment
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
