package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from the given .env files (default ".env") into the process
// environment without overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with values from environment variables that are set.
// Numeric variables that fail to parse are reported as errors.
func ApplyEnv(cfg *Config) error {
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setString(&cfg.Server.Host, "SERVER_HOST")
	if err := setInt(&cfg.Server.Port, "SERVER_PORT"); err != nil {
		return err
	}

	setString(&cfg.Graph.Backend, "GRAPH_BACKEND")
	setString(&cfg.Graph.URI, "NEO4J_URI")
	setString(&cfg.Graph.Username, "NEO4J_USERNAME")
	setString(&cfg.Graph.Username, "NEO4J_USER")
	setString(&cfg.Graph.Password, "NEO4J_PASSWORD")
	setString(&cfg.Graph.Database, "NEO4J_DATABASE")

	setString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.Embedding.ModelPath, "EMBEDDING_MODEL_PATH")
	if err := setInt(&cfg.Embedding.BatchSize, "EMBEDDING_BATCH_SIZE"); err != nil {
		return err
	}

	setString(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	setString(&cfg.LLM.APIKey, "GOOGLE_API_KEY")
	setString(&cfg.LLM.Model, "GEMINI_MODEL")

	if err := setInt(&cfg.Ingest.ChunkSize, "CHUNK_SIZE"); err != nil {
		return err
	}
	if err := setInt(&cfg.Ingest.ChunkOverlap, "CHUNK_OVERLAP"); err != nil {
		return err
	}
	if err := setFloat(&cfg.Search.SimilarityThreshold, "SIMILARITY_THRESHOLD"); err != nil {
		return err
	}
	if err := setInt(&cfg.Search.DefaultLimit, "MAX_RESULTS"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Answer.Timeout, "LLM_TIMEOUT"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
