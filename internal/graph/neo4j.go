package graph

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hyperjump/jeongbi/internal/models"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4jConfig holds connection settings for Neo4jStore.
type Neo4jConfig struct {
	URI                   string
	Username              string
	Password              string
	Database              string
	MaxConnectionPoolSize int
	ConnectTimeout        time.Duration
	QueryTimeout          time.Duration
	MaxRetries            int
}

// Validate checks required fields.
func (c Neo4jConfig) Validate() error {
	if c.URI == "" {
		return errors.New("neo4j uri is required")
	}
	if c.Username == "" {
		return errors.New("neo4j username is required")
	}
	return nil
}

// Neo4jStore implements Store over a Neo4j database using read transactions only.
type Neo4jStore struct {
	config Neo4jConfig
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// Neo4jOption configures a Neo4jStore.
type Neo4jOption func(*Neo4jStore)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Neo4jOption {
	return func(s *Neo4jStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewNeo4jStore connects to Neo4j, retrying with exponential backoff.
func NewNeo4jStore(ctx context.Context, cfg Neo4jConfig, opts ...Neo4jOption) (*Neo4jStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	s := &Neo4jStore{config: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driverConfig := func(c *neo4j.Config) {
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		c.ConnectionAcquisitionTimeout = cfg.ConnectTimeout
		c.SocketConnectTimeout = cfg.ConnectTimeout
	}

	baseDelay := 100 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, driverConfig)
		if err == nil {
			err = driver.VerifyConnectivity(ctx)
			if err == nil {
				s.driver = driver
				s.logger.Info("connected to neo4j", zap.String("uri", cfg.URI), zap.String("database", cfg.Database))
				return s, nil
			}
			_ = driver.Close(ctx)
		}
		lastErr = err
		s.logger.Warn("neo4j connect failed", zap.Int("attempt", attempt+1), zap.Error(err))

		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.ConnectTimeout {
			delay = cfg.ConnectTimeout
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: connect cancelled: %w", ErrUnavailable, ctx.Err())
		}
	}
	return nil, fmt.Errorf("%w: failed to connect after %d attempts: %w", ErrUnavailable, cfg.MaxRetries, lastErr)
}

// SearchArticles returns articles containing any term. Score is the share of terms matched.
func (s *Neo4jStore) SearchArticles(ctx context.Context, terms []string, limit int) ([]Match, error) {
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	records, err := s.read(ctx, searchArticlesQuery, map[string]any{
		"terms": terms,
		"limit": int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	matches := make([]Match, 0, len(records))
	for _, rec := range records {
		matched := int(asInt64(rec["matched"]))
		matches = append(matches, Match{
			Article: articleFromRecord(rec),
			Score:   float64(matched) / float64(len(terms)),
			Matched: matched,
		})
	}
	return matches, nil
}

// RelatedArticles expands seeds over article relationships up to depth hops.
func (s *Neo4jStore) RelatedArticles(ctx context.Context, seeds []models.ArticleKey, depth, limit int) ([]Neighbor, error) {
	if len(seeds) == 0 || depth <= 0 || limit <= 0 {
		return nil, nil
	}
	seedParams := make([]map[string]any, len(seeds))
	for i, k := range seeds {
		seedParams[i] = map[string]any{"law_name": k.LawName, "article_number": k.ArticleNumber}
	}
	records, err := s.read(ctx, relatedArticlesQuery(depth), map[string]any{
		"seeds": seedParams,
		"limit": int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("related articles: %w", err)
	}
	neighbors := make([]Neighbor, 0, len(records))
	for _, rec := range records {
		neighbors = append(neighbors, Neighbor{
			Article: articleFromRecord(rec),
			Hops:    int(asInt64(rec["hops"])),
		})
	}
	return neighbors, nil
}

// LabelCounts returns node counts per label.
func (s *Neo4jStore) LabelCounts(ctx context.Context) (map[string]int64, error) {
	records, err := s.read(ctx, labelCountsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("label counts: %w", err)
	}
	counts := make(map[string]int64, len(records))
	for _, rec := range records {
		counts[asString(rec["label"])] = asInt64(rec["count"])
	}
	return counts, nil
}

// Ping verifies connectivity.
func (s *Neo4jStore) Ping(ctx context.Context) error {
	if s.driver == nil {
		return fmt.Errorf("%w: driver not connected", ErrUnavailable)
	}
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close closes the driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	return err
}

// read runs cypher in a read transaction and returns the records as maps.
func (s *Neo4jStore) read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if s.driver == nil {
		return nil, fmt.Errorf("%w: driver not connected", ErrUnavailable)
	}
	if s.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.QueryTimeout)
		defer cancel()
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.config.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	start := time.Now()
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return recordsToMaps(records), nil
	})
	if err != nil {
		if neo4j.IsConnectivityError(err) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, err
	}
	rows := result.([]map[string]any)
	s.logger.Debug("neo4j read",
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)))
	return rows, nil
}

func recordsToMaps(records []*neo4j.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = record.Values[i]
		}
		out = append(out, row)
	}
	return out
}
