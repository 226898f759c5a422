package models

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyQuery is returned when a query is empty after trimming.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery represents a search request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// Threshold overrides the semantic similarity threshold when set.
	Threshold  *float64  `json:"threshold,omitempty"`
	ReceivedAt time.Time `json:"-"`
}

// Validate trims the query, rejects empty input, and applies the default limit
// capped at maxLimit.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if t := q.Threshold; t != nil && !(*t >= 0 && *t <= 1) {
		return errors.New("threshold must be in [0,1]")
	}
	if q.ReceivedAt.IsZero() {
		q.ReceivedAt = time.Now()
	}
	return nil
}
