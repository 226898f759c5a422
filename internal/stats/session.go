// Package stats holds process-wide session counters.
package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Session counts queries since process start. Create one at startup and pass it to
// whatever serves queries.
type Session struct {
	start   time.Time
	queries atomic.Int64
	now     func() time.Time
}

// NewSession starts a session clock at the current time.
func NewSession() *Session {
	return &Session{start: time.Now(), now: time.Now}
}

// RecordQuery increments the query counter and returns the new count.
func (s *Session) RecordQuery() int64 {
	return s.queries.Add(1)
}

// QueryCount returns the number of queries recorded.
func (s *Session) QueryCount() int64 {
	return s.queries.Load()
}

// StartedAt returns when the session began.
func (s *Session) StartedAt() time.Time {
	return s.start
}

// Uptime returns the time elapsed since the session began.
func (s *Session) Uptime() time.Duration {
	return s.now().Sub(s.start)
}

// Snapshot is a point-in-time copy of the session counters.
type Snapshot struct {
	QueryCount      int64  `json:"query_count"`
	SessionDuration string `json:"session_duration"`
}

// Snapshot returns the current counters with the uptime formatted as H:MM:SS.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{QueryCount: s.QueryCount(), SessionDuration: FormatDuration(s.Uptime())}
}

// FormatDuration renders d as H:MM:SS, truncating fractional seconds. Hours are not
// wrapped at 24.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
