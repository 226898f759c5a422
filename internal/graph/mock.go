package graph

import (
	"context"
	"sync"
	"time"

	"github.com/hyperjump/jeongbi/internal/models"
)

// MockCall represents a recorded method call on the mock store.
type MockCall struct {
	Method    string
	Args      []interface{}
	Timestamp time.Time
}

// MockStore is a Store for tests. It forwards to an optional inner store, can be
// told to fail, and records every call for verification.
type MockStore struct {
	mu    sync.Mutex
	inner Store
	calls []MockCall

	searchErr   error
	searchFails int
	relatedErr  error
	pingErr     error
}

// NewMockStore returns a mock forwarding to inner. A nil inner returns empty results.
func NewMockStore(inner Store) *MockStore {
	return &MockStore{inner: inner}
}

// FailSearch makes the next times SearchArticles calls return err; times < 0 fails every call.
func (m *MockStore) FailSearch(err error, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchErr = err
	m.searchFails = times
}

// FailRelated makes every RelatedArticles call return err.
func (m *MockStore) FailRelated(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relatedErr = err
}

// FailPing makes every Ping call return err.
func (m *MockStore) FailPing(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// Calls returns a copy of the recorded calls.
func (m *MockStore) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was called.
func (m *MockStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// TotalCalls returns the number of recorded calls of any method.
func (m *MockStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockStore) record(method string, args ...interface{}) {
	m.calls = append(m.calls, MockCall{Method: method, Args: args, Timestamp: time.Now()})
}

// SearchArticles records the call and forwards unless a failure is armed.
func (m *MockStore) SearchArticles(ctx context.Context, terms []string, limit int) ([]Match, error) {
	m.mu.Lock()
	m.record("SearchArticles", terms, limit)
	if m.searchErr != nil && m.searchFails != 0 {
		if m.searchFails > 0 {
			m.searchFails--
		}
		err := m.searchErr
		m.mu.Unlock()
		return nil, err
	}
	inner := m.inner
	m.mu.Unlock()
	if inner == nil {
		return nil, nil
	}
	return inner.SearchArticles(ctx, terms, limit)
}

// RelatedArticles records the call and forwards unless a failure is armed.
func (m *MockStore) RelatedArticles(ctx context.Context, seeds []models.ArticleKey, depth, limit int) ([]Neighbor, error) {
	m.mu.Lock()
	m.record("RelatedArticles", seeds, depth, limit)
	err, inner := m.relatedErr, m.inner
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return nil, nil
	}
	return inner.RelatedArticles(ctx, seeds, depth, limit)
}

// LabelCounts records the call and forwards.
func (m *MockStore) LabelCounts(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	m.record("LabelCounts")
	inner := m.inner
	m.mu.Unlock()
	if inner == nil {
		return map[string]int64{}, nil
	}
	return inner.LabelCounts(ctx)
}

// Ping records the call and returns the armed error, if any.
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	m.record("Ping")
	err, inner := m.pingErr, m.inner
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if inner == nil {
		return nil
	}
	return inner.Ping(ctx)
}

// Close records the call and forwards.
func (m *MockStore) Close(ctx context.Context) error {
	m.mu.Lock()
	m.record("Close")
	inner := m.inner
	m.mu.Unlock()
	if inner == nil {
		return nil
	}
	return inner.Close(ctx)
}
