package answer

import (
	"context"
	"sync"
	"time"
)

// MockLLM is an LLM for tests. It returns a fixed response or error, optionally after
// a delay, and records every prompt.
type MockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	delay    time.Duration
	prompts  []string
}

// NewMockLLM returns a mock that answers with response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{response: response}
}

// SetError makes subsequent calls fail with err.
func (m *MockLLM) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// SetDelay makes subsequent calls wait d or until the context is done.
func (m *MockLLM) SetDelay(d time.Duration) {
	m.mu.Lock()
	m.delay = d
	m.mu.Unlock()
}

// Generate records prompt and returns the configured response.
func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	resp, err, delay := m.response, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	if err != nil {
		return "", err
	}
	return resp, nil
}

// Calls returns how many times Generate was called.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// LastPrompt returns the most recent prompt, or "".
func (m *MockLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
