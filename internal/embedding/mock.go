package embedding

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hyperjump/jeongbi/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests. Each text maps to a
// bag of hashed sub-word pieces, so texts sharing vocabulary are close in
// cosine space and identical texts always get the same embedding.
type MockEmbedder struct {
	dimensions int
	calls      atomic.Int64

	mu  sync.Mutex
	err error
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// SetError makes every subsequent call fail with err. Pass nil to recover.
func (e *MockEmbedder) SetError(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

// Calls returns the number of Embed and EmbedBatch invocations.
func (e *MockEmbedder) Calls() int {
	return int(e.calls.Load())
}

func (e *MockEmbedder) failure() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Embed returns a deterministic embedding for text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if err := e.failure(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

// EmbedBatch embeds every text in order.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if err := e.failure(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *MockEmbedder) vector(text string) []float32 {
	emb := make([]float32, e.dimensions)
	pieces := Pieces(text)
	if len(pieces) == 0 {
		emb[0] = 1
		return emb
	}
	for _, p := range pieces {
		emb[HashString(p)%e.dimensions] += 1
	}
	utils.NormalizeL2(emb)
	return emb
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
