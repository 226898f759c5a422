package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// maxGeminiBatch is the upper bound of texts per BatchEmbedContents request.
const maxGeminiBatch = 100

// GeminiEmbedder embeds text with a Gemini embedding model. Queries and
// documents use the retrieval task types so both sides land in the same space.
// The client is owned by the caller.
type GeminiEmbedder struct {
	query      *genai.EmbeddingModel
	document   *genai.EmbeddingModel
	dimensions int
	batchSize  int
}

// NewGeminiEmbedder returns an embedder backed by client and the named model.
func NewGeminiEmbedder(client *genai.Client, model string, dimensions, batchSize int) (*GeminiEmbedder, error) {
	if client == nil {
		return nil, errors.New("gemini: nil client")
	}
	if model == "" {
		return nil, errors.New("gemini: model name is required")
	}
	if batchSize <= 0 || batchSize > maxGeminiBatch {
		batchSize = maxGeminiBatch
	}
	q := client.EmbeddingModel(model)
	q.TaskType = genai.TaskTypeRetrievalQuery
	d := client.EmbeddingModel(model)
	d.TaskType = genai.TaskTypeRetrievalDocument
	return &GeminiEmbedder{query: q, document: d, dimensions: dimensions, batchSize: batchSize}, nil
}

// Embed embeds a query string.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := g.query.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrUnavailable)
	}
	return g.checkDim(res.Embedding.Values)
}

// EmbedBatch embeds document texts, splitting into requests of at most batchSize.
func (g *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))
		b := g.document.NewBatch()
		for _, t := range texts[start:end] {
			b.AddContent(genai.Text(t))
		}
		res, err := g.document.BatchEmbedContents(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrUnavailable, len(res.Embeddings), end-start)
		}
		for _, e := range res.Embeddings {
			v, err := g.checkDim(e.Values)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (g *GeminiEmbedder) checkDim(v []float32) ([]float32, error) {
	if g.dimensions > 0 && len(v) != g.dimensions {
		return nil, fmt.Errorf("gemini: embedding has %d dimensions, configured %d", len(v), g.dimensions)
	}
	return v, nil
}

// Dimensions returns the configured embedding dimension.
func (g *GeminiEmbedder) Dimensions() int {
	return g.dimensions
}

// Close is a no-op; the shared client is closed by its owner.
func (g *GeminiEmbedder) Close() error {
	return nil
}
