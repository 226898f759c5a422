package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// GeminiLLM generates answers with a Gemini model. The client is owned by the caller.
type GeminiLLM struct {
	model *genai.GenerativeModel
}

// NewGeminiLLM returns an LLM backed by client and the named model.
func NewGeminiLLM(client *genai.Client, model string, temperature float32) (*GeminiLLM, error) {
	if client == nil {
		return nil, errors.New("gemini: nil client")
	}
	if model == "" {
		return nil, errors.New("gemini: model name is required")
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(temperature)
	m.SetCandidateCount(1)
	return &GeminiLLM{model: m}, nil
}

// Generate sends prompt as a single user turn and returns the text of the first candidate.
func (g *GeminiLLM) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("gemini candidate has no content (finish reason %v)", cand.FinishReason)
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("gemini returned empty text")
	}
	return text, nil
}
