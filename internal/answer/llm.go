// Package answer turns retrieved articles and a question into a cited answer.
package answer

import (
	"context"
	"errors"
)

// ErrSynthesisFailure marks a failed or timed-out generation. Synthesize absorbs it
// into a degraded answer.
var ErrSynthesisFailure = errors.New("answer synthesis failed")

// LLM generates text from a prompt.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
