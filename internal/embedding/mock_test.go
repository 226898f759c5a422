package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(64)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "재건축 조합설립인가")
	b, _ := e.Embed(ctx, "재건축 조합설립인가")
	if len(a) != 64 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("embedding should be deterministic")
		}
	}
	if n := cosine(a, a); math.Abs(n-1) > 1e-5 {
		t.Errorf("norm^2 = %f, want 1", n)
	}
}

func TestMockEmbedder_SimilarTextsCloser(t *testing.T) {
	e := NewMockEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "조합설립인가 요건")
	near, _ := e.Embed(ctx, "조합설립인가를 받으려면 동의 요건을 갖추어야 한다")
	far, _ := e.Embed(ctx, "공공임대주택 공급 비율")
	if cosine(q, near) <= cosine(q, far) {
		t.Errorf("expected shared vocabulary to score higher: near=%f far=%f", cosine(q, near), cosine(q, far))
	}
}

func TestMockEmbedder_Failure(t *testing.T) {
	e := NewMockEmbedder(8)
	e.SetError(ErrUnavailable)
	if _, err := e.Embed(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if _, err := e.EmbedBatch(context.Background(), []string{"x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("batch err = %v, want ErrUnavailable", err)
	}
	e.SetError(nil)
	if _, err := e.Embed(context.Background(), "x"); err != nil {
		t.Errorf("unexpected error after recovery: %v", err)
	}
	if e.Calls() != 3 {
		t.Errorf("calls = %d, want 3", e.Calls())
	}
}

func TestNewGeminiEmbedder_Validation(t *testing.T) {
	if _, err := NewGeminiEmbedder(nil, "text-embedding-004", 768, 10); err == nil {
		t.Error("expected error for nil client")
	}
}
