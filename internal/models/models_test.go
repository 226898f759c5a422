package models

import "testing"

func TestValidArticleNumber(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"제24조", true},
		{"제1조", true},
		{"제24조의2", true},
		{"제24조의", false},
		{"24조", false},
		{"제조", false},
		{"제24조 ", false},
		{"Article 24", false},
	}
	for _, tt := range tests {
		if got := ValidArticleNumber(tt.in); got != tt.want {
			t.Errorf("ValidArticleNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Confidence
	}{
		{1.0, ConfidenceVeryHigh},
		{0.85, ConfidenceVeryHigh},
		{0.84999, ConfidenceHigh},
		{0.6, ConfidenceHigh},
		{0.59999, ConfidenceMedium},
		{0.4, ConfidenceMedium},
		{0.39999, ConfidenceLow},
		{0, ConfidenceLow},
	}
	for _, tt := range tests {
		if got := ConfidenceFor(tt.score); got != tt.want {
			t.Errorf("ConfidenceFor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestConfidenceAtLeast(t *testing.T) {
	if !ConfidenceVeryHigh.AtLeast(ConfidenceHigh) {
		t.Error("very high should be at least high")
	}
	if ConfidenceMedium.AtLeast(ConfidenceHigh) {
		t.Error("medium should not be at least high")
	}
	if ConfidenceHigh.Korean() != "높음" {
		t.Errorf("Korean() = %q", ConfidenceHigh.Korean())
	}
}

func TestArticleKey(t *testing.T) {
	k := ArticleKey{LawName: "도시 및 주거환경정비법", ArticleNumber: "제24조"}
	parsed, err := ParseArticleID(k.ID())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != k {
		t.Errorf("round trip = %+v, want %+v", parsed, k)
	}
	if _, err := ParseArticleID("no-separator"); err == nil {
		t.Error("expected error for malformed id")
	}
	a := ArticleKey{LawName: "A", ArticleNumber: "제2조"}
	b := ArticleKey{LawName: "A", ArticleNumber: "제3조"}
	c := ArticleKey{LawName: "B", ArticleNumber: "제1조"}
	if !a.Less(b) || !b.Less(c) || c.Less(a) {
		t.Error("unexpected key ordering")
	}
}

func TestArticleValidate(t *testing.T) {
	ok := &Article{LawName: "빈집정비법", ArticleNumber: "제9조", Content: "빈집정비계획"}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid article: %v", err)
	}
	bad := &Article{LawName: "빈집정비법", ArticleNumber: "9", Content: "x"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for malformed number")
	}
	empty := &Article{LawName: "빈집정비법", ArticleNumber: "제9조"}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty content")
	}
}
