package answer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperjump/jeongbi/internal/models"
)

func TestBuildPrompt_DropsLowestRankedFirst(t *testing.T) {
	results := []*models.SearchResult{
		result(1, "제1조", strings.Repeat("가", 300), 0.9),
		result(2, "제2조", strings.Repeat("나", 300), 0.8),
		result(3, "제3조", strings.Repeat("다", 300), 0.7),
	}
	full, all := BuildPrompt("질문", results, 0)
	if len(all) != 3 {
		t.Fatalf("uncapped prompt should include all results, got %d", len(all))
	}

	limit := utf8.RuneCountInString(full) - 100
	prompt, included := BuildPrompt("질문", results, limit)
	if utf8.RuneCountInString(prompt) > limit {
		t.Errorf("prompt has %d runes, cap %d", utf8.RuneCountInString(prompt), limit)
	}
	if len(included) != 2 || included[1].Article.ArticleNumber != "제2조" {
		t.Errorf("expected 제3조 dropped, got %d entries", len(included))
	}
	if strings.Contains(prompt, "다다다") {
		t.Error("dropped entry content still in prompt")
	}
}

func TestBuildPrompt_TruncatesSingleEntry(t *testing.T) {
	results := []*models.SearchResult{result(1, "제1조", strings.Repeat("가", 5000), 0.9)}
	prompt, included := BuildPrompt("질문", results, 1000)
	if len(included) != 1 {
		t.Fatalf("top entry must be kept, got %d", len(included))
	}
	if n := utf8.RuneCountInString(prompt); n != 1000 {
		t.Errorf("prompt has %d runes, want exactly the cap", n)
	}
}

func TestCrossReferences(t *testing.T) {
	tests := []struct {
		content string
		want    []string
	}{
		{"제35조에 따른 동의", []string{"제35조"}},
		{"같은 법 제12조 및 이 법 제7조", []string{"제12조", "제7조"}},
		{"같은법제3조, 제3조, 제24조의2", []string{"제3조", "제24조의2"}},
		{"참조 없음", nil},
	}
	for _, tt := range tests {
		got := CrossReferences(tt.content)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("CrossReferences(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestCitesArticle(t *testing.T) {
	tests := []struct {
		text, number string
		want         bool
	}{
		{"제24조에 따라", "제24조", true},
		{"제24조의2에 따라", "제24조", false},
		{"제24조의2에 따라", "제24조의2", true},
		{"제24조의2 및 제24조의 규정", "제24조", true},
		{"제240조", "제24조", false},
		{"", "제24조", false},
	}
	for _, tt := range tests {
		if got := citesArticle(tt.text, tt.number); got != tt.want {
			t.Errorf("citesArticle(%q, %q) = %v, want %v", tt.text, tt.number, got, tt.want)
		}
	}
}
