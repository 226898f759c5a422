package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/jeongbi/internal/models"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func seedArticles(t *testing.T, idx *BleveIndex, articles ...*models.Article) {
	t.Helper()
	for _, a := range articles {
		if err := idx.IndexArticle(context.Background(), a); err != nil {
			t.Fatalf("IndexArticle: %v", err)
		}
	}
}

func TestBleveIndex_SearchMatchesInsideWords(t *testing.T) {
	idx := newTestIndex(t)
	a1 := &models.Article{
		LawName:       "도시 및 주거환경정비법",
		ArticleNumber: "제24조",
		Content:       "추진위원회는 조합설립인가를 받으려는 때에는 토지등소유자의 동의를 받아야 한다.",
	}
	a2 := &models.Article{
		LawName:       "도시 및 주거환경정비법",
		ArticleNumber: "제50조",
		Content:       "사업시행자는 사업시행계획인가를 받아야 한다.",
	}
	seedArticles(t, idx, a1, a2)

	results, err := idx.Search(context.Background(), []string{"조합설립인가"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Key != a1.Key() {
		t.Errorf("first result = %v, want %v", results[0].Key, a1.Key())
	}
	if results[0].Matched != 1 {
		t.Errorf("matched = %d, want 1", results[0].Matched)
	}
}

func TestBleveIndex_SearchPrefersCoverage(t *testing.T) {
	idx := newTestIndex(t)
	both := &models.Article{LawName: "빈집 및 소규모주택 정비에 관한 특례법", ArticleNumber: "제2조", Content: "빈집 정비사업"}
	one := &models.Article{LawName: "빈집 및 소규모주택 정비에 관한 특례법", ArticleNumber: "제3조", Content: "빈집 실태조사"}
	seedArticles(t, idx, both, one)

	results, err := idx.Search(context.Background(), []string{"빈집", "정비사업"}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Key != both.Key() {
		t.Errorf("article matching both terms should rank first, got %v", results[0].Key)
	}
	if results[0].Matched != 2 || results[1].Matched != 1 {
		t.Errorf("matched = %d/%d, want 2/1", results[0].Matched, results[1].Matched)
	}
}

func TestBleveIndex_DeleteAndCount(t *testing.T) {
	idx := newTestIndex(t)
	a := &models.Article{LawName: "도시정비법", ArticleNumber: "제1조", Content: "목적"}
	seedArticles(t, idx, a)
	if n, _ := idx.DocCount(); n != 1 {
		t.Fatalf("DocCount = %d, want 1", n)
	}
	if err := idx.Delete(context.Background(), a.Key()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := idx.DocCount(); n != 0 {
		t.Errorf("DocCount after delete = %d, want 0", n)
	}
}

func TestBleveIndex_EmptyTerms(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), nil, 10)
	if err != nil || results != nil {
		t.Errorf("Search(nil) = %v, %v; want nil, nil", results, err)
	}
}

func TestBleveIndex_ReopenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	idx1, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	a := &models.Article{LawName: "도시정비법", ArticleNumber: "제35조", Content: "조합설립인가 동의 요건"}
	if err := idx1.IndexArticle(context.Background(), a); err != nil {
		t.Fatalf("IndexArticle: %v", err)
	}
	if err := idx1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx2, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("NewBleveIndex (reopen): %v", err)
	}
	defer func() { _ = idx2.Close() }()
	results, err := idx2.Search(context.Background(), []string{"동의"}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Key != a.Key() {
		t.Errorf("reopened index results = %v", results)
	}
}

func TestBigrams(t *testing.T) {
	tests := []struct{ in, want string }{
		{"조합설립인가", "조합 합설 설립 립인 인가"},
		{"제 24조", "제 24 4조"},
		{"", ""},
		{"AB", "ab"},
	}
	for _, tt := range tests {
		if got := Bigrams(tt.in); got != tt.want {
			t.Errorf("Bigrams(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
