package retrieval

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/hyperjump/jeongbi/internal/graph"
	"github.com/hyperjump/jeongbi/internal/models"
	"github.com/hyperjump/jeongbi/internal/vector"
)

const testLaw = "도시 및 주거환경정비법"

func article(num string) *models.Article {
	return &models.Article{LawName: testLaw, ArticleNumber: num, Content: num + " 내용"}
}

func hit(c models.Channel, num string, score float64) ChannelHit {
	return ChannelHit{Channel: c, Article: article(num), Raw: score, Score: score}
}

func numbers(results []*models.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Article.ArticleNumber
	}
	return out
}

func TestMerge_RanksAndUniqueness(t *testing.T) {
	hits := []ChannelHit{
		hit(models.ChannelKeyword, "제1조", 1.0),
		hit(models.ChannelKeyword, "제2조", 0.5),
		hit(models.ChannelGraph, "제2조", 0.5),
		hit(models.ChannelSemantic, "제3조", 0.75),
		hit(models.ChannelSemantic, "제1조", 0.9),
	}
	results := Merge(hits, DefaultWeights(), 10)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	seen := make(map[models.ArticleKey]bool)
	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, r.Rank)
		}
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("score out of range: %f", r.Score)
		}
		if seen[r.Article.Key()] {
			t.Errorf("duplicate article %s", r.Article.Key())
		}
		seen[r.Article.Key()] = true
	}
	if results[0].Article.ArticleNumber != "제1조" || results[0].Score != 1.0 {
		t.Errorf("top = %s %.3f, want 제1조 1.0 (clamped)", results[0].Article.ArticleNumber, results[0].Score)
	}
	if !reflect.DeepEqual(results[0].Channels, []models.Channel{models.ChannelKeyword, models.ChannelSemantic}) {
		t.Errorf("channels = %v", results[0].Channels)
	}
}

func TestMerge_ChannelCountedOnce(t *testing.T) {
	hits := []ChannelHit{
		hit(models.ChannelKeyword, "제1조", 0.3),
		hit(models.ChannelKeyword, "제1조", 0.5),
		hit(models.ChannelKeyword, "제1조", 0.4),
	}
	results := Merge(hits, DefaultWeights(), 10)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Score != 0.5 {
		t.Errorf("score = %f, want the channel maximum 0.5", results[0].Score)
	}
	if len(results[0].Channels) != 1 {
		t.Errorf("channels = %v", results[0].Channels)
	}
}

func TestMerge_TieBreaks(t *testing.T) {
	hits := []ChannelHit{
		hit(models.ChannelKeyword, "제9조", 0.8),
		hit(models.ChannelKeyword, "제7조", 0.4),
		hit(models.ChannelGraph, "제7조", 0.5),
		hit(models.ChannelKeyword, "제5조", 0.8),
	}
	results := Merge(hits, DefaultWeights(), 10)
	got := numbers(results)
	want := []string{"제7조", "제5조", "제9조"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestMerge_OrderIndependent(t *testing.T) {
	hits := []ChannelHit{
		hit(models.ChannelKeyword, "제1조", 0.9),
		hit(models.ChannelKeyword, "제2조", 0.6),
		hit(models.ChannelGraph, "제3조", 0.5),
		hit(models.ChannelGraph, "제4조", 0.33),
		hit(models.ChannelSemantic, "제2조", 0.71),
		hit(models.ChannelSemantic, "제5조", 0.8),
		hit(models.ChannelSemantic, "제6조", 0.8),
	}
	want := numbers(Merge(hits, DefaultWeights(), 10))
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]ChannelHit(nil), hits...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := numbers(Merge(shuffled, DefaultWeights(), 10)); !reflect.DeepEqual(got, want) {
			t.Fatalf("shuffle %d: order %v, want %v", i, got, want)
		}
	}
}

func TestMerge_Limit(t *testing.T) {
	var hits []ChannelHit
	for _, n := range []string{"제1조", "제2조", "제3조", "제4조"} {
		hits = append(hits, hit(models.ChannelKeyword, n, 0.5))
	}
	results := Merge(hits, DefaultWeights(), 2)
	if len(results) != 2 || results[1].Rank != 2 {
		t.Errorf("limit not applied: %v", numbers(results))
	}
	if Merge(nil, DefaultWeights(), 5) == nil {
		t.Error("empty merge should return an empty, non-nil slice")
	}
}

func TestMerge_ConfidenceBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  models.Confidence
	}{
		{0.85, models.ConfidenceVeryHigh},
		{0.84999, models.ConfidenceHigh},
		{0.6, models.ConfidenceHigh},
		{0.59999, models.ConfidenceMedium},
		{0.4, models.ConfidenceMedium},
		{0.39999, models.ConfidenceLow},
	}
	for _, tt := range tests {
		results := Merge([]ChannelHit{hit(models.ChannelKeyword, "제1조", tt.score)}, DefaultWeights(), 1)
		if results[0].Confidence != tt.want {
			t.Errorf("score %v: confidence %q, want %q", tt.score, results[0].Confidence, tt.want)
		}
	}
}

func TestScoreKeyword(t *testing.T) {
	hits := scoreKeyword([]graph.Match{
		{Article: article("제1조"), Score: 4},
		{Article: article("제2조"), Score: 1},
		{Article: nil, Score: 9},
	})
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Score != 1 || hits[1].Score != 0.25 {
		t.Errorf("scores = %f, %f; want 1, 0.25", hits[0].Score, hits[1].Score)
	}
	if hits[0].Raw != 4 {
		t.Errorf("raw = %f", hits[0].Raw)
	}

	zero := scoreKeyword([]graph.Match{{Article: article("제1조"), Score: 0}})
	if zero[0].Score != 0 {
		t.Errorf("zero max should give zero score, got %f", zero[0].Score)
	}
}

func TestScoreGraph(t *testing.T) {
	hits := scoreGraph([]graph.Neighbor{
		{Article: article("제1조"), Hops: 1},
		{Article: article("제2조"), Hops: 2},
	}, InverseHop)
	if hits[0].Score != 0.5 {
		t.Errorf("hop 1 = %f, want 0.5", hits[0].Score)
	}
	if hits[1].Score < 0.333 || hits[1].Score > 0.334 {
		t.Errorf("hop 2 = %f, want 1/3", hits[1].Score)
	}

	flat := HopDecayFunc(func(int) float64 { return 2 })
	if s := scoreGraph([]graph.Neighbor{{Article: article("제1조"), Hops: 1}}, flat)[0].Score; s != 1 {
		t.Errorf("decay above 1 should clamp, got %f", s)
	}
}

func TestScoreSemantic(t *testing.T) {
	known := map[models.ArticleKey]*models.Article{
		article("제1조").Key(): article("제1조"),
		article("제2조").Key(): article("제2조"),
	}
	hits := scoreSemantic([]*vector.Result{
		{ID: article("제1조").Key().ID(), Score: 0.7},
		{ID: article("제2조").Key().ID(), Score: 0.69},
		{ID: article("제3조").Key().ID(), Score: 0.9},
		{ID: "malformed", Score: 0.9},
	}, known, 0.7)
	if len(hits) != 1 {
		t.Fatalf("expected only the hit at the threshold, got %d", len(hits))
	}
	if hits[0].Article.ArticleNumber != "제1조" || hits[0].Score != 0.7 {
		t.Errorf("hit = %+v", hits[0])
	}
}
