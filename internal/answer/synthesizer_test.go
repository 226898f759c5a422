package answer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/jeongbi/internal/config"
	"github.com/hyperjump/jeongbi/internal/models"
)

const testLaw = "도시 및 주거환경정비법"

func testConfig() *config.AnswerConfig {
	return &config.AnswerConfig{TopK: 5, MaxPromptChars: 6000, Timeout: time.Second, PreviewChars: 100}
}

func result(rank int, num, content string, score float64) *models.SearchResult {
	return &models.SearchResult{
		Article:    &models.Article{LawName: testLaw, ArticleNumber: num, Content: content},
		Score:      score,
		Confidence: models.ConfidenceFor(score),
		Rank:       rank,
	}
}

func sampleResults() []*models.SearchResult {
	return []*models.SearchResult{
		result(1, "제35조", "조합을 설립하려면 토지등소유자의 4분의 3 이상의 동의를 받아 제36조에 따라 인가를 받아야 한다.", 0.92),
		result(2, "제36조", "같은 법 제35조에 따른 동의는 서면으로 한다. 이 법 제37조를 준용한다.", 0.71),
		result(3, "제24조의2", "추진위원회는 제31조에 따라 구성한다.", 0.45),
	}
}

func TestSynthesize_NoResults(t *testing.T) {
	llm := NewMockLLM("unused")
	s := NewSynthesizer(llm, testConfig())
	ans, err := s.Synthesize(context.Background(), "재건축 절차", nil)
	require.NoError(t, err)
	assert.Equal(t, NoResultsText, ans.Text)
	assert.Zero(t, ans.Confidence)
	assert.Equal(t, models.ConfidenceLow, ans.ConfidenceLabel)
	assert.Empty(t, ans.Citations)
	assert.Zero(t, llm.Calls())
}

func TestSynthesize_ConfidenceFromTopCited(t *testing.T) {
	llm := NewMockLLM("도시 및 주거환경정비법 제36조에 따르면 동의는 서면으로 합니다.")
	s := NewSynthesizer(llm, testConfig())
	ans, err := s.Synthesize(context.Background(), "동의 방법은?", sampleResults())
	require.NoError(t, err)

	assert.False(t, ans.Degraded)
	assert.Equal(t, 1, llm.Calls())
	assert.Equal(t, 0.71, ans.Confidence, "score of the top-ranked result actually cited")
	assert.Equal(t, models.ConfidenceHigh, ans.ConfidenceLabel)
	require.Len(t, ans.Citations, 3)
	assert.False(t, ans.Citations[0].Cited)
	assert.True(t, ans.Citations[1].Cited)
	assert.False(t, ans.Citations[2].Cited)
}

func TestSynthesize_NothingCited(t *testing.T) {
	s := NewSynthesizer(NewMockLLM("관련 규정을 확인하기 어렵습니다."), testConfig())
	ans, err := s.Synthesize(context.Background(), "질문", sampleResults())
	require.NoError(t, err)
	assert.Zero(t, ans.Confidence)
	assert.Equal(t, models.ConfidenceLow, ans.ConfidenceLabel)
}

func TestSynthesize_PromptContents(t *testing.T) {
	llm := NewMockLLM("제35조 참조")
	s := NewSynthesizer(llm, testConfig())
	_, err := s.Synthesize(context.Background(), "  조합 설립 요건은?  ", sampleResults())
	require.NoError(t, err)

	prompt := llm.LastPrompt()
	assert.Contains(t, prompt, "질문: 조합 설립 요건은?")
	assert.Contains(t, prompt, "["+testLaw+" 제35조]")
	assert.Contains(t, prompt, "["+testLaw+" 제24조의2]")
	assert.Contains(t, prompt, "당신은 도시정비사업 법령 전문가입니다.")
}

func TestSynthesize_TopK(t *testing.T) {
	cfg := testConfig()
	cfg.TopK = 2
	llm := NewMockLLM("제35조")
	ans, err := NewSynthesizer(llm, cfg).Synthesize(context.Background(), "q", sampleResults())
	require.NoError(t, err)
	assert.Len(t, ans.Citations, 2)
	assert.NotContains(t, llm.LastPrompt(), "제24조의2]")
}

func TestSynthesize_LLMFailureDegrades(t *testing.T) {
	llm := NewMockLLM("")
	llm.SetError(errors.New("quota exceeded"))
	s := NewSynthesizer(llm, testConfig())
	ans, err := s.Synthesize(context.Background(), "조합 설립", sampleResults())
	require.NoError(t, err)

	assert.True(t, ans.Degraded)
	assert.True(t, strings.HasPrefix(ans.Text, DegradedText))
	require.Len(t, ans.Citations, 3)
	assert.Equal(t, "제35조", ans.Citations[0].ArticleNumber)
	assert.Equal(t, 0.92, ans.Confidence)
	assert.Equal(t, models.ConfidenceVeryHigh, ans.ConfidenceLabel)
}

func TestSynthesize_Timeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	llm := NewMockLLM("late")
	llm.SetDelay(time.Second)
	ans, err := NewSynthesizer(llm, cfg).Synthesize(context.Background(), "q", sampleResults())
	require.NoError(t, err)
	assert.True(t, ans.Degraded)
}

func TestSynthesize_NilLLM(t *testing.T) {
	ans, err := NewSynthesizer(nil, testConfig()).Synthesize(context.Background(), "q", sampleResults())
	require.NoError(t, err)
	assert.True(t, ans.Degraded)
}

func TestSynthesize_CallerCancelled(t *testing.T) {
	llm := NewMockLLM("x")
	llm.SetDelay(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSynthesizer(llm, testConfig()).Synthesize(ctx, "q", sampleResults())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthesize_PreviewLength(t *testing.T) {
	long := strings.Repeat("가", 150)
	s := NewSynthesizer(NewMockLLM("제1조"), testConfig())
	ans, err := s.Synthesize(context.Background(), "q", []*models.SearchResult{result(1, "제1조", long, 0.5)})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("가", 100)+"...", ans.Citations[0].Preview)
}

type lookupStub map[models.ArticleKey]*models.Article

func (l lookupStub) GetArticles(_ context.Context, keys []models.ArticleKey) (map[models.ArticleKey]*models.Article, error) {
	out := make(map[models.ArticleKey]*models.Article)
	for _, k := range keys {
		if a, ok := l[k]; ok {
			out[k] = a
		}
	}
	return out, nil
}

func TestSynthesize_RelatedArticles(t *testing.T) {
	s := NewSynthesizer(NewMockLLM("제35조"), testConfig())
	ans, err := s.Synthesize(context.Background(), "q", sampleResults())
	require.NoError(t, err)
	// 제36조 and 제35조 are sources themselves.
	assert.Equal(t, []string{testLaw + " 제37조", testLaw + " 제31조"}, ans.Related)

	k37 := models.ArticleKey{LawName: testLaw, ArticleNumber: "제37조"}
	filtered := NewSynthesizer(NewMockLLM("제35조"), testConfig(),
		WithArticleLookup(lookupStub{k37: {LawName: testLaw, ArticleNumber: "제37조"}}))
	ans, err = filtered.Synthesize(context.Background(), "q", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, []string{testLaw + " 제37조"}, ans.Related)
}
