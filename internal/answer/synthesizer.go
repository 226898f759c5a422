package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/jeongbi/internal/config"
	"github.com/hyperjump/jeongbi/internal/models"
	"github.com/hyperjump/jeongbi/pkg/utils"
)

// NoResultsText is returned without calling the LLM when retrieval found nothing.
const NoResultsText = "죄송합니다. 질문과 관련된 법령 조문을 찾지 못했습니다. 법령명이나 조문 번호, 핵심 용어를 넣어 다시 질문해 주세요."

// DegradedText opens an answer served without generation.
const DegradedText = "현재 답변을 생성할 수 없습니다. 검색된 관련 조문을 참고해 주세요."

// ArticleLookup resolves article keys; used to keep only related articles that exist.
type ArticleLookup interface {
	GetArticles(ctx context.Context, keys []models.ArticleKey) (map[models.ArticleKey]*models.Article, error)
}

// Synthesizer builds answers from ranked search results.
type Synthesizer struct {
	llm    LLM
	cfg    *config.AnswerConfig
	lookup ArticleLookup
	logger *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithArticleLookup filters related-article recommendations to articles that exist.
func WithArticleLookup(l ArticleLookup) Option {
	return func(s *Synthesizer) {
		s.lookup = l
	}
}

// NewSynthesizer creates a synthesizer. A nil llm serves every answer degraded.
func NewSynthesizer(llm LLM, cfg *config.AnswerConfig, opts ...Option) *Synthesizer {
	s := &Synthesizer{llm: llm, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize answers question from results, which must be in rank order. Generation
// failures are absorbed into a degraded answer; the only error returned is the
// caller's context error.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, results []*models.SearchResult) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if len(results) == 0 {
		return &models.Answer{
			Question:        question,
			Text:            NoResultsText,
			ConfidenceLabel: models.ConfidenceLow,
			Citations:       []models.Citation{},
		}, nil
	}

	top := results
	if s.cfg.TopK > 0 && len(top) > s.cfg.TopK {
		top = top[:s.cfg.TopK]
	}
	prompt, included := BuildPrompt(question, top, s.cfg.MaxPromptChars)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("answer generation failed, serving citations",
			zap.String("question", question), zap.Int("sources", len(top)), zap.Error(err))
		return s.degraded(ctx, question, top), nil
	}

	ans := &models.Answer{
		Question:  question,
		Text:      text,
		Citations: s.citations(included, text),
	}
	for _, c := range ans.Citations {
		if c.Cited {
			ans.Confidence = c.Score
			break
		}
	}
	ans.ConfidenceLabel = models.ConfidenceFor(ans.Confidence)
	ans.Related = s.related(ctx, included)
	s.logger.Debug("answer generated",
		zap.Int("sources", len(included)),
		zap.Float64("confidence", ans.Confidence),
		zap.Int("prompt_runes", utils.RuneLen(prompt)))
	return ans, nil
}

func (s *Synthesizer) generate(ctx context.Context, prompt string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: no generative model configured", ErrSynthesisFailure)
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	text, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailure, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrSynthesisFailure)
	}
	return text, nil
}

func (s *Synthesizer) degraded(ctx context.Context, question string, top []*models.SearchResult) *models.Answer {
	citations := s.citations(top, "")
	var sb strings.Builder
	sb.WriteString(DegradedText)
	for _, c := range citations {
		fmt.Fprintf(&sb, "\n%d. %s %s: %s", c.Rank, c.LawName, c.ArticleNumber, c.Preview)
	}
	score := top[0].Score
	return &models.Answer{
		Question:        question,
		Text:            sb.String(),
		Confidence:      score,
		ConfidenceLabel: models.ConfidenceFor(score),
		Degraded:        true,
		Citations:       citations,
		Related:         s.related(ctx, top),
	}
}

func (s *Synthesizer) citations(results []*models.SearchResult, text string) []models.Citation {
	out := make([]models.Citation, 0, len(results))
	for _, r := range results {
		out = append(out, models.Citation{
			Rank:          r.Rank,
			LawName:       r.Article.LawName,
			ArticleNumber: r.Article.ArticleNumber,
			Section:       r.Article.Section,
			Preview:       utils.Truncate(r.Article.Content, s.cfg.PreviewChars),
			Score:         r.Score,
			Confidence:    r.Confidence,
			Cited:         text != "" && citesArticle(text, r.Article.ArticleNumber),
		})
	}
	return out
}

func (s *Synthesizer) related(ctx context.Context, sources []*models.SearchResult) []string {
	keys := relatedArticles(sources)
	if len(keys) == 0 {
		return nil
	}
	if s.lookup != nil {
		found, err := s.lookup.GetArticles(ctx, keys)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Debug("related article lookup failed", zap.Error(err))
			}
		} else {
			kept := keys[:0]
			for _, k := range keys {
				if _, ok := found[k]; ok {
					kept = append(kept, k)
				}
			}
			keys = kept
		}
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
