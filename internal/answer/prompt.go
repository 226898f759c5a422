package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/jeongbi/internal/models"
)

const promptTemplate = `당신은 도시정비사업 법령 전문가입니다.
주어진 법령 조문들을 바탕으로 정확하고 신뢰할 수 있는 답변을 제공해주세요.

관련 법령 조문:
%s

질문: %s

답변 지침:
1. 반드시 제공된 법령 조문에 근거하여 답변하세요
2. 조문 번호와 법령명을 명시하여 출처를 분명히 하세요
3. 법령 해석은 보수적으로 접근하고, 불확실한 부분은 명시하세요
4. 실무적 조언보다는 법령 내용 자체에 집중하세요
5. 관련 조문들 간의 연관성도 설명해주세요

답변:`

func contextEntry(r *models.SearchResult) string {
	return fmt.Sprintf("[%s]\n%s", r.Article.Key(), r.Article.Content)
}

func render(question string, entries []string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(entries, "\n\n"), question)
}

// BuildPrompt renders the prompt for question over results, which must be in rank
// order. While the prompt exceeds maxChars runes the lowest-ranked entry is dropped;
// if the top entry alone is still too long its content is cut to fit. It returns the
// prompt and the results it includes. maxChars <= 0 disables the cap.
func BuildPrompt(question string, results []*models.SearchResult, maxChars int) (string, []*models.SearchResult) {
	entries := make([]string, len(results))
	for i, r := range results {
		entries[i] = contextEntry(r)
	}
	included := results
	prompt := render(question, entries)
	if maxChars <= 0 {
		return prompt, included
	}
	for len(entries) > 1 && utf8.RuneCountInString(prompt) > maxChars {
		entries = entries[:len(entries)-1]
		included = included[:len(included)-1]
		prompt = render(question, entries)
	}
	if len(entries) == 1 {
		if over := utf8.RuneCountInString(prompt) - maxChars; over > 0 {
			top := included[0]
			keep := utf8.RuneCountInString(top.Article.Content) - over
			if keep < 0 {
				keep = 0
			}
			content := []rune(top.Article.Content)
			entries[0] = fmt.Sprintf("[%s]\n%s", top.Article.Key(), string(content[:keep]))
			prompt = render(question, entries)
		}
	}
	return prompt, included
}
