package answer

import (
	"regexp"
	"strings"

	"github.com/hyperjump/jeongbi/internal/models"
)

// crossRefPattern matches 제N조, 제N조의M and their 같은 법 / 이 법 forms. The
// qualifier only confirms the reference stays within the same law.
var crossRefPattern = regexp.MustCompile(`(?:(?:같은|이)\s*법\s*)?(제\d+조(?:의\d+)?)`)

// CrossReferences returns the distinct article numbers referenced in content, in
// order of first appearance.
func CrossReferences(content string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range crossRefPattern.FindAllStringSubmatch(content, -1) {
		n := m[1]
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// citesArticle reports whether text mentions number as a whole article number, so
// 제24조 is not found inside 제24조의2.
func citesArticle(text, number string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], number)
		if j < 0 {
			return false
		}
		end := i + j + len(number)
		if !strings.HasPrefix(text[end:], "의") || !followedByDigit(text[end+len("의"):]) {
			return true
		}
		i = end
	}
}

func followedByDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// relatedArticles collects references from the top three sources, at most two per
// source and five overall, skipping the sources themselves.
func relatedArticles(sources []*models.SearchResult) []models.ArticleKey {
	const (
		maxSources = 3
		perSource  = 2
		maxRelated = 5
	)
	exclude := make(map[models.ArticleKey]bool, len(sources))
	for _, s := range sources {
		exclude[s.Article.Key()] = true
	}
	var out []models.ArticleKey
	for i, s := range sources {
		if i == maxSources {
			break
		}
		taken := 0
		for _, n := range CrossReferences(s.Article.Content) {
			k := models.ArticleKey{LawName: s.Article.LawName, ArticleNumber: n}
			if exclude[k] {
				continue
			}
			exclude[k] = true
			out = append(out, k)
			taken++
			if taken == perSource || len(out) == maxRelated {
				break
			}
		}
		if len(out) == maxRelated {
			break
		}
	}
	return out
}
