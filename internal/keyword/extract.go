package keyword

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// LegalVocabulary is the redevelopment vocabulary that is always extracted from a
// query when present, ahead of other words.
var LegalVocabulary = []string{
	"재개발", "재건축", "정비사업", "조합", "현금청산", "소규모", "가로주택",
	"빈집", "특례", "허가", "인가", "분담금", "사업시행자",
}

var (
	hangulRun     = regexp.MustCompile(`[가-힣]{2,}`)
	articleNumber = regexp.MustCompile(`제\d+조(의\d+)?`)
)

// ExtractTerms returns up to max search terms for query: article numbers such as
// 제24조, vocabulary hits, Hangul words of two or more syllables, and vocabulary
// corrections for words one syllable away from a vocabulary term (제개발 to 재개발).
// When the query has no Hangul, whitespace-separated words of two or more runes are used.
func ExtractTerms(query string, max int) []string {
	if max <= 0 {
		max = 5
	}
	var terms []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	for _, n := range articleNumber.FindAllString(query, -1) {
		add(n)
	}
	for _, v := range LegalVocabulary {
		if strings.Contains(query, v) {
			add(v)
		}
	}
	words := hangulRun.FindAllString(articleNumber.ReplaceAllString(query, " "), -1)
	for _, w := range words {
		add(w)
		if c, ok := correctToVocabulary(w); ok {
			add(c)
		}
	}
	if len(words) == 0 {
		for _, f := range strings.Fields(strings.ToLower(query)) {
			if utf8.RuneCountInString(f) >= 2 {
				add(f)
			}
		}
	}

	if len(terms) > max {
		terms = terms[:max]
	}
	return terms
}

// correctToVocabulary maps a word of three or more syllables to the vocabulary term
// of the same length at edit distance one, if there is exactly one such term.
func correctToVocabulary(word string) (string, bool) {
	n := utf8.RuneCountInString(word)
	if n < 3 {
		return "", false
	}
	match := ""
	for _, v := range LegalVocabulary {
		if utf8.RuneCountInString(v) != n || v == word {
			continue
		}
		if EditDistance(word, v) == 1 {
			if match != "" {
				return "", false
			}
			match = v
		}
	}
	return match, match != ""
}
