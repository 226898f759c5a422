package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// invisible are format characters that statute exports carry between syllables.
var invisible = map[rune]bool{
	'\u200b': true, // zero width space
	'\u200c': true,
	'\u200d': true,
	'\u2060': true, // word joiner
	'\ufeff': true, // BOM
}

// Preprocess normalizes article text for indexing. Hangul is composed to NFC so
// decomposed jamo from some exports match typed queries, invisible characters are
// dropped, and each whitespace run becomes one space, or one newline when the run
// held a line break.
func Preprocess(text string) string {
	text = norm.NFC.String(text)
	var b strings.Builder
	b.Grow(len(text))
	pending := rune(0)
	for _, r := range text {
		if invisible[r] {
			continue
		}
		if unicode.IsSpace(r) {
			if r == '\n' || r == '\r' {
				pending = '\n'
			} else if pending == 0 {
				pending = ' '
			}
			continue
		}
		if pending != 0 && b.Len() > 0 {
			b.WriteRune(pending)
		}
		pending = 0
		b.WriteRune(r)
	}
	return b.String()
}
