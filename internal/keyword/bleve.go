package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/jeongbi/internal/models"
)

// articleDoc is the indexed shape of an article. Grams holds rune bigrams of the title
// and content so that a term matches inside longer Hangul words.
type articleDoc struct {
	LawName       string `json:"law_name"`
	ArticleNumber string `json:"article_number"`
	Section       string `json:"section"`
	Grams         string `json:"grams"`
}

const gramAnalyzer = "rune_bigram"

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path creates an
// in-memory index. If you change the mapping, remove the index directory to rebuild it.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im, err := newArticleMapping()
	if err != nil {
		return nil, err
	}

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// newArticleMapping indexes the bigram field with a whitespace analyzer; law name,
// article number and section are exact keyword fields.
func newArticleMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(gramAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     whitespace.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	gramFieldMapping := bleve.NewTextFieldMapping()
	gramFieldMapping.Analyzer = gramAnalyzer
	gramFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("grams", gramFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("law_name", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("article_number", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("section", keywordFieldMapping)
	im.AddDocumentMapping("article", docMapping)
	im.DefaultType = "article"
	im.DefaultMapping = docMapping
	return im, nil
}

// Bigrams renders text as space-separated rune bigrams per whitespace word.
// One-rune words are kept as they are.
func Bigrams(text string) string {
	var b strings.Builder
	for _, word := range strings.Fields(strings.ToLower(text)) {
		runes := []rune(word)
		if len(runes) == 1 {
			b.WriteString(word)
			b.WriteByte(' ')
			continue
		}
		for i := 0; i+1 < len(runes); i++ {
			b.WriteString(string(runes[i : i+2]))
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// IndexArticle indexes an article under its key id, replacing any previous version.
func (b *BleveIndex) IndexArticle(ctx context.Context, a *models.Article) error {
	doc := articleDoc{
		LawName:       a.LawName,
		ArticleNumber: a.ArticleNumber,
		Section:       a.Section,
		Grams:         Bigrams(a.Title) + "\n" + Bigrams(a.Content),
	}
	if err := b.index.Index(a.Key().ID(), doc); err != nil {
		return fmt.Errorf("index %s: %w", a.Key(), err)
	}
	return nil
}

// Search runs one bigram phrase query per term, then multiplies each
// hit's score by the squared share of terms it matched so articles covering more of
// the query rank higher than partial matches.
func (b *BleveIndex) Search(ctx context.Context, terms []string, limit int) ([]*Result, error) {
	terms = dedupeTerms(terms)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	reqSize := limit * 2
	if reqSize < 50 {
		reqSize = 50
	}

	perTerm := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		perTerm = append(perTerm, termQuery(term))
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(perTerm...))
	req.Size = reqSize
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	coverage := b.termCoverage(ctx, terms, reqSize)

	out := make([]*Result, 0, len(results.Hits))
	for _, hit := range results.Hits {
		key, err := models.ParseArticleID(hit.ID)
		if err != nil {
			continue
		}
		matched := coverage[hit.ID]
		if matched == 0 {
			matched = 1
		}
		share := float64(matched) / float64(len(terms))
		out = append(out, &Result{Key: key, Score: hit.Score * share * share, Matched: matched})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key.Less(out[j].Key)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func termQuery(term string) blevequery.Query {
	q := bleve.NewMatchPhraseQuery(Bigrams(term))
	q.SetField("grams")
	return q
}

// termCoverage counts how many distinct terms each article matches.
func (b *BleveIndex) termCoverage(ctx context.Context, terms []string, reqSize int) map[string]int {
	coverage := make(map[string]int)
	for _, term := range terms {
		req := bleve.NewSearchRequest(termQuery(term))
		req.Size = reqSize
		results, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			continue
		}
		for _, hit := range results.Hits {
			coverage[hit.ID]++
		}
	}
	return coverage
}

// Delete removes an article from the index.
func (b *BleveIndex) Delete(ctx context.Context, key models.ArticleKey) error {
	return b.index.Delete(key.ID())
}

// DocCount returns the total number of articles in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

func dedupeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
