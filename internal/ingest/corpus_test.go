package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/jeongbi/internal/models"
)

const lawName = "도시 및 주거환경정비법"

func key(n string) models.ArticleKey {
	return models.ArticleKey{LawName: lawName, ArticleNumber: n}
}

func TestNormalize(t *testing.T) {
	c := &Corpus{
		Articles: []*models.Article{
			{LawName: " " + lawName + " ", ArticleNumber: "제 24 조", Content: "  주거환경개선사업은\n\n시장·군수등이 시행한다.  "},
			{LawName: lawName, ArticleNumber: "제25조", Content: "재개발사업의 시행자"},
		},
		Relations: []models.Relation{
			{From: key("제24조"), To: key("제25조"), Type: models.RelReferences},
			{From: key("제24조"), To: key("제25조"), Type: models.RelReferences},
		},
	}
	require.NoError(t, c.Normalize())

	assert.Equal(t, lawName, c.Articles[0].LawName)
	assert.Equal(t, "제24조", c.Articles[0].ArticleNumber)
	assert.Equal(t, "주거환경개선사업은\n시장·군수등이 시행한다.", c.Articles[0].Content)
	require.Len(t, c.Laws, 1)
	assert.Equal(t, lawName, c.Laws[0].Name)
	assert.Equal(t, models.LawActive, c.Laws[0].Status)
	assert.Len(t, c.Relations, 1)
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name   string
		corpus *Corpus
	}{
		{"duplicate article", &Corpus{Articles: []*models.Article{
			{LawName: lawName, ArticleNumber: "제24조", Content: "a"},
			{LawName: lawName, ArticleNumber: "제24조", Content: "b"},
		}}},
		{"malformed number", &Corpus{Articles: []*models.Article{
			{LawName: lawName, ArticleNumber: "24", Content: "a"},
		}}},
		{"empty content", &Corpus{Articles: []*models.Article{
			{LawName: lawName, ArticleNumber: "제24조", Content: "   "},
		}}},
		{"unknown relation", &Corpus{
			Articles:  []*models.Article{{LawName: lawName, ArticleNumber: "제24조", Content: "a"}},
			Relations: []models.Relation{{From: key("제24조"), To: key("제24조"), Type: "CITES"}},
		}},
		{"empty law name", &Corpus{Laws: []*models.Law{{Name: " "}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.corpus.Normalize())
		})
	}
}

func TestDeriveReferences(t *testing.T) {
	c := &Corpus{
		Articles: []*models.Article{
			{LawName: lawName, ArticleNumber: "제35조", Content: "제24조 및 제25조에 따른 사업시행자는 제99조와 관계없이 제35조를 따른다."},
			{LawName: lawName, ArticleNumber: "제24조", Content: "주거환경개선사업"},
			{LawName: lawName, ArticleNumber: "제25조", Content: "재개발사업"},
		},
		Relations: []models.Relation{
			{From: key("제35조"), To: key("제24조"), Type: models.RelReferences},
		},
	}
	added := c.DeriveReferences()

	assert.Equal(t, 1, added)
	assert.Contains(t, c.Relations, models.Relation{From: key("제35조"), To: key("제25조"), Type: models.RelReferences})
	assert.Len(t, c.Relations, 2)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-01-09", "2024.01.09", "2024.1.9", "2024.1.9.", "20240109", "2024/01/09"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	got, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseDate("9 Jan 2024")
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	a := &Corpus{Laws: []*models.Law{{Name: "a"}}}
	a.Merge(&Corpus{Laws: []*models.Law{{Name: "b"}}, Articles: []*models.Article{{}}})
	assert.Len(t, a.Laws, 2)
	assert.Len(t, a.Articles, 1)
}
