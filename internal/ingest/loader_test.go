package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/jeongbi/internal/models"
)

const sampleJSON = `{
  "laws": [{"name": "도시 및 주거환경정비법", "category": "법률", "effective_date": "2024.01.09", "status": "active"}],
  "articles": [
    {"law_name": "도시 및 주거환경정비법", "article_number": "제24조", "title": "주거환경개선사업의 시행자", "content": "주거환경개선사업은 시장·군수등이 직접 시행한다.", "section": "제2장"},
    {"law_name": "도시 및 주거환경정비법", "article_number": "제35조", "title": "조합설립인가 등", "content": "제24조에 따른 시행자가 아닌 자는 조합을 설립하여야 한다."}
  ],
  "relations": [
    {"from": {"law_name": "도시 및 주거환경정비법", "article_number": "제35조"}, "to": {"law_name": "도시 및 주거환경정비법", "article_number": "제24조"}, "type": "REFERENCES"}
  ]
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "articles"))
	articles := [][]any{
		{"법령명", "조문번호", "조문제목", "조문내용", "개정일"},
		{"도시 및 주거환경정비법", "제25조", "재개발사업의 시행자", "재개발사업은 조합이 시행한다.", "2023-07-18"},
		{"", "", "", "", ""},
		{"도시 및 주거환경정비법", "제26조", "", "재건축사업의 시행자", ""},
	}
	for i, row := range articles {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("articles", cell, &row))
	}

	_, err := f.NewSheet("relations")
	require.NoError(t, err)
	relations := [][]any{
		{"from_law", "from_article", "to_article", "type"},
		{"도시 및 주거환경정비법", "제26조", "제25조", "applies_to"},
	}
	for i, row := range relations {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("relations", cell, &row))
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, f.SaveAs(path))
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	writeFile(t, path, sampleJSON)

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, c.Laws, 1)
	assert.Equal(t, 2024, c.Laws[0].EffectiveDate.Year())
	require.Len(t, c.Articles, 2)
	assert.Equal(t, "제2장", c.Articles[0].Section)
	require.Len(t, c.Relations, 1)
	assert.Equal(t, models.RelReferences, c.Relations[0].Type)
}

func TestLoadFile_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.xlsx")
	writeWorkbook(t, path)

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, c.Articles, 2)
	assert.Equal(t, "제25조", c.Articles[0].ArticleNumber)
	assert.Equal(t, "재개발사업은 조합이 시행한다.", c.Articles[0].Content)
	assert.Equal(t, 2023, c.Articles[0].LastAmended.Year())
	require.Len(t, c.Relations, 1)
	rel := c.Relations[0]
	assert.Equal(t, "도시 및 주거환경정비법", rel.To.LawName)
	assert.Equal(t, models.RelAppliesTo, rel.Type)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "corpus.txt")
	writeFile(t, txt, "제1조")
	_, err = LoadFile(txt)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{"articles": [`)
	_, err = LoadFile(bad)
	assert.Error(t, err)

	badDate := filepath.Join(dir, "date.json")
	writeFile(t, badDate, `{"laws": [{"name": "x", "effective_date": "yesterday"}]}`)
	_, err = LoadFile(badDate)
	assert.Error(t, err)
}

func TestLoadFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "corpus.json"), sampleJSON)
	writeWorkbook(t, filepath.Join(dir, "b", "more.xlsx"))
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "~$more.xlsx"), "lock file")

	c, files, err := LoadFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Len(t, c.Articles, 4)
	assert.Len(t, c.Relations, 2)
	assert.Len(t, c.Laws, 1)
}

func TestLoadFiles_Empty(t *testing.T) {
	_, _, err := LoadFiles(t.TempDir())
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("corpus.JSON"))
	assert.True(t, Supported("/data/법령.xlsx"))
	assert.False(t, Supported("corpus.pdf"))
	assert.False(t, Supported("~$corpus.xlsx"))
}
