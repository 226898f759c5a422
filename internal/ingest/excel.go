package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/jeongbi/internal/models"
)

// Workbook sheets and the header names accepted for each column. The first row of a
// sheet is its header; columns may appear in any order.
const (
	sheetLaws      = "laws"
	sheetArticles  = "articles"
	sheetRelations = "relations"
)

var columnAliases = map[string][]string{
	"name":           {"name", "법령명"},
	"category":       {"category", "구분"},
	"effective_date": {"effective_date", "시행일"},
	"status":         {"status", "상태"},
	"law_name":       {"law_name", "법령명"},
	"article_number": {"article_number", "조문번호"},
	"title":          {"title", "조문제목"},
	"content":        {"content", "조문내용"},
	"section":        {"section", "장"},
	"last_amended":   {"last_amended", "개정일"},
	"from_law":       {"from_law"},
	"from_article":   {"from_article"},
	"to_law":         {"to_law"},
	"to_article":     {"to_article"},
	"type":           {"type", "관계"},
}

type sheetRows struct {
	columns map[string]int
	rows    [][]string
}

func (s *sheetRows) get(row []string, column string) string {
	i, ok := s.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func decodeExcel(content []byte) (*Corpus, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := make(map[string]*sheetRows)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		sheets[strings.ToLower(strings.TrimSpace(sheet))] = &sheetRows{columns: headerIndex(rows[0]), rows: rows[1:]}
	}

	articles, ok := sheets[sheetArticles]
	if !ok {
		return nil, fmt.Errorf("workbook has no %q sheet", sheetArticles)
	}

	c := &Corpus{}
	if laws, ok := sheets[sheetLaws]; ok {
		for i, row := range laws.rows {
			name := laws.get(row, "name")
			if name == "" {
				continue
			}
			eff, err := ParseDate(laws.get(row, "effective_date"))
			if err != nil {
				return nil, fmt.Errorf("sheet %s row %d: %w", sheetLaws, i+2, err)
			}
			c.Laws = append(c.Laws, &models.Law{
				Name:          name,
				Category:      laws.get(row, "category"),
				EffectiveDate: eff,
				Status:        models.LawStatus(laws.get(row, "status")),
			})
		}
	}

	for i, row := range articles.rows {
		if articles.get(row, "article_number") == "" && articles.get(row, "content") == "" {
			continue
		}
		amended, err := ParseDate(articles.get(row, "last_amended"))
		if err != nil {
			return nil, fmt.Errorf("sheet %s row %d: %w", sheetArticles, i+2, err)
		}
		c.Articles = append(c.Articles, &models.Article{
			LawName:       articles.get(row, "law_name"),
			ArticleNumber: articles.get(row, "article_number"),
			Title:         articles.get(row, "title"),
			Content:       articles.get(row, "content"),
			Section:       articles.get(row, "section"),
			LastAmended:   amended,
		})
	}

	if rels, ok := sheets[sheetRelations]; ok {
		for _, row := range rels.rows {
			fromArticle, toArticle := rels.get(row, "from_article"), rels.get(row, "to_article")
			if fromArticle == "" || toArticle == "" {
				continue
			}
			toLaw := rels.get(row, "to_law")
			fromLaw := rels.get(row, "from_law")
			if toLaw == "" {
				toLaw = fromLaw
			}
			c.Relations = append(c.Relations, models.Relation{
				From: models.ArticleKey{LawName: fromLaw, ArticleNumber: fromArticle},
				To:   models.ArticleKey{LawName: toLaw, ArticleNumber: toArticle},
				Type: models.RelationType(strings.ToUpper(rels.get(row, "type"))),
			})
		}
	}
	return c, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for column, aliases := range columnAliases {
			if _, done := idx[column]; done {
				continue
			}
			for _, a := range aliases {
				if h == a {
					idx[column] = i
				}
			}
		}
	}
	return idx
}
