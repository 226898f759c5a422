package graph

import (
	"time"

	"github.com/hyperjump/jeongbi/internal/models"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// articleFromRecord maps the shared article columns of a query row.
func articleFromRecord(rec map[string]any) *models.Article {
	return &models.Article{
		LawName:       asString(rec["law_name"]),
		ArticleNumber: asString(rec["article_number"]),
		Title:         asString(rec["title"]),
		Content:       asString(rec["content"]),
		Section:       asString(rec["section"]),
		LastAmended:   asTime(rec["last_amended"]),
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// asTime accepts Neo4j dates, native times, and ISO date strings.
func asTime(v any) time.Time {
	switch t := v.(type) {
	case dbtype.Date:
		return t.Time()
	case dbtype.LocalDateTime:
		return t.Time()
	case time.Time:
		return t
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006.01.02", "20060102"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
