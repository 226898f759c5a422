package models

import (
	"fmt"
	"time"

	"github.com/hyperjump/jeongbi/pkg/utils"
)

// SearchReply is the wire form of a search response.
type SearchReply struct {
	Query       string              `json:"query"`
	Results     []SearchReplyResult `json:"results"`
	ResultCount int                 `json:"result_count"`
	SearchTime  string              `json:"search_time"`
	Partial     bool                `json:"partial"`
}

// SearchReplyResult is one ranked article with a content preview.
type SearchReplyResult struct {
	Rank          int        `json:"rank"`
	ArticleNumber string     `json:"article_number"`
	LawName       string     `json:"law_name"`
	Title         string     `json:"title,omitempty"`
	Section       string     `json:"section,omitempty"`
	Content       string     `json:"content"`
	Score         float64    `json:"score"`
	Confidence    Confidence `json:"confidence"`
	Channels      []Channel  `json:"channels"`
}

// AskReply is the wire form of an answer.
type AskReply struct {
	Query           string     `json:"query"`
	Answer          string     `json:"answer"`
	Confidence      float64    `json:"confidence"`
	ConfidenceLabel Confidence `json:"confidence_label"`
	Degraded        bool       `json:"degraded"`
	Partial         bool       `json:"partial"`
	Citations       []Citation `json:"citations"`
	Related         []string   `json:"related_articles"`
	SearchTime      string     `json:"search_time"`
}

// NewSearchReply converts resp, cutting article content to previewRunes runes.
func NewSearchReply(resp *SearchResponse, previewRunes int) *SearchReply {
	out := &SearchReply{
		Query:       resp.Query,
		Results:     make([]SearchReplyResult, 0, len(resp.Results)),
		ResultCount: len(resp.Results),
		SearchTime:  FormatSearchTime(resp.QueryTime),
		Partial:     resp.Partial,
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, SearchReplyResult{
			Rank:          r.Rank,
			ArticleNumber: r.Article.ArticleNumber,
			LawName:       r.Article.LawName,
			Title:         r.Article.Title,
			Section:       r.Article.Section,
			Content:       utils.Truncate(r.Article.Content, previewRunes),
			Score:         r.Score,
			Confidence:    r.Confidence,
			Channels:      r.Channels,
		})
	}
	return out
}

// NewAskReply converts ans. took is the time spent retrieving and answering.
func NewAskReply(ans *Answer, partial bool, took time.Duration) *AskReply {
	related := ans.Related
	if related == nil {
		related = []string{}
	}
	citations := ans.Citations
	if citations == nil {
		citations = []Citation{}
	}
	return &AskReply{
		Query:           ans.Question,
		Answer:          ans.Text,
		Confidence:      ans.Confidence,
		ConfidenceLabel: ans.ConfidenceLabel,
		Degraded:        ans.Degraded,
		Partial:         partial,
		Citations:       citations,
		Related:         related,
		SearchTime:      FormatSearchTime(took),
	}
}

// FormatSearchTime renders d in seconds with millisecond precision, e.g. "0.123초".
func FormatSearchTime(d time.Duration) string {
	return fmt.Sprintf("%.3f초", d.Seconds())
}

// StatsReply is the wire form of the stats endpoint.
type StatsReply struct {
	SystemStats  SystemStats  `json:"system_stats"`
	SessionStats SessionStats `json:"session_stats"`
}

// SystemStats describes the loaded corpus and the search backends.
type SystemStats struct {
	GraphStats      map[string]int64 `json:"graph_stats"`
	Catalog         CatalogStats     `json:"catalog"`
	VectorIndexSize int              `json:"vector_index_size"`
	Embedding       EmbeddingStats   `json:"embedding_stats"`
	SearchEngine    string           `json:"search_engine"`
	Disk            DiskUsage        `json:"disk_usage"`
}

// DiskUsage is the on-disk size of the catalog and the derived indices.
type DiskUsage struct {
	CatalogBytes      int64 `json:"catalog_bytes"`
	KeywordIndexBytes int64 `json:"keyword_index_bytes"`
	VectorIndexBytes  int64 `json:"vector_index_bytes"`
	TotalBytes        int64 `json:"total_bytes"`
}

// CatalogStats counts the records in the article catalog.
type CatalogStats struct {
	Laws      int64 `json:"laws"`
	Articles  int64 `json:"articles"`
	Relations int64 `json:"relations"`
}

// EmbeddingStats describes the embedder and its cache.
type EmbeddingStats struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Dimensions  int     `json:"dimensions"`
	CacheHits   uint64  `json:"cache_hits"`
	CacheMisses uint64  `json:"cache_misses"`
	CacheSize   int     `json:"cache_size"`
	HitRate     float64 `json:"cache_hit_rate"`
}

// SessionStats counts queries since the server started.
type SessionStats struct {
	QueryCount      int64  `json:"query_count"`
	SessionDuration string `json:"session_duration"`
}
