// Package cli formats command output for the jeongbi command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/jeongbi/internal/ingest"
	"github.com/hyperjump/jeongbi/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

const rule = "─────────────────────────────────────────────────────────"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchReply writes search results to w in the given format.
func WriteSearchReply(w io.Writer, reply *models.SearchReply, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, reply)
	}
	fmt.Fprintf(w, "\n검색어: %s\n%d건 (%s)\n", reply.Query, reply.ResultCount, reply.SearchTime)
	if reply.Partial {
		fmt.Fprintln(w, "※ 일부 검색 경로를 사용할 수 없어 결과가 불완전할 수 있습니다.")
	}
	fmt.Fprintln(w)
	for _, r := range reply.Results {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%d. %s %s", r.Rank, r.LawName, r.ArticleNumber)
		if r.Title != "" {
			fmt.Fprintf(w, " (%s)", r.Title)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "   점수: %.3f | 신뢰도: %s", r.Score, r.Confidence.Korean())
		if len(r.Channels) > 0 {
			fmt.Fprintf(w, " | 경로: %s", joinChannels(r.Channels))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "\n%s\n\n", r.Content)
	}
	return nil
}

// WriteAskReply writes an answer with its sources.
func WriteAskReply(w io.Writer, reply *models.AskReply, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, reply)
	}
	fmt.Fprintf(w, "\n질문: %s\n\n%s\n\n", reply.Query, reply.Answer)
	fmt.Fprintf(w, "신뢰도: %s (%.3f)", reply.ConfidenceLabel.Korean(), reply.Confidence)
	if reply.Degraded {
		fmt.Fprint(w, " | 답변 생성 실패, 검색 결과만 제공")
	}
	fmt.Fprintf(w, " | %s\n", reply.SearchTime)
	if len(reply.Citations) > 0 {
		fmt.Fprintln(w, "\n참고 조문:")
		for _, c := range reply.Citations {
			mark := " "
			if c.Cited {
				mark = "*"
			}
			fmt.Fprintf(w, "%s %d. %s %s (%.3f)\n     %s\n", mark, c.Rank, c.LawName, c.ArticleNumber, c.Score, c.Preview)
		}
	}
	if len(reply.Related) > 0 {
		fmt.Fprintf(w, "\n관련 조문: %s\n", strings.Join(reply.Related, ", "))
	}
	return nil
}

// WriteStats writes system and session statistics.
func WriteStats(w io.Writer, reply *models.StatsReply, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, reply)
	}
	sys := reply.SystemStats
	fmt.Fprintf(w, "search_engine:      %s\n", sys.SearchEngine)
	fmt.Fprintf(w, "laws:               %d\n", sys.Catalog.Laws)
	fmt.Fprintf(w, "articles:           %d\n", sys.Catalog.Articles)
	fmt.Fprintf(w, "relations:          %d\n", sys.Catalog.Relations)
	fmt.Fprintf(w, "vector_index_size:  %d\n", sys.VectorIndexSize)
	if sys.Disk.TotalBytes > 0 {
		fmt.Fprintf(w, "disk_usage_bytes:   %d (catalog %d, keyword %d, vectors %d)\n",
			sys.Disk.TotalBytes, sys.Disk.CatalogBytes, sys.Disk.KeywordIndexBytes, sys.Disk.VectorIndexBytes)
	}
	labels := make([]string, 0, len(sys.GraphStats))
	for l := range sys.GraphStats {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	if len(labels) > 0 {
		fmt.Fprintln(w, "\n# graph")
		for _, l := range labels {
			fmt.Fprintf(w, "%-19s %d\n", l+":", sys.GraphStats[l])
		}
	}
	fmt.Fprintln(w, "\n# embedding")
	fmt.Fprintf(w, "provider:           %s\n", sys.Embedding.Provider)
	fmt.Fprintf(w, "model:              %s\n", sys.Embedding.Model)
	if sys.Embedding.Dimensions > 0 {
		fmt.Fprintf(w, "dimensions:         %d\n", sys.Embedding.Dimensions)
	}
	fmt.Fprintf(w, "cache_hit_rate:     %.2f\n", sys.Embedding.HitRate)
	fmt.Fprintln(w, "\n# session")
	fmt.Fprintf(w, "query_count:        %d\n", reply.SessionStats.QueryCount)
	fmt.Fprintf(w, "session_duration:   %s\n", reply.SessionStats.SessionDuration)
	return nil
}

// WriteReport writes the outcome of a corpus load.
func WriteReport(w io.Writer, report *ingest.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	for _, f := range report.Files {
		fmt.Fprintf(w, "loaded %s\n", f)
	}
	fmt.Fprintf(w, "%d laws, %d articles, %d relations (%d derived)\n",
		report.Laws, report.Articles, report.Relations, report.Derived)
	fmt.Fprintf(w, "vectors: %d embedded, %d reused, %d removed\n", report.Embedded, report.Reused, report.Removed)
	for _, warn := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	fmt.Fprintf(w, "took %s\n", report.Duration.Round(time.Millisecond))
	return nil
}

func joinChannels(chs []models.Channel) string {
	parts := make([]string, len(chs))
	for i, c := range chs {
		parts[i] = string(c)
	}
	return strings.Join(parts, "+")
}
