package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/jeongbi/internal/ingest"
	"github.com/hyperjump/jeongbi/internal/models"
)

func sampleReply() *models.SearchReply {
	return &models.SearchReply{
		Query:       "조합설립인가 절차",
		ResultCount: 1,
		SearchTime:  "0.042초",
		Partial:     true,
		Results: []models.SearchReplyResult{{
			Rank:          1,
			ArticleNumber: "제35조",
			LawName:       "도시 및 주거환경정비법",
			Title:         "조합설립인가 등",
			Content:       "토지등소유자의 4분의 3 이상의 동의를 받아야 한다.",
			Score:         0.91,
			Confidence:    models.ConfidenceVeryHigh,
			Channels:      []models.Channel{models.ChannelKeyword, models.ChannelSemantic},
		}},
	}
}

func TestWriteSearchReply_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchReply(&buf, sampleReply(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchReply(json): %v", err)
	}
	var decoded models.SearchReply
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "조합설립인가 절차" || len(decoded.Results) != 1 || decoded.Results[0].ArticleNumber != "제35조" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteSearchReply_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchReply(&buf, sampleReply(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"1. 도시 및 주거환경정비법 제35조 (조합설립인가 등)", "매우 높음", "keyword+semantic", "0.042초", "불완전"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteAskReply_Text(t *testing.T) {
	reply := &models.AskReply{
		Query:           "조합설립 동의 요건은?",
		Answer:          "제35조에 따라 4분의 3 이상의 동의가 필요합니다.",
		Confidence:      0.91,
		ConfidenceLabel: models.ConfidenceVeryHigh,
		Citations: []models.Citation{
			{Rank: 1, LawName: "도시 및 주거환경정비법", ArticleNumber: "제35조", Preview: "토지등소유자의...", Score: 0.91, Cited: true},
		},
		Related:    []string{"도시 및 주거환경정비법 제36조"},
		SearchTime: "0.300초",
	}
	var buf bytes.Buffer
	if err := WriteAskReply(&buf, reply, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"4분의 3", "* 1. 도시 및 주거환경정비법 제35조", "관련 조문: 도시 및 주거환경정비법 제36조"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteStats_Text(t *testing.T) {
	reply := &models.StatsReply{
		SystemStats: models.SystemStats{
			GraphStats:   map[string]int64{"Law": 1, "Article": 6},
			Catalog:      models.CatalogStats{Laws: 1, Articles: 6, Relations: 2},
			SearchEngine: "hybrid",
		},
		SessionStats: models.SessionStats{QueryCount: 3, SessionDuration: "0:01:05"},
	}
	var buf bytes.Buffer
	if err := WriteStats(&buf, reply, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "articles:           6") || !strings.Contains(out, "session_duration:   0:01:05") {
		t.Errorf("unexpected stats output:\n%s", out)
	}
	if strings.Index(out, "Article:") > strings.Index(out, "Law:") {
		t.Errorf("graph labels should be sorted:\n%s", out)
	}
}

func TestWriteReport_Text(t *testing.T) {
	report := &ingest.Report{
		Files: []string{"corpus.json"}, Laws: 1, Articles: 3, Relations: 2, Derived: 1,
		Embedded: 3, Warnings: []string{"quota exceeded"}, Duration: 1500 * time.Millisecond,
	}
	var buf bytes.Buffer
	if err := WriteReport(&buf, report, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"loaded corpus.json", "3 articles", "warning: quota exceeded", "took 1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
