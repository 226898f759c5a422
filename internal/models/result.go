package models

import "time"

// Channel names a retrieval strategy.
type Channel string

const (
	ChannelKeyword  Channel = "keyword"
	ChannelGraph    Channel = "graph"
	ChannelSemantic Channel = "semantic"
)

// Confidence is a discrete bucket of a combined score.
type Confidence string

const (
	ConfidenceVeryHigh Confidence = "very high"
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceLow      Confidence = "low"
)

// ConfidenceFor maps a score to its label. Thresholds are fixed.
func ConfidenceFor(score float64) Confidence {
	switch {
	case score >= 0.85:
		return ConfidenceVeryHigh
	case score >= 0.6:
		return ConfidenceHigh
	case score >= 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Korean returns the label used in Korean-facing output.
func (c Confidence) Korean() string {
	switch c {
	case ConfidenceVeryHigh:
		return "매우 높음"
	case ConfidenceHigh:
		return "높음"
	case ConfidenceMedium:
		return "보통"
	default:
		return "낮음"
	}
}

// AtLeast reports whether c is the same or a stronger bucket than o.
func (c Confidence) AtLeast(o Confidence) bool {
	return c.order() >= o.order()
}

func (c Confidence) order() int {
	switch c {
	case ConfidenceVeryHigh:
		return 3
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// SearchResult is one merged hit. Score is in [0,1]; Rank starts at 1.
type SearchResult struct {
	Article       *Article            `json:"article"`
	Score         float64             `json:"score"`
	Confidence    Confidence          `json:"confidence"`
	Channels      []Channel           `json:"channels"`
	ChannelScores map[Channel]float64 `json:"channel_scores,omitempty"`
	Rank          int                 `json:"rank"`
}

// SearchResponse is the retriever output for one query.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []*SearchResult `json:"results"`
	// Partial is set when a store-backed channel failed and results come from the
	// remaining channels only.
	Partial bool `json:"partial,omitempty"`
	// Degraded lists channels that failed or were skipped for this query.
	Degraded  []Channel     `json:"degraded,omitempty"`
	QueryTime time.Duration `json:"-"`
}

// Citation is an article referenced by an answer.
type Citation struct {
	Rank          int        `json:"rank"`
	LawName       string     `json:"law_name"`
	ArticleNumber string     `json:"article_number"`
	Section       string     `json:"section,omitempty"`
	Preview       string     `json:"content_preview"`
	Score         float64    `json:"score"`
	Confidence    Confidence `json:"confidence"`
	Cited         bool       `json:"cited"`
}

// Answer is the synthesizer output.
type Answer struct {
	Question        string     `json:"question"`
	Text            string     `json:"answer"`
	Confidence      float64    `json:"confidence"`
	ConfidenceLabel Confidence `json:"confidence_label"`
	// Degraded is set when generation failed and Citations are the raw top results.
	Degraded  bool       `json:"degraded"`
	Citations []Citation `json:"citations"`
	// Related lists articles cross-referenced from the cited content, e.g.
	// "도시 및 주거환경정비법 제35조".
	Related []string `json:"related_articles,omitempty"`
}
