package retrieval

import (
	"sort"

	"github.com/hyperjump/jeongbi/internal/config"
	"github.com/hyperjump/jeongbi/internal/graph"
	"github.com/hyperjump/jeongbi/internal/models"
	"github.com/hyperjump/jeongbi/internal/vector"
	"github.com/hyperjump/jeongbi/pkg/utils"
)

// channelOrder fixes the order channels are listed in on a result.
var channelOrder = []models.Channel{models.ChannelKeyword, models.ChannelGraph, models.ChannelSemantic}

// Weights are the per-channel merge weights.
type Weights struct {
	Keyword  float64
	Graph    float64
	Semantic float64
}

// DefaultWeights returns keyword 1.0, graph 0.8, semantic 0.9.
func DefaultWeights() Weights {
	return Weights{Keyword: 1.0, Graph: 0.8, Semantic: 0.9}
}

// WeightsFrom converts configured weights.
func WeightsFrom(c config.WeightsConfig) Weights {
	return Weights{Keyword: c.Keyword, Graph: c.Graph, Semantic: c.Semantic}
}

func (w Weights) of(c models.Channel) float64 {
	switch c {
	case models.ChannelKeyword:
		return w.Keyword
	case models.ChannelGraph:
		return w.Graph
	case models.ChannelSemantic:
		return w.Semantic
	}
	return 0
}

// ChannelHit is one article produced by one channel. Raw is the backend value
// (match score, hop count, cosine); Score is the channel score in [0,1].
type ChannelHit struct {
	Channel models.Channel
	Article *models.Article
	Raw     float64
	Score   float64
}

// scoreKeyword normalizes match scores by the channel maximum.
func scoreKeyword(matches []graph.Match) []ChannelHit {
	maxScore := 0.0
	for _, m := range matches {
		if m.Article != nil && m.Score > maxScore {
			maxScore = m.Score
		}
	}
	hits := make([]ChannelHit, 0, len(matches))
	for _, m := range matches {
		if m.Article == nil {
			continue
		}
		s := 0.0
		if maxScore > 0 {
			s = m.Score / maxScore
		}
		hits = append(hits, ChannelHit{Channel: models.ChannelKeyword, Article: m.Article, Raw: m.Score, Score: utils.Clamp01(s)})
	}
	return hits
}

// scoreGraph scores neighbors by hop distance.
func scoreGraph(neighbors []graph.Neighbor, decay HopDecay) []ChannelHit {
	hits := make([]ChannelHit, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Article == nil {
			continue
		}
		hits = append(hits, ChannelHit{
			Channel: models.ChannelGraph,
			Article: n.Article,
			Raw:     float64(n.Hops),
			Score:   utils.Clamp01(decay.Score(n.Hops)),
		})
	}
	return hits
}

// scoreSemantic keeps vector hits at or above threshold whose article is known.
func scoreSemantic(results []*vector.Result, articles map[models.ArticleKey]*models.Article, threshold float64) []ChannelHit {
	hits := make([]ChannelHit, 0, len(results))
	for _, r := range results {
		if r.Score < threshold {
			continue
		}
		key, err := models.ParseArticleID(r.ID)
		if err != nil {
			continue
		}
		a, ok := articles[key]
		if !ok {
			continue
		}
		hits = append(hits, ChannelHit{Channel: models.ChannelSemantic, Article: a, Raw: r.Score, Score: utils.Clamp01(r.Score)})
	}
	return hits
}

type accumulator struct {
	article *models.Article
	from    models.Channel
	scores  map[models.Channel]float64
}

// Merge folds channel hits into ranked results. Each channel contributes once per
// article with its best score; the combined score is the weighted sum clamped to 1.
// Results are ordered by score, then number of channels, then article key, and
// truncated to limit (limit <= 0 keeps all). The output does not depend on hit order.
func Merge(hits []ChannelHit, w Weights, limit int) []*models.SearchResult {
	byKey := make(map[models.ArticleKey]*accumulator)
	for _, h := range hits {
		if h.Article == nil {
			continue
		}
		k := h.Article.Key()
		acc, ok := byKey[k]
		if !ok {
			acc = &accumulator{article: h.Article, from: h.Channel, scores: make(map[models.Channel]float64, 3)}
			byKey[k] = acc
		} else if channelRank(h.Channel) < channelRank(acc.from) {
			acc.article, acc.from = h.Article, h.Channel
		}
		if s, seen := acc.scores[h.Channel]; !seen || h.Score > s {
			acc.scores[h.Channel] = h.Score
		}
	}

	results := make([]*models.SearchResult, 0, len(byKey))
	for _, acc := range byKey {
		var combined float64
		channels := make([]models.Channel, 0, len(acc.scores))
		for _, c := range channelOrder {
			s, ok := acc.scores[c]
			if !ok {
				continue
			}
			combined += w.of(c) * s
			channels = append(channels, c)
		}
		combined = utils.Clamp01(combined)
		results = append(results, &models.SearchResult{
			Article:       acc.article,
			Score:         combined,
			Confidence:    models.ConfidenceFor(combined),
			Channels:      channels,
			ChannelScores: acc.scores,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if len(a.Channels) != len(b.Channels) {
			return len(a.Channels) > len(b.Channels)
		}
		return a.Article.Key().Less(b.Article.Key())
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for i, r := range results {
		r.Rank = i + 1
	}
	return results
}

func channelRank(c models.Channel) int {
	for i, o := range channelOrder {
		if o == c {
			return i
		}
	}
	return len(channelOrder)
}
