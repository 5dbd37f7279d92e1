package retrieval

import (
	"context"
	"sort"

	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// Reranker is a cross-encoder provider's narrow contract: score each
// candidate against the original query.
type Reranker interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

const defaultRerankTopM = 40
const defaultScoreFloor = 0.2

type rerankStage struct {
	reranker   Reranker
	topM       int
	scoreFloor float64
	log        *logger.Logger
}

func newRerankStage(reranker Reranker, topM int, scoreFloor float64, log *logger.Logger) *rerankStage {
	if topM <= 0 {
		topM = defaultRerankTopM
	}
	if scoreFloor <= 0 {
		scoreFloor = defaultScoreFloor
	}
	return &rerankStage{reranker: reranker, topM: topM, scoreFloor: scoreFloor, log: log.With("component", "retrieval.rerankStage")}
}

// Apply reranks the top M candidates against query, dropping those below
// the score floor, and reports whether the ordering changed (spec.md §4.6
// step 5). If no reranker is configured, candidates pass through unchanged.
func (s *rerankStage) Apply(ctx context.Context, query string, candidates []Candidate) ([]Candidate, bool) {
	if s.reranker == nil || len(candidates) == 0 {
		return candidates, false
	}

	n := len(candidates)
	if n > s.topM {
		n = s.topM
	}
	head := candidates[:n]
	tail := candidates[n:]

	texts := make([]string, len(head))
	originalOrder := make([]int64, len(head))
	for i, c := range head {
		texts[i] = c.Text
		originalOrder[i] = c.MessageID
	}

	scores, err := s.reranker.Score(ctx, query, texts)
	if err != nil || len(scores) != len(head) {
		s.log.Warn("rerank failed, passing through unreranked", "error", err)
		return candidates, false
	}

	reranked := make([]Candidate, 0, len(head))
	for i, c := range head {
		if scores[i] < s.scoreFloor {
			continue
		}
		c.Score = scores[i]
		reranked = append(reranked, c)
	}
	sort.SliceStable(reranked, func(i, j int) bool { return reranked[i].Score > reranked[j].Score })

	changed := false
	for i := range reranked {
		if i >= len(originalOrder) || reranked[i].MessageID != originalOrder[i] {
			changed = true
			break
		}
	}

	return append(reranked, tail...), changed
}
