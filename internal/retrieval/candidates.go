package retrieval

import (
	"context"
	"sort"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/embedding"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

const rrfK = 60.0

type candidateGatherer struct {
	embeddings repos.EmbeddingRepo
	embedder   embedding.Provider
	vectorTopK int
	lexicalTopL int
	log        *logger.Logger
}

func newCandidateGatherer(embeddings repos.EmbeddingRepo, embedder embedding.Provider, vectorTopK, lexicalTopL int, log *logger.Logger) *candidateGatherer {
	if vectorTopK <= 0 {
		vectorTopK = 20
	}
	if lexicalTopL <= 0 {
		lexicalTopL = 20
	}
	return &candidateGatherer{
		embeddings: embeddings, embedder: embedder,
		vectorTopK: vectorTopK, lexicalTopL: lexicalTopL,
		log: log.With("component", "retrieval.candidateGatherer"),
	}
}

// gatherPersonal searches message embeddings filtered to resolved author ids.
func (g *candidateGatherer) gatherPersonal(ctx context.Context, chatID int64, variants []string, authorIDs []int64) ([]Candidate, error) {
	return g.gather(ctx, chatID, variants, func(dc dbctx.Context, vec []float32) ([]repos.VectorHit, error) {
		return g.embeddings.QueryMessagesByVector(dc, &chatID, authorIDs, vec, g.vectorTopK)
	}, authorIDs)
}

// gatherContextual searches context-window embeddings only, to preserve
// conversation coherence (spec.md §4.6 step 3).
func (g *candidateGatherer) gatherContextual(ctx context.Context, chatID int64, variants []string) ([]Candidate, error) {
	return g.gather(ctx, chatID, variants, func(dc dbctx.Context, vec []float32) ([]repos.VectorHit, error) {
		return g.embeddings.QueryContextByVector(dc, &chatID, vec, g.vectorTopK)
	}, nil)
}

// gatherGeneral searches both message and question embeddings plus lexical
// full text, merging everything by reciprocal-rank fusion.
func (g *candidateGatherer) gatherGeneral(ctx context.Context, chatID int64, variants []string) ([]Candidate, error) {
	dc := dbctx.Context{Ctx: ctx}
	rankLists := make([][]Candidate, 0, len(variants)*3)

	for _, variant := range variants {
		vec, err := g.embedOne(ctx, variant)
		if err != nil {
			g.log.Warn("embed variant failed", "error", err)
			continue
		}
		if len(vec) == 0 {
			continue
		}

		if hits, err := g.embeddings.QueryMessagesByVector(dc, &chatID, nil, vec, g.vectorTopK); err == nil {
			rankLists = append(rankLists, hitsToCandidates(hits, false))
		}
		if hits, err := g.embeddings.QueryQuestionsByVector(dc, &chatID, vec, g.vectorTopK); err == nil {
			rankLists = append(rankLists, hitsToCandidates(hits, false))
		}
		if hits, err := g.embeddings.LexicalSearchMessages(dc, &chatID, nil, variant, g.lexicalTopL); err == nil {
			rankLists = append(rankLists, lexicalHitsToCandidates(hits))
		}
	}

	return fuseRanked(rankLists), nil
}

func (g *candidateGatherer) gather(ctx context.Context, chatID int64, variants []string, vectorQuery func(dbctx.Context, []float32) ([]repos.VectorHit, error), authorIDs []int64) ([]Candidate, error) {
	dc := dbctx.Context{Ctx: ctx}
	rankLists := make([][]Candidate, 0, len(variants))

	for _, variant := range variants {
		vec, err := g.embedOne(ctx, variant)
		if err != nil {
			g.log.Warn("embed variant failed", "error", err)
			continue
		}
		if len(vec) == 0 {
			continue
		}
		hits, err := vectorQuery(dc, vec)
		if err != nil {
			g.log.Warn("vector query failed", "error", err)
			continue
		}
		rankLists = append(rankLists, hitsToCandidates(hits, false))
	}

	if len(authorIDs) > 0 {
		if hits, err := g.embeddings.LexicalSearchMessages(dc, &chatID, authorIDs, variants[0], g.lexicalTopL); err == nil {
			rankLists = append(rankLists, lexicalHitsToCandidates(hits))
		}
	}

	return fuseRanked(rankLists), nil
}

func (g *candidateGatherer) embedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return vectors[0], nil
}

func hitsToCandidates(hits []repos.VectorHit, lexical bool) []Candidate {
	out := make([]Candidate, len(hits))
	for i, h := range hits {
		out[i] = Candidate{ChatID: h.ChatID, MessageID: h.MessageID, Text: h.Text, Score: h.Score, Lexical: lexical}
	}
	return out
}

func lexicalHitsToCandidates(hits []repos.LexicalHit) []Candidate {
	out := make([]Candidate, len(hits))
	for i, h := range hits {
		out[i] = Candidate{ChatID: h.ChatID, MessageID: h.MessageID, Text: h.Text, Score: h.Rank, Lexical: true}
	}
	return out
}

// fuseRanked merges multiple ranked lists by reciprocal-rank fusion,
// collapsing duplicates on (chat, message id) (spec.md §4.6 step 4).
func fuseRanked(lists [][]Candidate) []Candidate {
	type acc struct {
		cand    Candidate
		rrf     float64
		lexical bool
	}
	merged := make(map[[2]int64]*acc)

	for _, list := range lists {
		for rank, c := range list {
			key := [2]int64{c.ChatID, c.MessageID}
			score := 1.0 / (rrfK + float64(rank+1))
			if existing, ok := merged[key]; ok {
				existing.rrf += score
				if c.Score > existing.cand.Score {
					existing.cand.Score = c.Score
				}
				existing.lexical = existing.lexical || c.Lexical
			} else {
				merged[key] = &acc{cand: c, rrf: score, lexical: c.Lexical}
			}
		}
	}

	out := make([]Candidate, 0, len(merged))
	for _, a := range merged {
		c := a.cand
		c.RRFScore = a.rrf
		c.Lexical = a.lexical
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RRFScore > out[j].RRFScore })
	return out
}
