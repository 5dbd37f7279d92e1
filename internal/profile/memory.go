package profile

import (
	"context"
	"sort"
	"strings"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
)

const defaultMemoryTopFacts = 8
const defaultMemoryTopRelationships = 5
const defaultMemoryTopItems = 5

// Composer builds the compact memory-context prompt fragment the answer
// generator includes alongside retrieved chat context (spec.md §4.9).
type Composer struct {
	profiles      repos.ProfileRepo
	facts         repos.FactRepo
	relationships repos.RelationshipRepo
	memory        repos.MemoryRepo
}

func NewComposer(profiles repos.ProfileRepo, facts repos.FactRepo, relationships repos.RelationshipRepo, memory repos.MemoryRepo) *Composer {
	return &Composer{profiles: profiles, facts: facts, relationships: relationships, memory: memory}
}

// Compose returns profile summary, gender (if confident), top facts
// filtered by keyword overlap with the question, and top relationships,
// terminated with an instruction to use only what is relevant.
func (c *Composer) Compose(ctx context.Context, chatID, userID int64, question string) string {
	dc := dbctx.Context{Ctx: ctx}
	var b strings.Builder

	if p, err := c.profiles.Get(dc, chatID, userID); err == nil && p != nil {
		if p.Summary != "" {
			b.WriteString("Profile summary: ")
			b.WriteString(p.Summary)
			b.WriteString("\n")
		}
		if p.GenderConfidence >= 0.6 && p.Gender != "" && p.Gender != model.GenderUnknown {
			b.WriteString("Gender: ")
			b.WriteString(p.Gender)
			b.WriteString("\n")
		}
	}

	if allFacts, err := c.facts.TopByConfidence(dc, chatID, userID, 0); err == nil {
		relevant := filterByKeywordOverlap(allFacts, keywordSet(question), defaultMemoryTopFacts)
		if len(relevant) > 0 {
			b.WriteString("Known facts:\n")
			for _, f := range relevant {
				b.WriteString("- ")
				b.WriteString(f.FactText)
				b.WriteString("\n")
			}
		}
	}

	if c.memory != nil {
		if items, err := c.memory.ListByChat(dc, chatID, ""); err == nil && len(items) > 0 {
			b.WriteString("Chat memory:\n")
			for i, item := range items {
				if i >= defaultMemoryTopItems {
					break
				}
				b.WriteString("- ")
				b.WriteString(item.Key)
				b.WriteString(": ")
				b.WriteString(item.Value)
				b.WriteString("\n")
			}
		}
	}

	if rels, err := c.relationships.ListActiveByUser(dc, chatID, userID); err == nil {
		n := 0
		for _, r := range rels {
			if n >= defaultMemoryTopRelationships {
				break
			}
			b.WriteString("Relationship: ")
			b.WriteString(r.SurfaceLabel)
			b.WriteString(" ")
			b.WriteString(r.RelatedPersonName)
			b.WriteString("\n")
			n++
		}
	}

	b.WriteString("Use only what is relevant to answer the question.")
	return b.String()
}

func keywordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if len(w) >= 3 {
			set[w] = true
		}
	}
	return set
}

// filterByKeywordOverlap ranks facts by how many question keywords appear
// in the fact text, falling back to confidence order when the question has
// no keyword overlap at all (so memory context degrades to "top facts"
// rather than going empty).
func filterByKeywordOverlap(facts []*model.UserFact, keywords map[string]bool, limit int) []*model.UserFact {
	type scored struct {
		fact  *model.UserFact
		score int
	}
	ranked := make([]scored, 0, len(facts))
	anyOverlap := false
	for _, f := range facts {
		words := keywordSet(f.FactText)
		overlap := 0
		for w := range keywords {
			if words[w] {
				overlap++
			}
		}
		if overlap > 0 {
			anyOverlap = true
		}
		ranked = append(ranked, scored{fact: f, score: overlap})
	}

	if anyOverlap {
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].score != ranked[j].score {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].fact.Confidence > ranked[j].fact.Confidence
		})
	} else {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].fact.Confidence > ranked[j].fact.Confidence
		})
	}

	out := make([]*model.UserFact, 0, limit)
	for _, s := range ranked {
		if !anyOverlap || s.score > 0 {
			out = append(out, s.fact)
		}
		if len(out) >= limit {
			break
		}
	}
	if anyOverlap && len(out) == 0 {
		return nil
	}
	return out
}
