package retrieval

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/yungbote/chatcortex/internal/platform/llm"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

const expansionSystemPrompt = `Produce 3 to 5 alternate phrasings or sub-queries of the user's question that
would help retrieve relevant chat messages. Reply with strict JSON:
{"variants": ["...", "..."]}`

type queryExpander struct {
	router *llm.Router
	log    *logger.Logger
}

func newQueryExpander(router *llm.Router, log *logger.Logger) *queryExpander {
	return &queryExpander{router: router, log: log.With("component", "retrieval.queryExpander")}
}

type variantsPayload struct {
	Variants []string `json:"variants"`
}

// Expand implements RAG-Fusion query expansion (spec.md §4.6 step 2): the
// original query is always included as the first variant so a provider
// failure degrades to single-query search rather than empty results.
func (e *queryExpander) Expand(ctx context.Context, query string) []string {
	variants := []string{query}

	res, err := e.router.GenerateJSON(ctx, "", expansionSystemPrompt, query)
	if err != nil {
		e.log.Warn("query expansion failed, using original query only", "error", err)
		return variants
	}

	var parsed variantsPayload
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		e.log.Warn("query expansion returned non-JSON", "error", err)
		return variants
	}

	seen := map[string]bool{strings.ToLower(strings.TrimSpace(query)): true}
	for _, v := range parsed.Variants {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		variants = append(variants, v)
	}
	return variants
}
