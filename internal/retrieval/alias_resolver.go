package retrieval

import (
	"context"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
)

// resolveTargets turns mentioned-person names into candidate author ids,
// case-insensitive, ranked by usage (spec.md §4.6 step 3 personal strategy).
func resolveTargets(ctx context.Context, aliases repos.AliasRepo, chatID int64, names []string) []int64 {
	dc := dbctx.Context{Ctx: ctx}
	seen := make(map[int64]bool)
	var ids []int64
	for _, name := range names {
		candidates, err := aliases.ResolveCandidates(dc, chatID, name)
		if err != nil {
			continue
		}
		for _, c := range candidates {
			if !seen[c.UserID] {
				seen[c.UserID] = true
				ids = append(ids, c.UserID)
			}
		}
	}
	return ids
}
