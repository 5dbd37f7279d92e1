package retrieval

import (
	"context"
	"regexp"
	"strings"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
)

const defaultTokenBudget = 3000
const approxCharsPerToken = 4

var newsDumpPattern = regexp.MustCompile(`(?i)https?://|подпишись|реклама|промокод`)

// ContextChunk is one piece of context tagged for the answer generator.
type ContextChunk struct {
	Text        string
	AuthorID    int64
	AuthorName  string
	Timestamp   string
	NewsDump    bool
}

// buildContext dedupes candidates on (chat, message), tags each with
// timestamp/author, trims to a token budget, and deprioritises "news-dump"
// looking forwards (spec.md §4.6 step 7).
func buildContext(ctx context.Context, messages repos.MessageRepo, chatID int64, candidates []Candidate, tokenBudget int) []ContextChunk {
	if tokenBudget <= 0 {
		tokenBudget = defaultTokenBudget
	}
	dc := dbctx.Context{Ctx: ctx}

	ids := make([]int64, 0, len(candidates))
	seen := make(map[int64]bool)
	for _, c := range candidates {
		if !seen[c.MessageID] {
			seen[c.MessageID] = true
			ids = append(ids, c.MessageID)
		}
	}

	msgs, err := messages.ListByIDs(dc, chatID, ids)
	if err != nil {
		return nil
	}
	byID := make(map[int64]int, len(msgs))
	for i, m := range msgs {
		byID[m.MessageID] = i
	}

	chunks := make([]ContextChunk, 0, len(candidates))
	for _, c := range candidates {
		idx, ok := byID[c.MessageID]
		if !ok {
			continue
		}
		m := msgs[idx]
		text := m.Text
		if text == "" {
			text = c.Text
		}
		chunks = append(chunks, ContextChunk{
			Text:       text,
			AuthorID:   m.AuthorID,
			AuthorName: m.AuthorDisplayName,
			Timestamp:  m.CreatedAt.Format("2006-01-02 15:04"),
			NewsDump:   newsDumpPattern.MatchString(text),
		})
	}

	sortNewsDumpLast(chunks)

	budget := tokenBudget * approxCharsPerToken
	used := 0
	out := make([]ContextChunk, 0, len(chunks))
	for _, c := range chunks {
		if used+len(c.Text) > budget && len(out) > 0 {
			break
		}
		out = append(out, c)
		used += len(c.Text)
	}
	return out
}

func sortNewsDumpLast(chunks []ContextChunk) {
	nonDump := make([]ContextChunk, 0, len(chunks))
	dump := make([]ContextChunk, 0)
	for _, c := range chunks {
		if c.NewsDump {
			dump = append(dump, c)
		} else {
			nonDump = append(nonDump, c)
		}
	}
	copy(chunks, append(nonDump, dump...))
}

func formatContext(chunks []ContextChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		name := c.AuthorName
		if name == "" {
			name = "unknown"
		}
		b.WriteString("[")
		b.WriteString(c.Timestamp)
		b.WriteString("] ")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(c.Text)
		b.WriteString("\n")
	}
	return b.String()
}
