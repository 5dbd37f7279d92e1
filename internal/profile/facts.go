package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/llm"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

const factExtractionSystemPrompt = `Extract durable facts about the user from these chat messages. Reply with
strict JSON: {"facts": [{"text": "...", "type": "likes|dislikes|said|does|knows|opinion", "confidence": 0.0}]}`

type factsPayload struct {
	Facts []struct {
		Text       string  `json:"text"`
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	} `json:"facts"`
}

// Extractor runs fact extraction on a batch of messages grouped by
// (chat, user) (spec.md §4.9).
type Extractor struct {
	facts  repos.FactRepo
	router *llm.Router
	log    *logger.Logger
}

func NewExtractor(facts repos.FactRepo, router *llm.Router, log *logger.Logger) *Extractor {
	return &Extractor{facts: facts, router: router, log: log.With("component", "profile.Extractor")}
}

// Batch is one group of messages from the same (chat, user) to extract
// facts from.
type Batch struct {
	ChatID     int64
	UserID     int64
	Messages   []*model.Message
}

func (e *Extractor) ProcessBatch(ctx context.Context, b Batch) error {
	if len(b.Messages) == 0 {
		return nil
	}

	var transcript string
	for _, m := range b.Messages {
		transcript += m.Text + "\n"
	}

	res, err := e.router.GenerateJSON(ctx, "", factExtractionSystemPrompt, transcript)
	if err != nil {
		return err
	}

	var parsed factsPayload
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		e.log.Warn("fact extraction returned non-JSON", "chat_id", b.ChatID, "user_id", b.UserID)
		return nil
	}

	dc := dbctx.Context{Ctx: ctx}
	lastMsgID := b.Messages[len(b.Messages)-1].MessageID

	for _, f := range parsed.Facts {
		if f.Text == "" {
			continue
		}
		if err := e.facts.Upsert(dc, b.ChatID, b.UserID, f.Text, f.Type, f.Confidence, lastMsgID); err != nil {
			e.log.Error("fact upsert failed", "error", err)
		}
	}

	// Yield briefly between extraction requests so the queue worker driving
	// this does not monopolize the LLM router (spec.md §4.9).
	select {
	case <-time.After(betweenBatchDelay):
	case <-ctx.Done():
	}
	return nil
}

const betweenBatchDelay = 500 * time.Millisecond
