package indexing

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/embedding"
	"github.com/yungbote/chatcortex/internal/platform/llm"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

const minQuestionSourceLength = 40

// QuestionGenerationHandler is driven by the question_generation_queue, a
// separate low-priority queue (spec.md §4.5): for each eligible message it
// asks the LLM router for up to K hypothetical questions answerable from
// that message, then embeds and stores each one (the "Q->A bridge" used by
// the retrieval engine's general strategy, spec.md §4.6 step 3).
type QuestionGenerationHandler struct {
	q          *queue.Service
	messages   repos.MessageRepo
	embeddings repos.EmbeddingRepo
	embedder   embedding.Provider
	router     *llm.Router
	maxPerMsg  int
	log        *logger.Logger
}

func NewQuestionGenerationHandler(q *queue.Service, messages repos.MessageRepo, embeddings repos.EmbeddingRepo, embedder embedding.Provider, router *llm.Router, maxPerMsg int, log *logger.Logger) *QuestionGenerationHandler {
	if maxPerMsg <= 0 {
		maxPerMsg = 3
	}
	return &QuestionGenerationHandler{
		q: q, messages: messages, embeddings: embeddings, embedder: embedder, router: router,
		maxPerMsg: maxPerMsg, log: log.With("handler", "QuestionGenerationHandler"),
	}
}

func (h *QuestionGenerationHandler) Name() string { return "question_generation" }

func (h *QuestionGenerationHandler) GetStats(ctx context.Context) (Stats, error) {
	pending, err := h.q.PendingCount(ctx)
	return Stats{Pending: pending}, err
}

type questionSet struct {
	Questions []string `json:"questions"`
}

func (h *QuestionGenerationHandler) ProcessBatch(ctx context.Context, size int) (BatchResult, error) {
	start := time.Now()
	processed := 0

	for i := 0; i < size; i++ {
		row, err := h.q.Pick(ctx)
		if err != nil {
			return BatchResult{}, err
		}
		if row == nil {
			break
		}

		var payload model.QuestionGenerationQueuePayload
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			_ = h.q.Complete(ctx, row.ID)
			continue
		}

		if err := h.processOne(ctx, payload); err != nil {
			if rl, ok := asRateLimited(err); ok {
				_ = h.q.Fail(ctx, row.ID, row.AttemptCount, err)
				return BatchResult{Processed: processed, Elapsed: time.Since(start)}, rl
			}
			_ = h.q.Fail(ctx, row.ID, row.AttemptCount, err)
			continue
		}
		_ = h.q.Complete(ctx, row.ID)
		processed++
	}

	return BatchResult{Processed: processed, Elapsed: time.Since(start), HasMore: processed == size}, nil
}

func (h *QuestionGenerationHandler) processOne(ctx context.Context, payload model.QuestionGenerationQueuePayload) error {
	dc := dbctx.Context{Ctx: ctx}
	msg, err := h.messages.GetByID(dc, payload.ChatID, payload.MessageID)
	if err != nil {
		return err
	}
	if msg == nil || len(msg.Text) < minQuestionSourceLength {
		return nil
	}

	system := "You generate short hypothetical questions that this message would answer. Reply with strict JSON: {\"questions\": [\"...\"]}. At most " + strconv.Itoa(h.maxPerMsg) + " questions."
	res, err := h.router.GenerateJSON(ctx, "", system, msg.Text)
	if err != nil {
		return err
	}

	var parsed questionSet
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		h.log.Warn("question generation returned non-JSON, skipping", "chat_id", payload.ChatID, "message_id", payload.MessageID)
		return nil
	}

	questions := parsed.Questions
	if len(questions) > h.maxPerMsg {
		questions = questions[:h.maxPerMsg]
	}
	if len(questions) == 0 {
		return nil
	}

	vectors, err := h.embedder.Embed(ctx, questions)
	if err != nil {
		return err
	}

	for idx, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" || idx >= len(vectors) || vectors[idx] == nil {
			continue
		}
		if err := h.embeddings.InsertQuestion(dc, payload.ChatID, payload.MessageID, idx, q, vectors[idx]); err != nil {
			h.log.Error("insert question failed", "error", err)
		}
	}
	return nil
}
