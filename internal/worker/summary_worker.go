package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/llm"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

const summarySystemPrompt = `Summarize the following group chat transcript in a few concise paragraphs.
Mention the main topics discussed and who drove them. Reply in plain text.`

const maxSummaryMessages = 500

// SummaryWorker drains summary_queue: fetch the requested hours window,
// ask the LLM for a summary, emit it. Each generated summary is also
// recorded as a conversation-memory item so the memory composer can
// surface recent interactions.
type SummaryWorker struct {
	queue    *queue.Service
	mailbox  <-chan int64
	messages repos.MessageRepo
	memory   repos.MemoryRepo
	router   *llm.Router
	emitter  ResponseEmitter
	log      *logger.Logger
}

func NewSummaryWorker(q *queue.Service, mailbox <-chan int64, messages repos.MessageRepo, memory repos.MemoryRepo, router *llm.Router, emitter ResponseEmitter, log *logger.Logger) *SummaryWorker {
	return &SummaryWorker{queue: q, mailbox: mailbox, messages: messages, memory: memory, router: router, emitter: emitter, log: log.With("component", "worker.SummaryWorker")}
}

func (w *SummaryWorker) Run(ctx context.Context) {
	RunQueueWorker(ctx, w.queue, w.mailbox, w.handle, w.log)
}

func (w *SummaryWorker) handle(ctx context.Context, row *model.QueueRow) error {
	var payload model.SummaryQueuePayload
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		w.log.Warn("malformed summary payload, discarding", "row_id", row.ID, "error", err)
		return nil
	}
	hours := payload.Hours
	if hours <= 0 {
		hours = 24
	}

	dc := dbctx.Context{Ctx: ctx}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	msgs, err := w.messages.ListByWindow(dc, payload.ChatID, since, maxSummaryMessages)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return w.emitter.SendText(ctx, payload.ChatID, "За этот период сообщений не нашлось.")
	}

	var transcript string
	for _, m := range msgs {
		if m.Text == "" {
			continue
		}
		transcript += m.AuthorDisplayName + ": " + m.Text + "\n"
	}

	res, err := w.router.GenerateText(ctx, "", summarySystemPrompt, transcript)
	if err != nil {
		return err
	}

	if w.memory != nil {
		lastID := msgs[len(msgs)-1].MessageID
		key := "summary:" + time.Now().UTC().Format("2006-01-02")
		if err := w.memory.Upsert(dc, payload.ChatID, "summary", key, res.Content, 0.9, lastID); err != nil {
			w.log.Warn("conversation memory upsert failed", "chat_id", payload.ChatID, "error", err)
		}
	}

	return w.emitter.SendText(ctx, payload.ChatID, res.Content)
}
