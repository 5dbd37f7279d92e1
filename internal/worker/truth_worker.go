package worker

import (
	"context"
	"encoding/json"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/llm"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

const truthSystemPrompt = `Ты — проверяющий фактов в групповом чате. Для каждого сообщения ниже
оцени фактические утверждения: верно, неверно или не проверяемо, с коротким
пояснением. Мнения и шутки помечай как не проверяемые. Отвечай нумерованным
списком в порядке сообщений, простым текстом.`

// TruthWorker drains truth_queue: fetch the payload's Count most-recent
// messages of the chat and fact-check them through the LLM router's
// "factcheck" tag (spec.md §1(c), §4.8).
type TruthWorker struct {
	queue    *queue.Service
	mailbox  <-chan int64
	messages repos.MessageRepo
	router   *llm.Router
	emitter  ResponseEmitter
	log      *logger.Logger
}

func NewTruthWorker(q *queue.Service, mailbox <-chan int64, messages repos.MessageRepo, router *llm.Router, emitter ResponseEmitter, log *logger.Logger) *TruthWorker {
	return &TruthWorker{queue: q, mailbox: mailbox, messages: messages, router: router, emitter: emitter, log: log.With("component", "worker.TruthWorker")}
}

func (w *TruthWorker) Run(ctx context.Context) {
	RunQueueWorker(ctx, w.queue, w.mailbox, w.handle, w.log)
}

func (w *TruthWorker) handle(ctx context.Context, row *model.QueueRow) error {
	var payload model.TruthQueuePayload
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		w.log.Warn("malformed truth payload, discarding", "row_id", row.ID, "error", err)
		return nil
	}
	count := payload.Count
	if count <= 0 {
		count = 5
	}

	dc := dbctx.Context{Ctx: ctx}
	msgs, err := w.messages.ListRecentByChat(dc, payload.ChatID, count)
	if err != nil {
		return err
	}

	var transcript string
	n := 0
	for _, m := range msgs {
		if m.Text == "" {
			continue
		}
		n++
		transcript += m.AuthorDisplayName + ": " + m.Text + "\n"
	}
	if n == 0 {
		return w.emitter.SendText(ctx, payload.ChatID, "Нет недавних сообщений для проверки.")
	}

	res, err := w.router.GenerateText(ctx, "factcheck", truthSystemPrompt, transcript)
	if err != nil {
		return err
	}
	return w.emitter.SendText(ctx, payload.ChatID, res.Content)
}
