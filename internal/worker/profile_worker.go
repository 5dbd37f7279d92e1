package worker

import (
	"context"
	"encoding/json"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/profile"
	"github.com/yungbote/chatcortex/internal/queue"
)

// ProfileWorker drains message_queue, feeding each message to the fact
// extractor one at a time (spec.md §4.9). The extractor itself batches its
// LLM call across the messages it's handed; one-row-per-call here keeps
// retry/dead-letter semantics per message, matching every other queue
// worker's per-row accounting.
type ProfileWorker struct {
	queue     *queue.Service
	mailbox   <-chan int64
	messages  repos.MessageRepo
	extractor *profile.Extractor
	log       *logger.Logger
}

func NewProfileWorker(q *queue.Service, mailbox <-chan int64, messages repos.MessageRepo, extractor *profile.Extractor, log *logger.Logger) *ProfileWorker {
	return &ProfileWorker{queue: q, mailbox: mailbox, messages: messages, extractor: extractor, log: log.With("component", "worker.ProfileWorker")}
}

func (w *ProfileWorker) Run(ctx context.Context) {
	RunQueueWorker(ctx, w.queue, w.mailbox, w.handle, w.log)
}

func (w *ProfileWorker) handle(ctx context.Context, row *model.QueueRow) error {
	var payload model.MessageQueuePayload
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		w.log.Warn("malformed message-queue payload, discarding", "row_id", row.ID, "error", err)
		return nil
	}

	dc := dbctx.Context{Ctx: ctx}
	msg, err := w.messages.GetByID(dc, payload.ChatID, payload.MessageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}

	return w.extractor.ProcessBatch(ctx, profile.Batch{
		ChatID:   payload.ChatID,
		UserID:   payload.AuthorID,
		Messages: []*model.Message{msg},
	})
}
