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
	"github.com/yungbote/chatcortex/internal/retrieval"
)

const notFoundText = "Не нашёл ничего по этому вопросу в истории чата."

// AskWorker drains ask_queue: search, gate, compose memory context,
// generate an answer, emit it. Handles both /ask and /smart payloads
// (distinguished by AskQueuePayload.Command), per spec.md §4.7's gate.
type AskWorker struct {
	queue    *queue.Service
	mailbox  <-chan int64
	engine   *retrieval.Engine
	answerer *retrieval.AnswerGenerator
	composer *profile.Composer
	settings repos.SettingsRepo
	emitter  ResponseEmitter
	log      *logger.Logger
}

func NewAskWorker(
	q *queue.Service,
	mailbox <-chan int64,
	engine *retrieval.Engine,
	answerer *retrieval.AnswerGenerator,
	composer *profile.Composer,
	settings repos.SettingsRepo,
	emitter ResponseEmitter,
	log *logger.Logger,
) *AskWorker {
	return &AskWorker{
		queue: q, mailbox: mailbox, engine: engine, answerer: answerer,
		composer: composer, settings: settings, emitter: emitter,
		log: log.With("component", "worker.AskWorker"),
	}
}

func (w *AskWorker) Run(ctx context.Context) {
	RunQueueWorker(ctx, w.queue, w.mailbox, w.handle, w.log)
}

func (w *AskWorker) handle(ctx context.Context, row *model.QueueRow) error {
	var payload model.AskQueuePayload
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		w.log.Warn("malformed ask payload, discarding", "row_id", row.ID, "error", err)
		return nil
	}

	dc := dbctx.Context{Ctx: ctx}
	settings, err := w.settings.GetChatSettings(dc, payload.ChatID)
	if err != nil {
		settings = &model.ChatSettings{Mode: "default", Language: "ru"}
	}

	if payload.Command == model.AskCommandSmart {
		return w.answerAndSend(ctx, payload, retrieval.SearchResult{}, settings, "")
	}

	result, err := w.engine.Search(ctx, retrieval.SearchRequest{
		ChatID: payload.ChatID, Query: payload.Question,
		AskerUserID: payload.UserID, AskerDisplay: payload.AskerDisplayName,
		AskerUsername: payload.AskerUsername, Command: payload.Command,
	})
	if err != nil {
		return err
	}

	switch retrieval.Gate(payload.Command, result) {
	case retrieval.GateNotFound:
		return w.emitter.SendText(ctx, payload.ChatID, notFoundText)
	default:
		chunks := w.engine.BuildContext(ctx, payload.ChatID, result.Candidates)
		contextText := retrieval.FormatContext(chunks)
		return w.answerAndSend(ctx, payload, result, settings, contextText)
	}
}

func (w *AskWorker) answerAndSend(ctx context.Context, payload model.AskQueuePayload, result retrieval.SearchResult, settings *model.ChatSettings, contextText string) error {
	memory := ""
	if w.composer != nil {
		memory = w.composer.Compose(ctx, payload.ChatID, payload.UserID, payload.Question)
	}

	preferredTag := ""
	if payload.Command == model.AskCommandSmart {
		preferredTag = "smart"
	}

	answer, err := w.answerer.Generate(ctx, retrieval.AnswerInput{
		Query:        payload.Question,
		MemoryFacts:  memory,
		Context:      contextText,
		AskerDisplay: payload.AskerDisplayName,
		Mode:         settings.Mode,
		Language:     settings.Language,
		Command:      payload.Command,
		PreferredTag: preferredTag,
		Confidence:   result.Confidence,
	})
	if err != nil {
		// spec.md §7: "the LLM call itself is the only step whose failure
		// aborts the request (the user is then informed to retry)".
		return err
	}
	return w.emitter.SendText(ctx, payload.ChatID, answer)
}
