package command

import (
	"context"
	"strconv"
	"strings"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/queue"
)

const adminHelpText = "Admin commands: status, llm <tag>, prompt <key> [value], rename <title>, reindex"

// HandleAdmin dispatches one admin subcommand. Callers must gate this
// behind IsAdmin first (spec.md §6: "accepted only in private chat from a
// configured admin id/username").
func (d *Dispatcher) HandleAdmin(ctx context.Context, in Input) Result {
	fields := strings.Fields(strings.TrimSpace(in.RawArgs))
	if len(fields) == 0 {
		return okResult(adminHelpText)
	}
	sub := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(in.RawArgs), fields[0]))

	switch sub {
	case "status":
		return d.adminStatus(ctx)
	case "llm":
		return d.adminLLM(ctx, rest)
	case "prompt":
		return d.adminPrompt(ctx, rest)
	case "rename":
		return d.adminRename(ctx, in, rest)
	case "reindex":
		return d.adminReindex(ctx, in)
	default:
		return okResult(adminHelpText)
	}
}

func (d *Dispatcher) adminStatus(ctx context.Context) Result {
	var b strings.Builder
	for _, entry := range []struct {
		name string
		svc  *queue.Service
	}{
		{"ask", d.askQueue}, {"summary", d.summaryQueue}, {"truth", d.truthQueue}, {"message", d.messageQueue},
	} {
		if entry.svc == nil {
			continue
		}
		stats, err := entry.svc.DashboardStats(ctx)
		if err != nil {
			b.WriteString(entry.name + ": error (" + err.Error() + ")\n")
			continue
		}
		b.WriteString(entry.name + ": pending=" + strconv.FormatInt(stats.Pending, 10) +
			" leased=" + strconv.FormatInt(stats.Leased, 10) +
			" dead=" + strconv.FormatInt(stats.Dead, 10) + "\n")
	}
	if b.Len() == 0 {
		return okResult("no queues configured")
	}
	return okResult(b.String())
}

func (d *Dispatcher) adminLLM(ctx context.Context, tag string) Result {
	dc := dbctx.Context{Ctx: ctx}
	if tag == "" {
		v, ok, err := d.settings.GetAdminSetting(dc, "default_llm_tag")
		if err != nil {
			return errResult("could not read setting", err)
		}
		if !ok {
			return okResult("no default LLM tag set")
		}
		return okResult("default LLM tag: " + v)
	}
	if err := d.settings.SetAdminSetting(dc, "default_llm_tag", tag); err != nil {
		return errResult("could not set default LLM tag", err)
	}
	return okResult("default LLM tag set to " + tag)
}

func (d *Dispatcher) adminPrompt(ctx context.Context, args string) Result {
	dc := dbctx.Context{Ctx: ctx}
	parts := strings.SplitN(args, " ", 2)
	if len(parts) == 0 || parts[0] == "" {
		return okResult("Usage: /admin prompt <command:mode:language> [new value]")
	}
	key := parts[0]
	if len(parts) == 1 {
		v, ok, err := d.settings.GetPrompt(dc, key)
		if err != nil {
			return errResult("could not read prompt", err)
		}
		if !ok {
			return okResult("no override set for " + key)
		}
		return okResult(v)
	}
	if err := d.settings.SetPrompt(dc, key, parts[1]); err != nil {
		return errResult("could not set prompt", err)
	}
	return okResult("prompt " + key + " updated")
}

func (d *Dispatcher) adminRename(ctx context.Context, in Input, newTitle string) Result {
	if newTitle == "" {
		return okResult("Usage: /admin rename <title>")
	}
	dc := dbctx.Context{Ctx: ctx}
	chat, err := d.chats.GetByID(dc, in.ChatID)
	if err != nil {
		return errResult("could not read chat", err)
	}
	chatType := model.ChatTypePrivate
	if chat != nil {
		chatType = chat.Type
	}
	if err := d.chats.EnsureExists(dc, in.ChatID, newTitle, chatType); err != nil {
		return errResult("could not rename chat", err)
	}
	return okResult("renamed to " + newTitle)
}

// adminReindex re-enqueues every recent message for the chat into the
// message queue, driving fact/profile reprocessing (spec.md §6's
// "reindex" admin command). It does not touch embeddings: only the profile
// worker drains the message queue, so messages that already have
// embeddings are not re-embedded.
func (d *Dispatcher) adminReindex(ctx context.Context, in Input) Result {
	dc := dbctx.Context{Ctx: ctx}
	msgs, err := d.messages.ListRecentByChat(dc, in.ChatID, 2000)
	if err != nil {
		return errResult("could not list messages", err)
	}
	if d.messageQueue == nil {
		return okResult("reindex unavailable: no message queue configured")
	}
	requeued := 0
	for _, m := range msgs {
		_, err := d.messageQueue.Enqueue(ctx, model.MessageQueuePayload{
			ChatID: m.ChatID, MessageID: m.MessageID, AuthorID: m.AuthorID,
		})
		if err != nil {
			d.log.Warn("reindex enqueue failed", "chat_id", in.ChatID, "message_id", m.MessageID, "error", err)
			continue
		}
		requeued++
	}
	return okResult("reindex requested for " + strconv.Itoa(requeued) + "/" + strconv.Itoa(len(msgs)) + " messages")
}
