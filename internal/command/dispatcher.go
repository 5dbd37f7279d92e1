package command

import (
	"context"
	"strconv"
	"strings"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

const (
	defaultSummaryHours = 24
	maxSummaryHours     = 168 // one week; spec.md §6 says "capped" without a number

	defaultTruthCount = 5
	minTruthCount     = 1
	maxTruthCount     = 15
)

const (
	askHelpText = "Usage: /ask <question>\nAsk anything about this chat's history."

	startPrivateText = "Hi! I'm a group-chat memory bot. Add me to a group and I'll start building context for /ask, /summary and /truth."
	startGroupText   = "Hey, I'm here. Use /ask <question> to ask me anything about this chat."

	queueFullText = "Busy right now, please try again in a moment."
)

// AdminIdentity identifies who may issue admin commands (spec.md §6: "Admin
// commands ... are accepted only in private chat from a configured admin
// id/username").
type AdminIdentity struct {
	ID       int64
	Username string
}

// Dispatcher wires every supported command to its queue and, for admin
// commands, to the settings store directly. Grounded on the teacher's
// handler-struct-plus-constructor-injection shape (internal/handlers/*.go)
// generalized from HTTP route handlers to transport-agnostic command
// handlers, since the transport itself is out of scope (spec.md §1).
type Dispatcher struct {
	askQueue     *queue.Service
	summaryQueue *queue.Service
	truthQueue   *queue.Service
	messageQueue *queue.Service

	chats    repos.ChatRepo
	settings repos.SettingsRepo
	messages repos.MessageRepo

	admin AdminIdentity

	// maxPendingPerQueue is the producer-side backpressure guard (spec.md
	// §5: "producers that find their queue mailbox full on enqueue respond
	// to users with a try again message").
	maxPendingPerQueue int64

	log *logger.Logger
}

func NewDispatcher(
	askQueue, summaryQueue, truthQueue, messageQueue *queue.Service,
	chats repos.ChatRepo,
	settings repos.SettingsRepo,
	messages repos.MessageRepo,
	admin AdminIdentity,
	maxPendingPerQueue int64,
	log *logger.Logger,
) *Dispatcher {
	if maxPendingPerQueue <= 0 {
		maxPendingPerQueue = 500
	}
	return &Dispatcher{
		askQueue: askQueue, summaryQueue: summaryQueue, truthQueue: truthQueue, messageQueue: messageQueue,
		chats: chats, settings: settings, messages: messages,
		admin: admin, maxPendingPerQueue: maxPendingPerQueue,
		log: log.With("component", "command.Dispatcher"),
	}
}

func (d *Dispatcher) guardCapacity(ctx context.Context, q *queue.Service) Result {
	n, err := q.PendingCount(ctx)
	if err != nil {
		// store failure: fail open rather than refuse a legitimate request
		// (spec.md §7's fail-open policy extended here by analogy).
		d.log.Warn("pending count check failed, proceeding anyway", "error", err)
		return Result{}
	}
	if n >= d.maxPendingPerQueue {
		return okResult(queueFullText)
	}
	return Result{}
}

// HandleAsk implements /ask per spec.md §4.10/§6: blank question renders
// help text synchronously; otherwise enqueue with command="ask".
func (d *Dispatcher) HandleAsk(ctx context.Context, in Input) Result {
	return d.handleAskLike(ctx, in, model.AskCommandAsk)
}

// HandleSmart implements /smart: identical payload shape, command="smart",
// the retrieval engine's confidence gate treats this tag as a bypass.
func (d *Dispatcher) HandleSmart(ctx context.Context, in Input) Result {
	return d.handleAskLike(ctx, in, model.AskCommandSmart)
}

func (d *Dispatcher) handleAskLike(ctx context.Context, in Input, cmd string) Result {
	question := strings.TrimSpace(in.RawArgs)
	if question == "" {
		return okResult(askHelpText)
	}

	if guard := d.guardCapacity(ctx, d.askQueue); guard.Ack != "" {
		return guard
	}

	_, err := d.askQueue.Enqueue(ctx, model.AskQueuePayload{
		ChatID: in.ChatID, UserID: in.UserID,
		AskerDisplayName: in.AskerDisplayName, AskerUsername: in.AskerUsername,
		Question: question, Command: cmd,
	})
	if err != nil {
		d.log.Error("ask enqueue failed", "chat_id", in.ChatID, "error", err)
		return errResult(queueFullText, err)
	}
	return Result{ShowTyping: true}
}

// HandleSummary implements /summary [hours]: hours defaults to 24, capped.
func (d *Dispatcher) HandleSummary(ctx context.Context, in Input) Result {
	hours := defaultSummaryHours
	if arg := strings.TrimSpace(in.RawArgs); arg != "" {
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			hours = n
		}
	}
	if hours > maxSummaryHours {
		hours = maxSummaryHours
	}

	if guard := d.guardCapacity(ctx, d.summaryQueue); guard.Ack != "" {
		return guard
	}

	_, err := d.summaryQueue.Enqueue(ctx, model.SummaryQueuePayload{ChatID: in.ChatID, Hours: hours})
	if err != nil {
		d.log.Error("summary enqueue failed", "chat_id", in.ChatID, "error", err)
		return errResult(queueFullText, err)
	}
	return okResult("Summarizing the last " + strconv.Itoa(hours) + " hours, one moment.")
}

// HandleTruth implements /truth [count]: default 5, clamped to [1, 15];
// an unparseable argument falls back to the default rather than erroring.
func (d *Dispatcher) HandleTruth(ctx context.Context, in Input) Result {
	count := parseTruthCount(in.RawArgs)

	if guard := d.guardCapacity(ctx, d.truthQueue); guard.Ack != "" {
		return guard
	}

	_, err := d.truthQueue.Enqueue(ctx, model.TruthQueuePayload{ChatID: in.ChatID, UserID: in.UserID, Count: count})
	if err != nil {
		d.log.Error("truth enqueue failed", "chat_id", in.ChatID, "error", err)
		return errResult(queueFullText, err)
	}
	return okResult("Fact-checking the last " + strconv.Itoa(count) + " messages...")
}

// HandleStart implements /start: full onboarding in a private chat, a
// short confirmation in a group.
func (d *Dispatcher) HandleStart(ctx context.Context, in Input) Result {
	if in.ChatType == model.ChatTypePrivate {
		return Result{Ack: startPrivateText, InlineAddToChatButton: true}
	}
	dc := dbctx.Context{Ctx: ctx}
	if err := d.chats.EnsureExists(dc, in.ChatID, "", in.ChatType); err != nil {
		d.log.Warn("ensure chat on /start failed", "chat_id", in.ChatID, "error", err)
	}
	return okResult(startGroupText)
}

// parseTruthCount resolves /truth's optional count argument: blank or
// unparseable input falls back to defaultTruthCount, as does any value
// <= 0 (a negative or zero count has no sensible clamp target of its own);
// everything else is clamped to [minTruthCount, maxTruthCount].
func parseTruthCount(raw string) int {
	arg := strings.TrimSpace(raw)
	if arg == "" {
		return defaultTruthCount
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return defaultTruthCount
	}
	return clamp(n, minTruthCount, maxTruthCount)
}

func clamp(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// IsAdmin reports whether in was issued by the configured admin, in a
// private chat (spec.md §6).
func (d *Dispatcher) IsAdmin(in Input) bool {
	if in.ChatType != model.ChatTypePrivate {
		return false
	}
	if d.admin.ID != 0 && in.UserID == d.admin.ID {
		return true
	}
	if d.admin.Username != "" && strings.EqualFold(in.AskerUsername, d.admin.Username) {
		return true
	}
	return false
}
