package ingestion

import (
	"context"
	"unicode/utf8"

	"github.com/yungbote/chatcortex/internal/data/graph"
	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

// Outcome reports what Pipeline.Ingest did with one inbound message, for
// callers that want to log/metric it.
type Outcome string

const (
	OutcomeIgnoredDuplicate   Outcome = "ignored_duplicate"
	OutcomeIgnoredNonGroup    Outcome = "ignored_non_group"
	OutcomeIgnoredBannedOrInactive Outcome = "ignored_banned_or_inactive"
	OutcomeSaved              Outcome = "saved"
	OutcomeError              Outcome = "error"
)

// Pipeline implements spec.md §4.3 end to end.
type Pipeline struct {
	dedup         *DedupFilter
	bans          *BanCache
	chats         repos.ChatRepo
	messages      repos.MessageRepo
	aliases       repos.AliasRepo
	relationships repos.RelationshipRepo
	messageQueue  *queue.Service
	questionQueue *queue.Service
	relGraph      *graph.RelationshipMirror

	// minLength is the single source of truth for "embeddable" text, sourced
	// from cfg.MinMessageLength (spec.md §8: "message with text length < 6
	// => persisted; no embedding enqueued"). It gates the question-generation
	// enqueue here; MessageEmbeddingHandler applies the same threshold to
	// the primary-chunk embedding path via MessageRepo.ListMissingPrimaryChunk.
	minLength int

	log *logger.Logger
}

func NewPipeline(
	chats repos.ChatRepo,
	messages repos.MessageRepo,
	aliases repos.AliasRepo,
	relationships repos.RelationshipRepo,
	settings repos.SettingsRepo,
	messageQueue *queue.Service,
	questionQueue *queue.Service,
	relGraph *graph.RelationshipMirror,
	minLength int,
	log *logger.Logger,
) *Pipeline {
	if minLength <= 0 {
		minLength = 6
	}
	return &Pipeline{
		dedup: NewDedupFilter(),
		bans:  NewBanCache(settings),
		chats: chats, messages: messages, aliases: aliases, relationships: relationships,
		messageQueue: messageQueue, questionQueue: questionQueue,
		relGraph:  relGraph,
		minLength: minLength,
		log:       log.With("component", "ingestion.Pipeline"),
	}
}

// InboundMessage is what the transport hands to the pipeline (the
// transport itself is out of scope, per spec.md §1).
type InboundMessage struct {
	ChatID            int64
	MessageID         int64
	ThreadID          *int64
	AuthorID          int64
	AuthorUsername    string
	AuthorDisplayName string
	ChatTitle         string
	ChatType          string
	Text              string
	HasLinks          bool
	HasMedia          bool
	ReplyToID         *int64
	IsReply           bool
	Forwarded         bool
	Type              string
}

func (p *Pipeline) Ingest(ctx context.Context, in InboundMessage) Outcome {
	if !model.IsGroupChatType(in.ChatType) {
		return OutcomeIgnoredNonGroup
	}

	if p.dedup.Seen(in.ChatID, in.AuthorID, in.Text) {
		return OutcomeIgnoredDuplicate
	}

	dc := dbctx.Context{Ctx: ctx}

	if p.bans.IsBanned(dc, in.ChatID, in.AuthorID) {
		return OutcomeIgnoredBannedOrInactive
	}

	if err := p.chats.EnsureExists(dc, in.ChatID, in.ChatTitle, in.ChatType); err != nil {
		p.log.Error("ensure chat failed", "chat_id", in.ChatID, "error", err)
	}

	msg := &model.Message{
		ChatID: in.ChatID, MessageID: in.MessageID, ThreadID: in.ThreadID,
		AuthorID: in.AuthorID, AuthorUsername: in.AuthorUsername, AuthorDisplayName: in.AuthorDisplayName,
		Text: in.Text, HasLinks: in.HasLinks, HasMedia: in.HasMedia, ReplyToID: in.ReplyToID, Type: in.Type,
	}
	if err := p.messages.Save(dc, msg); err != nil {
		p.log.Error("save message failed", "chat_id", in.ChatID, "message_id", in.MessageID, "error", err)
		return OutcomeError
	}

	go p.fireAndForget(in)

	return OutcomeSaved
}

// fireAndForget runs the post-persist tasks spec.md §4.3 step 4 names,
// one after another in a single background goroutine. Each sub-task swallows its own errors (logged) so one failure
// never blocks another.
func (p *Pipeline) fireAndForget(in InboundMessage) {
	ctx := context.Background()
	dc := dbctx.Context{Ctx: ctx}

	if in.AuthorDisplayName != "" {
		if err := p.aliases.Upsert(dc, in.ChatID, in.AuthorID, in.AuthorDisplayName, model.AliasTypeDisplayName); err != nil {
			p.log.Warn("alias upsert failed", "error", err)
		}
	}

	if nickname, ok := ExtractNickname(in.Text, in.IsReply); ok {
		if err := p.aliases.Upsert(dc, in.ChatID, in.AuthorID, nickname, model.AliasTypeNickname); err != nil {
			p.log.Warn("nickname alias upsert failed", "error", err)
		}
	}

	for _, rel := range Extract(in.Text) {
		r := &model.UserRelationship{
			ChatID: in.ChatID, UserID: in.AuthorID,
			RelatedPersonName: rel.PersonName, RelationshipType: rel.Type,
			SurfaceLabel: rel.Label, Confidence: rel.Confidence,
		}
		if err := p.relationships.Upsert(dc, r, in.MessageID); err != nil {
			p.log.Warn("relationship upsert failed", "error", err)
		}
		if p.relGraph.Enabled() {
			if err := p.relGraph.UpsertEdge(ctx, r, in.AuthorDisplayName); err != nil {
				p.log.Warn("relationship graph mirror failed", "error", err)
			}
		}
	}

	if _, err := p.messageQueue.Enqueue(ctx, model.MessageQueuePayload{ChatID: in.ChatID, MessageID: in.MessageID, AuthorID: in.AuthorID}); err != nil {
		p.log.Warn("message queue enqueue failed", "error", err)
	}

	if utf8.RuneCountInString(in.Text) >= p.minLength && !in.Forwarded {
		if _, err := p.questionQueue.Enqueue(ctx, model.QuestionGenerationQueuePayload{ChatID: in.ChatID, MessageID: in.MessageID}); err != nil {
			p.log.Warn("question queue enqueue failed", "error", err)
		}
	}
}
