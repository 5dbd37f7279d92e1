package indexing

import (
	"context"
	"time"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/embedding"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// MessageEmbeddingHandler embeds the primary chunk (chunk_index=0) of every
// message that lacks one (spec.md §4.5).
type MessageEmbeddingHandler struct {
	messages   repos.MessageRepo
	embeddings repos.EmbeddingRepo
	embedder   embedding.Provider
	minLength  int
	log        *logger.Logger
}

func NewMessageEmbeddingHandler(messages repos.MessageRepo, embeddings repos.EmbeddingRepo, embedder embedding.Provider, minLength int, log *logger.Logger) *MessageEmbeddingHandler {
	if minLength <= 0 {
		minLength = 6
	}
	return &MessageEmbeddingHandler{messages: messages, embeddings: embeddings, embedder: embedder, minLength: minLength, log: log.With("handler", "MessageEmbeddingHandler")}
}

func (h *MessageEmbeddingHandler) Name() string { return "message_embedding" }

func (h *MessageEmbeddingHandler) GetStats(ctx context.Context) (Stats, error) {
	dc := dbctx.Context{Ctx: ctx}
	indexed, err := h.embeddings.CountMessageEmbeddings(dc)
	if err != nil {
		return Stats{}, err
	}
	pending, err := h.messages.ListMissingPrimaryChunk(dc, h.minLength, 0)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Total: indexed + int64(len(pending)), Indexed: indexed, Pending: int64(len(pending))}, nil
}

func (h *MessageEmbeddingHandler) ProcessBatch(ctx context.Context, size int) (BatchResult, error) {
	start := time.Now()
	dc := dbctx.Context{Ctx: ctx}

	batch, err := h.messages.ListMissingPrimaryChunk(dc, h.minLength, size)
	if err != nil {
		return BatchResult{}, err
	}
	if len(batch) == 0 {
		return BatchResult{Processed: 0, Elapsed: time.Since(start), HasMore: false}, nil
	}

	texts := make([]string, len(batch))
	for i, m := range batch {
		texts[i] = m.Text
	}

	vectors, err := h.embedder.Embed(ctx, texts)
	if err != nil {
		if rl, ok := asRateLimited(err); ok {
			return BatchResult{}, rl
		}
		return BatchResult{}, err
	}

	for i, m := range batch {
		if i >= len(vectors) || vectors[i] == nil {
			continue
		}
		if err := h.embeddings.InsertMessageChunk(dc, m.ChatID, m.MessageID, 0, m.Text, vectors[i], nil); err != nil {
			h.log.Error("insert message chunk failed", "chat_id", m.ChatID, "message_id", m.MessageID, "error", err)
		}
	}

	return BatchResult{Processed: len(batch), Elapsed: time.Since(start), HasMore: len(batch) == size}, nil
}
