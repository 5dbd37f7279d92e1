package repos

import (
	"encoding/json"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// VectorHit is one kNN result: the owning (chat, message) identity plus the
// similarity score (cosine similarity, higher is better) and the indexed
// text, normalised across the three embedding tables so the retrieval
// engine's candidate gathering (spec.md §4.6 step 4) can treat them
// uniformly.
type VectorHit struct {
	ChatID    int64
	MessageID int64
	Text      string
	Score     float64
}

// LexicalHit is one full-text search result over raw message text.
type LexicalHit struct {
	ChatID    int64
	MessageID int64
	Text      string
	AuthorID  int64
	Rank      float64
}

type EmbeddingRepo interface {
	InsertMessageChunk(dc dbctx.Context, chatID, messageID int64, chunkIndex int, text string, vec []float32, metadata map[string]any) error
	InsertContextWindow(dc dbctx.Context, chatID, windowStartMessageID int64, text string, memberIDs []int64, vec []float32) error
	ContextWindowExists(dc dbctx.Context, chatID, windowStartMessageID int64) (bool, error)
	InsertQuestion(dc dbctx.Context, chatID, messageID int64, questionIndex int, question string, vec []float32) error

	QueryMessagesByVector(dc dbctx.Context, chatID *int64, authorIDs []int64, vec []float32, topK int) ([]VectorHit, error)
	QueryContextByVector(dc dbctx.Context, chatID *int64, vec []float32, topK int) ([]VectorHit, error)
	QueryQuestionsByVector(dc dbctx.Context, chatID *int64, vec []float32, topK int) ([]VectorHit, error)

	LexicalSearchMessages(dc dbctx.Context, chatID *int64, authorIDs []int64, query string, topK int) ([]LexicalHit, error)

	CountMessageEmbeddings(dc dbctx.Context) (int64, error)
}

type embeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmbeddingRepo(db *gorm.DB, log *logger.Logger) EmbeddingRepo {
	return &embeddingRepo{db: db, log: log.With("repo", "EmbeddingRepo")}
}

func (r *embeddingRepo) tx(dc dbctx.Context) *gorm.DB {
	if dc.Tx != nil {
		return dc.Tx.WithContext(dc.Ctx)
	}
	return r.db.WithContext(dc.Ctx)
}

func (r *embeddingRepo) InsertMessageChunk(dc dbctx.Context, chatID, messageID int64, chunkIndex int, text string, vec []float32, metadata map[string]any) error {
	raw, _ := json.Marshal(metadata)
	if raw == nil {
		raw = []byte("{}")
	}
	row := &model.MessageEmbedding{
		ChatID: chatID, MessageID: messageID, ChunkIndex: chunkIndex,
		ChunkText: text, Embedding: pgvector.NewVector(vec), Metadata: datatypes.JSON(raw),
	}
	return r.tx(dc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "message_id"}, {Name: "chunk_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"chunk_text", "embedding", "metadata"}),
	}).Create(row).Error
}

func (r *embeddingRepo) InsertContextWindow(dc dbctx.Context, chatID, windowStartMessageID int64, text string, memberIDs []int64, vec []float32) error {
	raw, _ := json.Marshal(memberIDs)
	row := &model.ContextEmbedding{
		ChatID: chatID, WindowStartMessageID: windowStartMessageID,
		WindowText: text, MemberMessageIDs: datatypes.JSON(raw), Embedding: pgvector.NewVector(vec),
	}
	return r.tx(dc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "window_start_message_id"}},
		DoNothing: true,
	}).Create(row).Error
}

func (r *embeddingRepo) ContextWindowExists(dc dbctx.Context, chatID, windowStartMessageID int64) (bool, error) {
	var n int64
	err := r.tx(dc).Model(&model.ContextEmbedding{}).
		Where("chat_id = ? AND window_start_message_id = ?", chatID, windowStartMessageID).
		Count(&n).Error
	return n > 0, err
}

func (r *embeddingRepo) InsertQuestion(dc dbctx.Context, chatID, messageID int64, questionIndex int, question string, vec []float32) error {
	row := &model.QuestionEmbedding{
		ChatID: chatID, MessageID: messageID, QuestionIndex: questionIndex,
		QuestionText: question, Embedding: pgvector.NewVector(vec),
	}
	return r.tx(dc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "message_id"}, {Name: "question_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"question_text", "embedding"}),
	}).Create(row).Error
}

func (r *embeddingRepo) QueryMessagesByVector(dc dbctx.Context, chatID *int64, authorIDs []int64, vec []float32, topK int) ([]VectorHit, error) {
	q := r.tx(dc).Table("message_embeddings").
		Select("chat_id, message_id, chunk_text AS text, 1 - (embedding <=> ?) AS score", pgvector.NewVector(vec))
	if chatID != nil {
		q = q.Where("chat_id = ?", *chatID)
	}
	if len(authorIDs) > 0 {
		q = q.Where("message_id IN (SELECT message_id FROM messages WHERE messages.chat_id = message_embeddings.chat_id AND author_id IN ?)", authorIDs)
	}
	var out []VectorHit
	err := q.Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{pgvector.NewVector(vec)}}}).Limit(topK).Scan(&out).Error
	return out, err
}

func (r *embeddingRepo) QueryContextByVector(dc dbctx.Context, chatID *int64, vec []float32, topK int) ([]VectorHit, error) {
	q := r.tx(dc).Table("context_embeddings").
		Select("chat_id, window_start_message_id AS message_id, window_text AS text, 1 - (embedding <=> ?) AS score", pgvector.NewVector(vec))
	if chatID != nil {
		q = q.Where("chat_id = ?", *chatID)
	}
	var out []VectorHit
	err := q.Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{pgvector.NewVector(vec)}}}).Limit(topK).Scan(&out).Error
	return out, err
}

func (r *embeddingRepo) QueryQuestionsByVector(dc dbctx.Context, chatID *int64, vec []float32, topK int) ([]VectorHit, error) {
	q := r.tx(dc).Table("question_embeddings").
		Select("chat_id, message_id, question_text AS text, 1 - (embedding <=> ?) AS score", pgvector.NewVector(vec))
	if chatID != nil {
		q = q.Where("chat_id = ?", *chatID)
	}
	var out []VectorHit
	err := q.Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{pgvector.NewVector(vec)}}}).Limit(topK).Scan(&out).Error
	return out, err
}

func (r *embeddingRepo) LexicalSearchMessages(dc dbctx.Context, chatID *int64, authorIDs []int64, query string, topK int) ([]LexicalHit, error) {
	q := r.tx(dc).Table("messages").
		Select("chat_id, message_id, text, author_id, ts_rank(to_tsvector('simple', coalesce(text, '')), plainto_tsquery('simple', ?)) AS rank", query).
		Where("to_tsvector('simple', coalesce(text, '')) @@ plainto_tsquery('simple', ?)", query)
	if chatID != nil {
		q = q.Where("chat_id = ?", *chatID)
	}
	if len(authorIDs) > 0 {
		q = q.Where("author_id IN ?", authorIDs)
	}
	var out []LexicalHit
	err := q.Order("rank DESC").Limit(topK).Scan(&out).Error
	return out, err
}

func (r *embeddingRepo) CountMessageEmbeddings(dc dbctx.Context) (int64, error) {
	var n int64
	err := r.tx(dc).Model(&model.MessageEmbedding{}).Count(&n).Error
	return n, err
}
