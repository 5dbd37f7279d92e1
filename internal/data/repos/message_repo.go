package repos

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// MessageRepo is the message store (spec.md §2 item 2, §4.3). It writes
// messages idempotently, tracks which rows still lack embeddings, and
// exposes bulk fetches by time window and by cursor.
type MessageRepo interface {
	// Save is an idempotent upsert keyed on (chat_id, message_id); a repeat
	// save of the same identity is a no-op that still returns success
	// (spec.md §8 round-trip law "save -> fetch").
	Save(dc dbctx.Context, msg *model.Message) error
	GetByID(dc dbctx.Context, chatID, messageID int64) (*model.Message, error)
	ListByWindow(dc dbctx.Context, chatID int64, since time.Time, limit int) ([]*model.Message, error)

	// ListMissingPrimaryChunk returns messages in (chat, message) order that
	// are at least minLength runes long and have no row in
	// message_embeddings with chunk_index=0, bounded by limit. Used by
	// MessageEmbeddingHandler (spec.md §4.5, §8: "message with text length
	// < 6 => persisted; no embedding enqueued").
	ListMissingPrimaryChunk(dc dbctx.Context, minLength, limit int) ([]*model.Message, error)

	ListRecentByChat(dc dbctx.Context, chatID int64, limit int) ([]*model.Message, error)
	ListByIDs(dc dbctx.Context, chatID int64, messageIDs []int64) ([]*model.Message, error)

	CountByChatAndUser(dc dbctx.Context, chatID, userID int64) (int64, error)
	SampleByChatAndUser(dc dbctx.Context, chatID, userID int64, limit int) ([]*model.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) tx(dc dbctx.Context) *gorm.DB {
	if dc.Tx != nil {
		return dc.Tx.WithContext(dc.Ctx)
	}
	return r.db.WithContext(dc.Ctx)
}

func (r *messageRepo) Save(dc dbctx.Context, msg *model.Message) error {
	if msg == nil {
		return nil
	}
	return r.tx(dc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "message_id"}},
			DoNothing: true,
		}).
		Create(msg).Error
}

func (r *messageRepo) GetByID(dc dbctx.Context, chatID, messageID int64) (*model.Message, error) {
	var m model.Message
	err := r.tx(dc).Where("chat_id = ? AND message_id = ?", chatID, messageID).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *messageRepo) ListByWindow(dc dbctx.Context, chatID int64, since time.Time, limit int) ([]*model.Message, error) {
	var out []*model.Message
	q := r.tx(dc).Where("chat_id = ? AND created_at >= ?", chatID, since).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) ListMissingPrimaryChunk(dc dbctx.Context, minLength, limit int) ([]*model.Message, error) {
	if minLength <= 0 {
		minLength = 1
	}
	var out []*model.Message
	q := r.tx(dc).
		Where("text IS NOT NULL AND length(text) >= ?", minLength).
		Where(`NOT EXISTS (
			SELECT 1 FROM message_embeddings me
			WHERE me.chat_id = messages.chat_id AND me.message_id = messages.message_id AND me.chunk_index = 0
		)`).
		Order("chat_id ASC, message_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) ListRecentByChat(dc dbctx.Context, chatID int64, limit int) ([]*model.Message, error) {
	var out []*model.Message
	q := r.tx(dc).Where("chat_id = ?", chatID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *messageRepo) ListByIDs(dc dbctx.Context, chatID int64, messageIDs []int64) ([]*model.Message, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var out []*model.Message
	if err := r.tx(dc).Where("chat_id = ? AND message_id IN ?", chatID, messageIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) CountByChatAndUser(dc dbctx.Context, chatID, userID int64) (int64, error) {
	var n int64
	err := r.tx(dc).Model(&model.Message{}).Where("chat_id = ? AND author_id = ?", chatID, userID).Count(&n).Error
	return n, err
}

func (r *messageRepo) SampleByChatAndUser(dc dbctx.Context, chatID, userID int64, limit int) ([]*model.Message, error) {
	var out []*model.Message
	q := r.tx(dc).Where("chat_id = ? AND author_id = ?", chatID, userID).Order("random()")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
