package repos

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// MemoryRepo owns conversation_memory, the chat-scoped durable-fact store
// written by the summary worker and read by profile.Composer's memory
// context.
type MemoryRepo interface {
	Upsert(dc dbctx.Context, chatID int64, kind, key, value string, confidence float64, sourceMessageID int64) error
	ListByChat(dc dbctx.Context, chatID int64, kind string) ([]*model.ConversationMemoryItem, error)
}

type memoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoryRepo(db *gorm.DB, log *logger.Logger) MemoryRepo {
	return &memoryRepo{db: db, log: log.With("repo", "MemoryRepo")}
}

func (r *memoryRepo) tx(dc dbctx.Context) *gorm.DB {
	if dc.Tx != nil {
		return dc.Tx.WithContext(dc.Ctx)
	}
	return r.db.WithContext(dc.Ctx)
}

func (r *memoryRepo) Upsert(dc dbctx.Context, chatID int64, kind, key, value string, confidence float64, sourceMessageID int64) error {
	var existing model.ConversationMemoryItem
	err := r.tx(dc).Where("chat_id = ? AND kind = ? AND key = ?", chatID, kind, key).First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		raw, _ := json.Marshal([]int64{sourceMessageID})
		row := &model.ConversationMemoryItem{
			ChatID: chatID, Kind: kind, Key: key, Value: value,
			Confidence: confidence, SourceMessageIDs: raw,
		}
		return r.tx(dc).Create(row).Error
	}
	if err != nil {
		return err
	}

	var ids []int64
	_ = json.Unmarshal(existing.SourceMessageIDs, &ids)
	if !containsInt64(ids, sourceMessageID) {
		ids = append(ids, sourceMessageID)
	}
	raw, _ := json.Marshal(ids)

	newConfidence := existing.Confidence
	if confidence > newConfidence {
		newConfidence = confidence
	}

	return r.tx(dc).Model(&model.ConversationMemoryItem{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"value":              value,
			"confidence":         newConfidence,
			"source_message_ids": raw,
		}).Error
}

func (r *memoryRepo) ListByChat(dc dbctx.Context, chatID int64, kind string) ([]*model.ConversationMemoryItem, error) {
	q := r.tx(dc).Where("chat_id = ?", chatID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []*model.ConversationMemoryItem
	err := q.Order("confidence DESC").Find(&out).Error
	return out, err
}
