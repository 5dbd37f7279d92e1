package repos

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// ChatRepo owns the chats table: created lazily on first message,
// deactivated when the transport reports the chat is permanently
// unreachable (spec.md §3 Chat).
type ChatRepo interface {
	EnsureExists(dc dbctx.Context, chatID int64, title, chatType string) error
	Deactivate(dc dbctx.Context, chatID int64, reason string) error
	Reactivate(dc dbctx.Context, chatID int64) error
	GetByID(dc dbctx.Context, chatID int64) (*model.Chat, error)
	ListActive(dc dbctx.Context) ([]*model.Chat, error)
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, log *logger.Logger) ChatRepo {
	return &chatRepo{db: db, log: log.With("repo", "ChatRepo")}
}

func (r *chatRepo) tx(dc dbctx.Context) *gorm.DB {
	if dc.Tx != nil {
		return dc.Tx.WithContext(dc.Ctx)
	}
	return r.db.WithContext(dc.Ctx)
}

func (r *chatRepo) EnsureExists(dc dbctx.Context, chatID int64, title, chatType string) error {
	c := &model.Chat{ChatID: chatID, Title: title, Type: chatType, IsActive: true}
	return r.tx(dc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "type", "updated_at"}),
		}).
		Create(c).Error
}

func (r *chatRepo) Deactivate(dc dbctx.Context, chatID int64, reason string) error {
	now := time.Now().UTC()
	return r.tx(dc).Model(&model.Chat{}).Where("chat_id = ?", chatID).Updates(map[string]any{
		"is_active":           false,
		"deactivation_reason": reason,
		"deactivated_at":      &now,
		"updated_at":          now,
	}).Error
}

func (r *chatRepo) Reactivate(dc dbctx.Context, chatID int64) error {
	return r.tx(dc).Model(&model.Chat{}).Where("chat_id = ?", chatID).Updates(map[string]any{
		"is_active":           true,
		"deactivation_reason": "",
		"deactivated_at":      nil,
		"updated_at":          time.Now().UTC(),
	}).Error
}

func (r *chatRepo) GetByID(dc dbctx.Context, chatID int64) (*model.Chat, error) {
	var c model.Chat
	err := r.tx(dc).Where("chat_id = ?", chatID).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *chatRepo) ListActive(dc dbctx.Context) ([]*model.Chat, error) {
	var out []*model.Chat
	if err := r.tx(dc).Where("is_active = true").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
