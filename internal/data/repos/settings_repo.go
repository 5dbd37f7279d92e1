package repos

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// SettingsRepo owns banned_users, chat_settings, admin_settings and
// prompt_settings. Callers are expected to wrap reads with a fail-open cache
// (spec.md §7: a settings-store failure must never block message handling).
type SettingsRepo interface {
	IsBanned(dc dbctx.Context, chatID, userID int64) (bool, error)
	Ban(dc dbctx.Context, chatID, userID int64, reason string) error
	Unban(dc dbctx.Context, chatID, userID int64) error

	GetChatSettings(dc dbctx.Context, chatID int64) (*model.ChatSettings, error)
	SetChatSettings(dc dbctx.Context, settings *model.ChatSettings) error

	GetAdminSetting(dc dbctx.Context, key string) (string, bool, error)
	SetAdminSetting(dc dbctx.Context, key, value string) error

	GetPrompt(dc dbctx.Context, key string) (string, bool, error)
	SetPrompt(dc dbctx.Context, key, value string) error
}

type settingsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSettingsRepo(db *gorm.DB, log *logger.Logger) SettingsRepo {
	return &settingsRepo{db: db, log: log.With("repo", "SettingsRepo")}
}

func (r *settingsRepo) tx(dc dbctx.Context) *gorm.DB {
	if dc.Tx != nil {
		return dc.Tx.WithContext(dc.Ctx)
	}
	return r.db.WithContext(dc.Ctx)
}

func (r *settingsRepo) IsBanned(dc dbctx.Context, chatID, userID int64) (bool, error) {
	var n int64
	err := r.tx(dc).Model(&model.BannedUser{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *settingsRepo) Ban(dc dbctx.Context, chatID, userID int64, reason string) error {
	row := &model.BannedUser{ChatID: chatID, UserID: userID, Reason: reason}
	return r.tx(dc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reason"}),
	}).Create(row).Error
}

func (r *settingsRepo) Unban(dc dbctx.Context, chatID, userID int64) error {
	return r.tx(dc).Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&model.BannedUser{}).Error
}

func (r *settingsRepo) GetChatSettings(dc dbctx.Context, chatID int64) (*model.ChatSettings, error) {
	var s model.ChatSettings
	err := r.tx(dc).Where("chat_id = ?", chatID).First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return &model.ChatSettings{ChatID: chatID, Mode: "default", Language: "ru"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) SetChatSettings(dc dbctx.Context, settings *model.ChatSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	return r.tx(dc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mode", "language", "updated_at"}),
	}).Create(settings).Error
}

func (r *settingsRepo) GetAdminSetting(dc dbctx.Context, key string) (string, bool, error) {
	var row model.AdminSettings
	err := r.tx(dc).Where("key = ?", key).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (r *settingsRepo) SetAdminSetting(dc dbctx.Context, key, value string) error {
	row := &model.AdminSettings{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.tx(dc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(row).Error
}

func (r *settingsRepo) GetPrompt(dc dbctx.Context, key string) (string, bool, error) {
	var row model.PromptSettings
	err := r.tx(dc).Where("key = ?", key).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (r *settingsRepo) SetPrompt(dc dbctx.Context, key, value string) error {
	row := &model.PromptSettings{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.tx(dc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(row).Error
}
