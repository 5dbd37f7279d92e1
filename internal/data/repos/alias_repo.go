package repos

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// AliasRepo implements the alias service's storage: upsert increments usage
// count, case-insensitive lookup ranks candidates by usage (spec.md §3 User
// alias).
type AliasRepo interface {
	Upsert(dc dbctx.Context, chatID, userID int64, alias, aliasType string) error
	ResolveCandidates(dc dbctx.Context, chatID int64, alias string) ([]*model.UserAlias, error)
}

type aliasRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAliasRepo(db *gorm.DB, log *logger.Logger) AliasRepo {
	return &aliasRepo{db: db, log: log.With("repo", "AliasRepo")}
}

func (r *aliasRepo) tx(dc dbctx.Context) *gorm.DB {
	if dc.Tx != nil {
		return dc.Tx.WithContext(dc.Ctx)
	}
	return r.db.WithContext(dc.Ctx)
}

func (r *aliasRepo) Upsert(dc dbctx.Context, chatID, userID int64, alias, aliasType string) error {
	now := time.Now().UTC()
	return r.tx(dc).Exec(`
		INSERT INTO user_aliases (chat_id, user_id, alias, alias_type, usage_count, first_seen, last_seen)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (chat_id, user_id, alias) DO UPDATE SET
			usage_count = user_aliases.usage_count + 1,
			last_seen = EXCLUDED.last_seen
	`, chatID, userID, alias, aliasType, now, now).Error
}

func (r *aliasRepo) ResolveCandidates(dc dbctx.Context, chatID int64, alias string) ([]*model.UserAlias, error) {
	var out []*model.UserAlias
	err := r.tx(dc).
		Where("chat_id = ? AND lower(alias) = lower(?)", chatID, alias).
		Order("usage_count DESC").
		Find(&out).Error
	return out, err
}
