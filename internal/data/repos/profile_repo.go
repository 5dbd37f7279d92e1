package repos

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// ProfileRepo owns user_profiles. Gender updates never overwrite a higher
// confidence value (spec.md §4.9).
type ProfileRepo interface {
	Get(dc dbctx.Context, chatID, userID int64) (*model.UserProfile, error)
	Upsert(dc dbctx.Context, profile *model.UserProfile) error
	UpdateGenderIfMoreConfident(dc dbctx.Context, chatID, userID int64, gender string, confidence float64) error
	ListActiveUsers(dc dbctx.Context, chatID int64, minMessages int64, since time.Time) ([]int64, error)
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, log *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: log.With("repo", "ProfileRepo")}
}

func (r *profileRepo) tx(dc dbctx.Context) *gorm.DB {
	if dc.Tx != nil {
		return dc.Tx.WithContext(dc.Ctx)
	}
	return r.db.WithContext(dc.Ctx)
}

func (r *profileRepo) Get(dc dbctx.Context, chatID, userID int64) (*model.UserProfile, error) {
	var p model.UserProfile
	err := r.tx(dc).Where("chat_id = ? AND user_id = ?", chatID, userID).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) Upsert(dc dbctx.Context, profile *model.UserProfile) error {
	profile.LastUpdated = time.Now().UTC()
	return r.tx(dc).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "message_count", "activity_by_hour", "summary",
			"communication_style", "role_label", "interests", "traits",
			"roast_material", "profile_version", "last_updated",
		}),
	}).Create(profile).Error
}

func (r *profileRepo) UpdateGenderIfMoreConfident(dc dbctx.Context, chatID, userID int64, gender string, confidence float64) error {
	return r.tx(dc).Exec(`
		INSERT INTO user_profiles (chat_id, user_id, gender, gender_confidence, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (chat_id, user_id) DO UPDATE SET
			gender = CASE WHEN EXCLUDED.gender_confidence > user_profiles.gender_confidence THEN EXCLUDED.gender ELSE user_profiles.gender END,
			gender_confidence = GREATEST(user_profiles.gender_confidence, EXCLUDED.gender_confidence),
			last_updated = EXCLUDED.last_updated
	`, chatID, userID, gender, confidence, time.Now().UTC()).Error
}

func (r *profileRepo) ListActiveUsers(dc dbctx.Context, chatID int64, minMessages int64, since time.Time) ([]int64, error) {
	var out []int64
	err := r.tx(dc).Table("messages").
		Select("author_id").
		Where("chat_id = ? AND created_at >= ?", chatID, since).
		Group("author_id").
		Having("count(*) >= ?", minMessages).
		Scan(&out).Error
	return out, err
}
