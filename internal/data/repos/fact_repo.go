package repos

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// FactRepo upserts facts with the spec.md §3 rule: take max confidence,
// append source message ids; confidence is monotonic (spec.md §8 universal
// invariant).
type FactRepo interface {
	Upsert(dc dbctx.Context, chatID, userID int64, factText, factType string, confidence float64, sourceMessageID int64) error
	TopByConfidence(dc dbctx.Context, chatID, userID int64, limit int) ([]*model.UserFact, error)
	ListByChatAndUser(dc dbctx.Context, chatID, userID int64) ([]*model.UserFact, error)
}

type factRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFactRepo(db *gorm.DB, log *logger.Logger) FactRepo {
	return &factRepo{db: db, log: log.With("repo", "FactRepo")}
}

func (r *factRepo) tx(dc dbctx.Context) *gorm.DB {
	if dc.Tx != nil {
		return dc.Tx.WithContext(dc.Ctx)
	}
	return r.db.WithContext(dc.Ctx)
}

// Upsert is intentionally implemented as a read-modify-write inside the
// caller's transaction rather than a single SQL statement: merging the
// source_message_ids jsonb array needs application-level dedup, which a
// plain ON CONFLICT DO UPDATE cannot express without a custom aggregate.
func (r *factRepo) Upsert(dc dbctx.Context, chatID, userID int64, factText, factType string, confidence float64, sourceMessageID int64) error {
	var existing model.UserFact
	err := r.tx(dc).
		Where("chat_id = ? AND user_id = ? AND fact_text = ?", chatID, userID, factText).
		First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		raw, _ := json.Marshal([]int64{sourceMessageID})
		row := &model.UserFact{
			ChatID: chatID, UserID: userID, FactText: factText, FactType: factType,
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

	return r.tx(dc).Model(&model.UserFact{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"confidence":         newConfidence,
			"source_message_ids": raw,
		}).Error
}

func (r *factRepo) TopByConfidence(dc dbctx.Context, chatID, userID int64, limit int) ([]*model.UserFact, error) {
	var out []*model.UserFact
	q := r.tx(dc).Where("chat_id = ? AND user_id = ?", chatID, userID).Order("confidence DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *factRepo) ListByChatAndUser(dc dbctx.Context, chatID, userID int64) ([]*model.UserFact, error) {
	var out []*model.UserFact
	err := r.tx(dc).Where("chat_id = ? AND user_id = ?", chatID, userID).Find(&out).Error
	return out, err
}

func containsInt64(s []int64, v int64) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
