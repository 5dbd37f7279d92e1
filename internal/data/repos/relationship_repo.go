package repos

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// RelationshipRepo owns user_relationships. Exclusive types (spouse,
// partner) deactivate the prior active instance when a different person
// appears for that type (spec.md §3, §8 "Relationship of exclusive type is
// singular per user").
type RelationshipRepo interface {
	Upsert(dc dbctx.Context, rel *model.UserRelationship, sourceMessageID int64) error
	ListActiveByUser(dc dbctx.Context, chatID, userID int64) ([]*model.UserRelationship, error)
	DeactivateExclusiveExcept(dc dbctx.Context, chatID, userID int64, relType, keepPersonName, reason string) error
}

type relationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRelationshipRepo(db *gorm.DB, log *logger.Logger) RelationshipRepo {
	return &relationshipRepo{db: db, log: log.With("repo", "RelationshipRepo")}
}

func (r *relationshipRepo) tx(dc dbctx.Context) *gorm.DB {
	if dc.Tx != nil {
		return dc.Tx.WithContext(dc.Ctx)
	}
	return r.db.WithContext(dc.Ctx)
}

func (r *relationshipRepo) Upsert(dc dbctx.Context, rel *model.UserRelationship, sourceMessageID int64) error {
	if rel == nil {
		return nil
	}

	if model.ExclusiveRelationshipTypes[rel.RelationshipType] {
		if err := r.DeactivateExclusiveExcept(dc, rel.ChatID, rel.UserID, rel.RelationshipType, rel.RelatedPersonName, "superseded by a new exclusive relationship"); err != nil {
			return err
		}
	}

	var existing model.UserRelationship
	err := r.tx(dc).Where(
		"chat_id = ? AND user_id = ? AND related_person_name = ? AND relationship_type = ?",
		rel.ChatID, rel.UserID, rel.RelatedPersonName, rel.RelationshipType,
	).First(&existing).Error

	now := time.Now().UTC()
	if err == gorm.ErrRecordNotFound {
		raw, _ := json.Marshal([]int64{sourceMessageID})
		rel.SourceMessageIDs = raw
		rel.Active = true
		rel.FirstSeen = now
		rel.LastSeen = now
		return r.tx(dc).Create(rel).Error
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

	confidence := existing.Confidence
	if rel.Confidence > confidence {
		confidence = rel.Confidence
	}

	return r.tx(dc).Model(&model.UserRelationship{}).Where("id = ?", existing.ID).Updates(map[string]any{
		"confidence":         confidence,
		"mention_count":      existing.MentionCount + 1,
		"source_message_ids": raw,
		"active":             true,
		"last_seen":          now,
		"surface_label":      rel.SurfaceLabel,
	}).Error
}

func (r *relationshipRepo) ListActiveByUser(dc dbctx.Context, chatID, userID int64) ([]*model.UserRelationship, error) {
	var out []*model.UserRelationship
	err := r.tx(dc).Where("chat_id = ? AND user_id = ? AND active = true", chatID, userID).Find(&out).Error
	return out, err
}

func (r *relationshipRepo) DeactivateExclusiveExcept(dc dbctx.Context, chatID, userID int64, relType, keepPersonName, reason string) error {
	now := time.Now().UTC()
	return r.tx(dc).Model(&model.UserRelationship{}).
		Where("chat_id = ? AND user_id = ? AND relationship_type = ? AND related_person_name <> ? AND active = true", chatID, userID, relType, keepPersonName).
		Updates(map[string]any{
			"active":     false,
			"ended_at":   &now,
			"end_reason": reason,
		}).Error
}
