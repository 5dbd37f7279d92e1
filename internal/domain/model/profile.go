package model

import (
	"time"

	"gorm.io/datatypes"
)

// UserAlias records one observed alias for a user within a chat. Identity is
// (ChatID, UserID, Alias). Upsert increments UsageCount; lookup is
// case-insensitive and ranked by usage.
type UserAlias struct {
	ID int64 `gorm:"column:id;primaryKey" json:"id"`

	ChatID int64  `gorm:"column:chat_id;not null;index:idx_user_alias_identity,unique,priority:1" json:"chat_id"`
	UserID int64  `gorm:"column:user_id;not null;index:idx_user_alias_identity,unique,priority:2" json:"user_id"`
	Alias  string `gorm:"column:alias;not null;index:idx_user_alias_identity,unique,priority:3" json:"alias"`

	// AliasType is "display_name" or "nickname".
	AliasType string `gorm:"column:alias_type;not null;default:'nickname'" json:"alias_type"`

	UsageCount int       `gorm:"column:usage_count;not null;default:1" json:"usage_count"`
	FirstSeen  time.Time `gorm:"column:first_seen;not null;default:now()" json:"first_seen"`
	LastSeen   time.Time `gorm:"column:last_seen;not null;default:now();index" json:"last_seen"`
}

func (UserAlias) TableName() string { return "user_aliases" }

const (
	AliasTypeDisplayName = "display_name"
	AliasTypeNickname    = "nickname"
)

// UserFact is one piece of extracted knowledge about a user. Identity is
// (ChatID, UserID, FactText). Upsert rule: take max confidence, append
// source message ids.
type UserFact struct {
	ID int64 `gorm:"column:id;primaryKey" json:"id"`

	ChatID   int64  `gorm:"column:chat_id;not null;index:idx_user_fact_identity,unique,priority:1" json:"chat_id"`
	UserID   int64  `gorm:"column:user_id;not null;index:idx_user_fact_identity,unique,priority:2" json:"user_id"`
	FactText string `gorm:"column:fact_text;type:text;not null;index:idx_user_fact_identity,unique,priority:3" json:"fact_text"`

	// FactType is one of: likes, dislikes, said, does, knows, opinion.
	FactType string `gorm:"column:fact_type;not null;default:'said'" json:"fact_type"`

	Confidence     float64        `gorm:"column:confidence;not null;default:0.5" json:"confidence"`
	SourceMessageIDs datatypes.JSON `gorm:"column:source_message_ids;type:jsonb;not null;default:'[]'" json:"source_message_ids"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();index" json:"updated_at"`
}

func (UserFact) TableName() string { return "user_facts" }

const (
	FactTypeLikes    = "likes"
	FactTypeDislikes = "dislikes"
	FactTypeSaid     = "said"
	FactTypeDoes     = "does"
	FactTypeKnows    = "knows"
	FactTypeOpinion  = "opinion"
)

// UserProfile is the nightly-generated rollup for one user in one chat.
// Identity is (ChatID, UserID).
type UserProfile struct {
	ChatID int64 `gorm:"column:chat_id;primaryKey;autoIncrement:false" json:"chat_id"`
	UserID int64 `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"user_id"`

	DisplayName string `gorm:"column:display_name;not null;default:''" json:"display_name"`

	MessageCount    int64          `gorm:"column:message_count;not null;default:0" json:"message_count"`
	ActivityByHour  datatypes.JSON `gorm:"column:activity_by_hour;type:jsonb;not null;default:'{}'" json:"activity_by_hour"`

	Summary           string         `gorm:"column:summary;type:text;not null;default:''" json:"summary,omitempty"`
	CommunicationStyle string        `gorm:"column:communication_style;not null;default:''" json:"communication_style,omitempty"`
	RoleLabel         string         `gorm:"column:role_label;not null;default:''" json:"role_label,omitempty"`
	Interests         datatypes.JSON `gorm:"column:interests;type:jsonb;not null;default:'[]'" json:"interests,omitempty"`
	Traits            datatypes.JSON `gorm:"column:traits;type:jsonb;not null;default:'[]'" json:"traits,omitempty"`
	RoastMaterial     datatypes.JSON `gorm:"column:roast_material;type:jsonb;not null;default:'[]'" json:"roast_material,omitempty"`

	Gender           string  `gorm:"column:gender;not null;default:'unknown'" json:"gender"`
	GenderConfidence float64 `gorm:"column:gender_confidence;not null;default:0" json:"gender_confidence"`

	ProfileVersion int       `gorm:"column:profile_version;not null;default:0" json:"profile_version"`
	LastUpdated    time.Time `gorm:"column:last_updated;not null;default:now();index" json:"last_updated"`
}

func (UserProfile) TableName() string { return "user_profiles" }

const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderUnknown = "unknown"
)

// UserRelationship models one (user, related person) edge. Identity is
// (ChatID, UserID, RelatedPersonName, RelationshipType). Exclusive types
// (spouse, partner) deactivate prior instances when a different person
// appears.
type UserRelationship struct {
	ID int64 `gorm:"column:id;primaryKey" json:"id"`

	ChatID             int64  `gorm:"column:chat_id;not null;index:idx_user_relationship_identity,unique,priority:1" json:"chat_id"`
	UserID             int64  `gorm:"column:user_id;not null;index:idx_user_relationship_identity,unique,priority:2" json:"user_id"`
	RelatedPersonName  string `gorm:"column:related_person_name;not null;index:idx_user_relationship_identity,unique,priority:3" json:"related_person_name"`
	RelationshipType   string `gorm:"column:relationship_type;not null;index:idx_user_relationship_identity,unique,priority:4" json:"relationship_type"`

	RelatedUserID *int64 `gorm:"column:related_user_id;index" json:"related_user_id,omitempty"`
	SurfaceLabel  string `gorm:"column:surface_label;not null;default:''" json:"surface_label"`

	Confidence       float64        `gorm:"column:confidence;not null;default:0.5" json:"confidence"`
	MentionCount     int            `gorm:"column:mention_count;not null;default:1" json:"mention_count"`
	SourceMessageIDs datatypes.JSON `gorm:"column:source_message_ids;type:jsonb;not null;default:'[]'" json:"source_message_ids"`

	Active bool `gorm:"column:active;not null;default:true;index" json:"active"`

	FirstSeen time.Time  `gorm:"column:first_seen;not null;default:now()" json:"first_seen"`
	LastSeen  time.Time  `gorm:"column:last_seen;not null;default:now()" json:"last_seen"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
	EndReason string     `gorm:"column:end_reason;not null;default:''" json:"end_reason,omitempty"`
}

func (UserRelationship) TableName() string { return "user_relationships" }

// CanonicalRelationshipTypes are the recognised relationship_type values.
var CanonicalRelationshipTypes = map[string]bool{
	"spouse": true, "partner": true, "sibling": true, "parent": true,
	"child": true, "friend": true, "colleague": true, "relative": true,
}

// ExclusiveRelationshipTypes may only have one active row per (user, type).
var ExclusiveRelationshipTypes = map[string]bool{
	"spouse": true, "partner": true,
}

// ConversationMemoryItem is a durable memory fact distilled for use in the
// memory-context composer, profile.Composer (distinct from UserFact, which is
// per-user; memory items may be chat-scoped).
type ConversationMemoryItem struct {
	ID int64 `gorm:"column:id;primaryKey" json:"id"`

	ChatID int64  `gorm:"column:chat_id;not null;index" json:"chat_id"`
	Kind   string `gorm:"column:kind;not null;default:'fact'" json:"kind"` // fact|preference|decision
	Key    string `gorm:"column:key;not null" json:"key"`
	Value  string `gorm:"column:value;type:text;not null" json:"value"`

	Confidence       float64        `gorm:"column:confidence;not null;default:0.5" json:"confidence"`
	SourceMessageIDs datatypes.JSON `gorm:"column:source_message_ids;type:jsonb;not null;default:'[]'" json:"source_message_ids"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (ConversationMemoryItem) TableName() string { return "conversation_memory" }

// BannedUser and ChatSettings / AdminSettings / PromptSettings are
// straightforward persistence, not central to the core per spec.md §3.
type BannedUser struct {
	ChatID int64  `gorm:"column:chat_id;primaryKey;autoIncrement:false" json:"chat_id"`
	UserID int64  `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"user_id"`
	Reason string `gorm:"column:reason;not null;default:''" json:"reason,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}

func (BannedUser) TableName() string { return "banned_users" }

type ChatSettings struct {
	ChatID int64 `gorm:"column:chat_id;primaryKey;autoIncrement:false" json:"chat_id"`

	Mode     string `gorm:"column:mode;not null;default:'default'" json:"mode"`
	Language string `gorm:"column:language;not null;default:'ru'" json:"language"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (ChatSettings) TableName() string { return "chat_settings" }

type AdminSettings struct {
	Key   string `gorm:"column:key;primaryKey" json:"key"`
	Value string `gorm:"column:value;type:text;not null;default:''" json:"value"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (AdminSettings) TableName() string { return "admin_settings" }

type PromptSettings struct {
	// Key is "command:mode:language" (or a coarser fallback form).
	Key   string `gorm:"column:key;primaryKey" json:"key"`
	Value string `gorm:"column:value;type:text;not null;default:''" json:"value"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (PromptSettings) TableName() string { return "prompt_settings" }
