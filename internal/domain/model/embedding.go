package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// MessageEmbedding indexes one chunk of one message. Identity is
// (ChatID, MessageID, ChunkIndex). Each (chat, message) has at most one
// primary chunk (ChunkIndex=0) today; the column exists so a future chunking
// strategy can add more without a migration.
type MessageEmbedding struct {
	ID         int64  `gorm:"column:id;primaryKey" json:"id"`
	ChatID     int64  `gorm:"column:chat_id;not null;index:idx_message_embedding_identity,unique,priority:1" json:"chat_id"`
	MessageID  int64  `gorm:"column:message_id;not null;index:idx_message_embedding_identity,unique,priority:2" json:"message_id"`
	ChunkIndex int    `gorm:"column:chunk_index;not null;default:0;index:idx_message_embedding_identity,unique,priority:3" json:"chunk_index"`
	ChunkText  string `gorm:"column:chunk_text;type:text;not null" json:"chunk_text"`

	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(1536);not null" json:"-"`
	Metadata  datatypes.JSON  `gorm:"column:metadata;type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index" json:"created_at"`
}

func (MessageEmbedding) TableName() string { return "message_embeddings" }

// ContextEmbedding is a sliding-window embedding over N consecutive messages
// of one chat. Identity is (ChatID, WindowStartMessageID). Windows may
// overlap; only windows whose every member message exists are indexed.
type ContextEmbedding struct {
	ID                  int64          `gorm:"column:id;primaryKey" json:"id"`
	ChatID              int64          `gorm:"column:chat_id;not null;index:idx_context_embedding_identity,unique,priority:1" json:"chat_id"`
	WindowStartMessageID int64         `gorm:"column:window_start_message_id;not null;index:idx_context_embedding_identity,unique,priority:2" json:"window_start_message_id"`
	WindowText          string         `gorm:"column:window_text;type:text;not null" json:"window_text"`
	MemberMessageIDs    datatypes.JSON `gorm:"column:member_message_ids;type:jsonb;not null;default:'[]'" json:"member_message_ids"`

	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(1536);not null" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index" json:"created_at"`
}

func (ContextEmbedding) TableName() string { return "context_embeddings" }

// QuestionEmbedding indexes an LLM-generated hypothetical question derived
// from a message (the "Q to A bridge"). Identity is (ChatID, MessageID,
// QuestionIndex).
type QuestionEmbedding struct {
	ID            int64  `gorm:"column:id;primaryKey" json:"id"`
	ChatID        int64  `gorm:"column:chat_id;not null;index:idx_question_embedding_identity,unique,priority:1" json:"chat_id"`
	MessageID     int64  `gorm:"column:message_id;not null;index:idx_question_embedding_identity,unique,priority:2" json:"message_id"`
	QuestionIndex int    `gorm:"column:question_index;not null;index:idx_question_embedding_identity,unique,priority:3" json:"question_index"`
	QuestionText  string `gorm:"column:question_text;type:text;not null" json:"question_text"`

	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(1536);not null" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index" json:"created_at"`
}

func (QuestionEmbedding) TableName() string { return "question_embeddings" }
