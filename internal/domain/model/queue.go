package model

import (
	"time"

	"gorm.io/datatypes"
)

// QueueRow is the common shape of every work-queue table named in spec.md
// §6 (ask_queue, summary_queue, truth_queue, message_queue,
// question_generation_queue). The queue package's ResilientQueueService
// operates generically over this shape plus an opaque jsonb Payload column,
// so one Go type and one set of SQL statements serve every queue; only the
// table name differs (see queue.Config.Table).
//
// A row is "ready" iff:
//
//	processed = false AND next_run_at <= now()
//	AND (picked_at IS NULL OR picked_at < now() - lease)
//	AND attempt_count < max_attempts
type QueueRow struct {
	ID int64 `gorm:"column:id;primaryKey" json:"id"`

	Payload datatypes.JSON `gorm:"column:payload;type:jsonb;not null;default:'{}'" json:"payload"`

	CreatedAt   time.Time  `gorm:"column:created_at;not null;default:now();index" json:"created_at"`
	PickedAt    *time.Time `gorm:"column:picked_at;index" json:"picked_at,omitempty"`
	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	AttemptCount int        `gorm:"column:attempt_count;not null;default:0" json:"attempt_count"`
	NextRunAt    time.Time  `gorm:"column:next_run_at;not null;default:now();index" json:"next_run_at"`
	Processed    bool       `gorm:"column:processed;not null;default:false;index" json:"processed"`
	LastError    string     `gorm:"column:last_error;type:text;not null;default:''" json:"last_error,omitempty"`
}

// Queue table names, one per logical queue (spec.md §2 item 3, §6).
const (
	TableAskQueue                = "ask_queue"
	TableSummaryQueue            = "summary_queue"
	TableTruthQueue              = "truth_queue"
	TableMessageQueue            = "message_queue"
	TableQuestionGenerationQueue = "question_generation_queue"
)

// AskQueuePayload.Command values (spec.md §4.10/§6).
const (
	AskCommandAsk   = "ask"
	AskCommandSmart = "smart"
)

// AskQueuePayload is the payload shape enqueued by /ask and /smart.
type AskQueuePayload struct {
	ChatID            int64  `json:"chat_id"`
	UserID            int64  `json:"user_id"`
	AskerDisplayName  string `json:"asker_display_name"`
	AskerUsername     string `json:"asker_username"`
	Question          string `json:"question"`
	Command           string `json:"command"` // "ask" | "smart"
}

// SummaryQueuePayload is the payload enqueued by /summary and the daily scheduler.
type SummaryQueuePayload struct {
	ChatID int64 `json:"chat_id"`
	Hours  int   `json:"hours"`
}

// TruthQueuePayload is the payload enqueued by /truth.
type TruthQueuePayload struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
	Count  int   `json:"count"`
}

// MessageQueuePayload is the payload enqueued by ingestion for fact/profile processing.
type MessageQueuePayload struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
	AuthorID  int64 `json:"author_id"`
}

// QuestionGenerationQueuePayload drives QuestionGenerationHandler (§4.5).
type QuestionGenerationQueuePayload struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}
