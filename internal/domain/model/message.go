package model

import "time"

// Message is a single observed chat message. Identity is (ChatID, MessageID).
// Messages are created on first observation and never mutated afterward.
type Message struct {
	ChatID    int64 `gorm:"column:chat_id;primaryKey;autoIncrement:false" json:"chat_id"`
	MessageID int64 `gorm:"column:message_id;primaryKey;autoIncrement:false" json:"message_id"`

	ThreadID *int64 `gorm:"column:thread_id;index" json:"thread_id,omitempty"`
	AuthorID int64  `gorm:"column:author_id;not null;index" json:"author_id"`

	AuthorUsername    string `gorm:"column:author_username;not null;default:''" json:"author_username"`
	AuthorDisplayName string `gorm:"column:author_display_name;not null;default:''" json:"author_display_name"`

	Text string `gorm:"column:text;type:text" json:"text,omitempty"`

	HasLinks bool `gorm:"column:has_links;not null;default:false" json:"has_links"`
	HasMedia bool `gorm:"column:has_media;not null;default:false" json:"has_media"`

	ReplyToID *int64 `gorm:"column:reply_to_id;index" json:"reply_to_id,omitempty"`
	Type      string `gorm:"column:type;not null;default:'text';index" json:"type"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// GroupChatTypes enumerates the message.Type values that are recognised as
// belonging to a group chat. Anything else is discarded before persistence
// per spec.md §3 Message invariant.
var GroupChatTypes = map[string]bool{
	"group":      true,
	"supergroup": true,
}

func IsGroupChatType(t string) bool {
	return GroupChatTypes[t]
}

// ChatTypePrivate is the message/chat Type value for a one-on-one chat,
// used to branch /start and to gate admin commands (spec.md §6).
const ChatTypePrivate = "private"

// Chat is created lazily on first message and deactivated when the
// transport reports the chat is permanently unreachable.
type Chat struct {
	ChatID int64 `gorm:"column:chat_id;primaryKey;autoIncrement:false" json:"chat_id"`

	Title string `gorm:"column:title;not null;default:''" json:"title"`
	Type  string `gorm:"column:type;not null;default:''" json:"type"`

	IsActive          bool       `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	DeactivationReason string    `gorm:"column:deactivation_reason;not null;default:''" json:"deactivation_reason,omitempty"`
	DeactivatedAt     *time.Time `gorm:"column:deactivated_at" json:"deactivated_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (Chat) TableName() string { return "chats" }
