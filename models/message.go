package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageStatus string

const (
	MessageStatusSent MessageStatus = "SENT"
	// MessageStatusDelivered is declared for the wire format but no code
	// path transitions to it; delivery acks are not implemented.
	MessageStatusDelivered MessageStatus = "DELIVERED"
	MessageStatusRead      MessageStatus = "READ"
)

// DirectMessage is an immutable-content record of one message. Only
// Status/ReadAt (on read) and IsDeleted/DeletedBy (on delete) are ever
// mutated after creation; rows are retained indefinitely.
type DirectMessage struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uint          `gorm:"not null;index" json:"sender_id"`
	ReceiverID     uint          `gorm:"not null;index" json:"receiver_id"`
	Content        string        `gorm:"not null" json:"content"`
	Status         MessageStatus `gorm:"size:16;default:SENT" json:"status"`
	AttachmentURL  string        `json:"attachment_url,omitempty"`
	AttachmentType string        `json:"attachment_type,omitempty"`
	IsDeleted      bool          `gorm:"default:false" json:"is_deleted"`
	DeletedBy      *uint         `json:"deleted_by,omitempty"`
	ReadAt         *time.Time    `json:"read_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// MessageReaction is a per-user emoji attached to a message. Presence of
// the row is the entire state; totals are derived by query.
type MessageReaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_message_user_reaction" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_message_user_reaction" json:"user_id"`
	Reaction  string    `gorm:"size:32;not null;uniqueIndex:idx_message_user_reaction" json:"reaction"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	ReceiverID     uint   `json:"receiver_id" binding:"required"`
	Content        string `json:"content" binding:"required"`
	AttachmentURL  string `json:"attachment_url"`
	AttachmentType string `json:"attachment_type"`
}

type SendMessageResponse struct {
	Message      *DirectMessage       `json:"message"`
	Conversation *ConversationSummary `json:"conversation"`
}

type ToggleReactionRequest struct {
	Reaction string `json:"reaction" binding:"required,max=32"`
}
