package models

import (
	"time"

	"github.com/google/uuid"
)

// PreviewLimit is the maximum stored length of a conversation's last
// message preview. Longer content is cut to 197 chars plus "...".
const PreviewLimit = 200

// Conversation is the rollup state of a one-to-one thread. The two
// participants are stored in sorted order so the unordered pair maps
// to exactly one row; the composite unique index enforces it.
type Conversation struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ParticipantLowID   uint       `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"participant_low_id"`
	ParticipantHighID  uint       `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"participant_high_id"`
	LastMessageAt      *time.Time `json:"last_message_at"`
	LastMessagePreview string     `gorm:"size:200" json:"last_message_preview"`
	UnreadCountLow     int        `gorm:"default:0" json:"unread_count_low"`
	UnreadCountHigh    int        `gorm:"default:0" json:"unread_count_high"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// UnreadFor returns the unread counter belonging to the given participant.
func (c *Conversation) UnreadFor(userID uint) int {
	if userID == c.ParticipantLowID {
		return c.UnreadCountLow
	}
	return c.UnreadCountHigh
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID uint) uint {
	if userID == c.ParticipantLowID {
		return c.ParticipantHighID
	}
	return c.ParticipantLowID
}

// ConversationSummary is the list-conversations response row.
type ConversationSummary struct {
	ConversationID     uuid.UUID    `json:"conversation_id"`
	OtherParticipant   UserResponse `json:"other_participant"`
	LastMessagePreview string       `json:"last_message_preview"`
	LastMessageAt      *time.Time   `json:"last_message_at"`
	UnreadCount        int          `json:"unread_count"`
}
