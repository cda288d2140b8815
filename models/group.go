package models

import (
	"time"

	"github.com/google/uuid"
)

type GroupRole string

const (
	GroupRoleAdmin  GroupRole = "ADMIN"
	GroupRoleMember GroupRole = "MEMBER"
)

// GroupChat is a named room. Deactivation is the only deletion path;
// rows are retained.
type GroupChat struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedBy   uint      `gorm:"not null" json:"created_by"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupMember is a membership edge. The creator is inserted as ADMIN at
// group creation and can never be removed.
type GroupMember struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_member" json:"user_id"`
	Role     GroupRole `gorm:"size:16;default:MEMBER" json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type GroupMessage struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID        uuid.UUID `gorm:"type:uuid;not null;index" json:"group_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	Content        string    `gorm:"not null" json:"content"`
	AttachmentURL  string    `json:"attachment_url,omitempty"`
	AttachmentType string    `json:"attachment_type,omitempty"`
	IsDeleted      bool      `gorm:"default:false" json:"is_deleted"`
	DeletedBy      *uint     `json:"deleted_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
}

type UpdateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
}

type AddMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type PostGroupMessageRequest struct {
	Content        string `json:"content" binding:"required"`
	AttachmentURL  string `json:"attachment_url"`
	AttachmentType string `json:"attachment_type"`
}
