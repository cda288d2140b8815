package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/koinoniahq/koinonia/models"
)

// MessageRepository interface
type MessageRepository interface {
	Create(msg *models.DirectMessage) error
	FindByID(id uuid.UUID) (*models.DirectMessage, error)
	ListByConversation(conversationID uuid.UUID, offset, limit int) ([]models.DirectMessage, error)
	MarkRead(readerID, otherID uint, at time.Time) (int64, error)
	SoftDelete(id uuid.UUID, deletedBy uint) error
	CountUnread(readerID uint) (int64, error)
}

// messageRepo struct
type messageRepo struct {
	DB *gorm.DB
}

// NewMessageRepo creates a new instance of MessageRepository
func NewMessageRepo(db *GormDB) MessageRepository {
	return &messageRepo{db.DB}
}

func (r *messageRepo) Create(msg *models.DirectMessage) error {
	if err := r.DB.Create(msg).Error; err != nil {
		return errors.Wrap(err, "failed to create message")
	}
	return nil
}

// FindByID returns the row regardless of the deleted flag; soft-deleted
// messages stay queryable for audit.
func (r *messageRepo) FindByID(id uuid.UUID) (*models.DirectMessage, error) {
	var msg models.DirectMessage
	if err := r.DB.Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByConversation pages newest-first and hides soft-deleted rows.
func (r *messageRepo) ListByConversation(conversationID uuid.UUID, offset, limit int) ([]models.DirectMessage, error) {
	var msgs []models.DirectMessage
	err := r.DB.Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}
	return msgs, nil
}

// MarkRead flips every unread message from otherID to readerID in one
// bulk UPDATE and reports how many rows changed. Zero is a valid result.
func (r *messageRepo) MarkRead(readerID, otherID uint, at time.Time) (int64, error) {
	res := r.DB.Model(&models.DirectMessage{}).
		Where("sender_id = ? AND receiver_id = ? AND status <> ?", otherID, readerID, models.MessageStatusRead).
		Updates(map[string]interface{}{
			"status":  models.MessageStatusRead,
			"read_at": at,
		})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to mark messages read")
	}
	return res.RowsAffected, nil
}

func (r *messageRepo) SoftDelete(id uuid.UUID, deletedBy uint) error {
	err := r.DB.Model(&models.DirectMessage{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_by": deletedBy,
		}).Error
	if err != nil {
		return errors.Wrap(err, "failed to soft delete message")
	}
	return nil
}

func (r *messageRepo) CountUnread(readerID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.DirectMessage{}).
		Where("receiver_id = ? AND status <> ? AND is_deleted = ?", readerID, models.MessageStatusRead, false).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread messages")
	}
	return count, nil
}
