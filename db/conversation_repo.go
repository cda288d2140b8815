package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/koinoniahq/koinonia/models"
)

// ConversationRepository interface
type ConversationRepository interface {
	GetOrCreate(lowID, highID uint) (*models.Conversation, error)
	FindByID(id uuid.UUID) (*models.Conversation, error)
	FindByPair(lowID, highID uint) (*models.Conversation, error)
	RecordMessage(id uuid.UUID, preview string, at time.Time, receiverIsLow bool) error
	ResetUnread(id uuid.UUID, readerIsLow bool) error
	ListForUser(userID uint, offset, limit int) ([]models.Conversation, error)
}

// conversationRepo struct
type conversationRepo struct {
	DB *gorm.DB
}

// NewConversationRepo creates a new instance of ConversationRepository
func NewConversationRepo(db *GormDB) ConversationRepository {
	return &conversationRepo{db.DB}
}

// GetOrCreate inserts the canonical pair guarded by the unique index and
// fetches whichever row won. Two near-simultaneous first contacts both
// land here; the ON CONFLICT DO NOTHING keeps the insert race-safe.
func (r *conversationRepo) GetOrCreate(lowID, highID uint) (*models.Conversation, error) {
	conv := models.Conversation{
		ID:                uuid.New(),
		ParticipantLowID:  lowID,
		ParticipantHighID: highID,
	}
	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "participant_low_id"}, {Name: "participant_high_id"}},
		DoNothing: true,
	}).Create(&conv).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert conversation")
	}
	return r.FindByPair(lowID, highID)
}

func (r *conversationRepo) FindByID(id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.DB.Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) FindByPair(lowID, highID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.DB.Where("participant_low_id = ? AND participant_high_id = ?", lowID, highID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// RecordMessage rolls the preview/timestamp forward and bumps the
// receiver's unread counter in one UPDATE. The increment happens at the
// store so concurrent sends can't lose updates.
func (r *conversationRepo) RecordMessage(id uuid.UUID, preview string, at time.Time, receiverIsLow bool) error {
	counter := "unread_count_high"
	if receiverIsLow {
		counter = "unread_count_low"
	}
	err := r.DB.Model(&models.Conversation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_at":      at,
			"last_message_preview": preview,
			counter:                gorm.Expr(counter+" + ?", 1),
		}).Error
	if err != nil {
		return errors.Wrap(err, "failed to record message on conversation")
	}
	return nil
}

func (r *conversationRepo) ResetUnread(id uuid.UUID, readerIsLow bool) error {
	counter := "unread_count_high"
	if readerIsLow {
		counter = "unread_count_low"
	}
	err := r.DB.Model(&models.Conversation{}).Where("id = ?", id).
		Update(counter, 0).Error
	if err != nil {
		return errors.Wrap(err, "failed to reset unread counter")
	}
	return nil
}

func (r *conversationRepo) ListForUser(userID uint, offset, limit int) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.DB.Where("participant_low_id = ? OR participant_high_id = ?", userID, userID).
		Order("last_message_at DESC NULLS LAST").
		Offset(offset).Limit(limit).
		Find(&convs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	return convs, nil
}
