package db

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/koinoniahq/koinonia/models"
)

// ReactionRepository interface
type ReactionRepository interface {
	Toggle(messageID uuid.UUID, userID uint, reaction string) (added bool, err error)
	ListForMessage(messageID uuid.UUID) ([]models.MessageReaction, error)
}

// reactionRepo struct
type reactionRepo struct {
	DB *gorm.DB
}

// NewReactionRepo creates a new instance of ReactionRepository
func NewReactionRepo(db *GormDB) ReactionRepository {
	return &reactionRepo{db.DB}
}

// Toggle deletes the (message,user,reaction) row if present, otherwise
// inserts it. Runs in a transaction; the unique index absorbs a
// concurrent duplicate insert.
func (r *reactionRepo) Toggle(messageID uuid.UUID, userID uint, reaction string) (bool, error) {
	tx := r.DB.Begin()
	if tx.Error != nil {
		return false, errors.Wrap(tx.Error, "failed to begin transaction")
	}

	res := tx.Where("message_id = ? AND user_id = ? AND reaction = ?", messageID, userID, reaction).
		Delete(&models.MessageReaction{})
	if res.Error != nil {
		tx.Rollback()
		return false, errors.Wrap(res.Error, "failed to delete reaction")
	}
	if res.RowsAffected > 0 {
		return false, tx.Commit().Error
	}

	row := models.MessageReaction{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		Reaction:  reaction,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}, {Name: "reaction"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		tx.Rollback()
		return false, errors.Wrap(err, "failed to insert reaction")
	}
	return true, tx.Commit().Error
}

func (r *reactionRepo) ListForMessage(messageID uuid.UUID) ([]models.MessageReaction, error) {
	var reactions []models.MessageReaction
	err := r.DB.Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reactions")
	}
	return reactions, nil
}
