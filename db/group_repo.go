package db

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/koinoniahq/koinonia/models"
)

// GroupRepository interface
type GroupRepository interface {
	CreateWithOwner(group *models.GroupChat, ownerID uint) error
	FindByID(id uuid.UUID) (*models.GroupChat, error)
	Update(group *models.GroupChat) error
	Deactivate(id uuid.UUID) error
	AddMember(member *models.GroupMember) (bool, error)
	RemoveMember(groupID uuid.UUID, userID uint) (int64, error)
	FindMember(groupID uuid.UUID, userID uint) (*models.GroupMember, error)
	MemberIDs(groupID uuid.UUID) ([]uint, error)
	ListForUser(userID uint, offset, limit int) ([]models.GroupChat, error)
	CreateMessage(msg *models.GroupMessage) error
	ListMessages(groupID uuid.UUID, offset, limit int) ([]models.GroupMessage, error)
}

// groupRepo struct
type groupRepo struct {
	DB *gorm.DB
}

// NewGroupRepo creates a new instance of GroupRepository
func NewGroupRepo(db *GormDB) GroupRepository {
	return &groupRepo{db.DB}
}

// CreateWithOwner inserts the group and its ADMIN owner row in one
// transaction so a group can never exist without its creator-member.
func (r *groupRepo) CreateWithOwner(group *models.GroupChat, ownerID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return errors.Wrap(err, "failed to create group")
		}
		member := models.GroupMember{
			ID:      uuid.New(),
			GroupID: group.ID,
			UserID:  ownerID,
			Role:    models.GroupRoleAdmin,
		}
		if err := tx.Create(&member).Error; err != nil {
			return errors.Wrap(err, "failed to create owner membership")
		}
		return nil
	})
}

func (r *groupRepo) FindByID(id uuid.UUID) (*models.GroupChat, error) {
	var group models.GroupChat
	if err := r.DB.Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) Update(group *models.GroupChat) error {
	err := r.DB.Model(&models.GroupChat{}).Where("id = ?", group.ID).
		Updates(map[string]interface{}{
			"name":        group.Name,
			"description": group.Description,
			"avatar_url":  group.AvatarURL,
		}).Error
	if err != nil {
		return errors.Wrap(err, "failed to update group")
	}
	return nil
}

func (r *groupRepo) Deactivate(id uuid.UUID) error {
	err := r.DB.Model(&models.GroupChat{}).Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return errors.Wrap(err, "failed to deactivate group")
	}
	return nil
}

// AddMember reports false when the membership already existed.
func (r *groupRepo) AddMember(member *models.GroupMember) (bool, error) {
	res := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(member)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to add member")
	}
	return res.RowsAffected > 0, nil
}

func (r *groupRepo) RemoveMember(groupID uuid.UUID, userID uint) (int64, error) {
	res := r.DB.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to remove member")
	}
	return res.RowsAffected, nil
}

func (r *groupRepo) FindMember(groupID uuid.UUID, userID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.DB.Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *groupRepo) MemberIDs(groupID uuid.UUID) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&models.GroupMember{}).Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list member ids")
	}
	return ids, nil
}

func (r *groupRepo) ListForUser(userID uint, offset, limit int) ([]models.GroupChat, error) {
	var groups []models.GroupChat
	err := r.DB.Joins("JOIN group_members ON group_members.group_id = group_chats.id").
		Where("group_members.user_id = ? AND group_chats.is_active = ?", userID, true).
		Order("group_chats.updated_at DESC").
		Offset(offset).Limit(limit).
		Find(&groups).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list groups")
	}
	return groups, nil
}

func (r *groupRepo) CreateMessage(msg *models.GroupMessage) error {
	if err := r.DB.Create(msg).Error; err != nil {
		return errors.Wrap(err, "failed to create group message")
	}
	return nil
}

func (r *groupRepo) ListMessages(groupID uuid.UUID, offset, limit int) ([]models.GroupMessage, error) {
	var msgs []models.GroupMessage
	err := r.DB.Where("group_id = ? AND is_deleted = ?", groupID, false).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list group messages")
	}
	return msgs, nil
}
