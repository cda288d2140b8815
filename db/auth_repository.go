package db

import (
	"github.com/pkg/errors"

	errs "github.com/koinoniahq/koinonia/errors"
	"github.com/koinoniahq/koinonia/models"
	"gorm.io/gorm"
)

// AuthRepository interface
type AuthRepository interface {
	FindUserByID(id uint) (*models.User, error)
	IsTokenInBlacklist(token string) bool
	SetUserOnline(userID uint, online bool) error
	ListOnlineUsers() ([]models.User, error)
}

// authRepo struct
type authRepo struct {
	DB *gorm.DB
}

// NewAuthRepo creates a new instance of AuthRepository
func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

func (a *authRepo) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := a.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, errs.InActiveUserError
	}
	return &user, nil
}

func (a *authRepo) IsTokenInBlacklist(token string) bool {
	var count int64
	if err := a.DB.Model(&models.Blacklist{}).Where("token = ?", token).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

func (a *authRepo) SetUserOnline(userID uint, online bool) error {
	err := a.DB.Model(&models.User{}).Where("id = ?", userID).Update("online", online).Error
	if err != nil {
		return errors.Wrap(err, "failed to update online flag")
	}
	return nil
}

func (a *authRepo) ListOnlineUsers() ([]models.User, error) {
	var users []models.User
	if err := a.DB.Where("online = ?", true).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list online users")
	}
	return users, nil
}
