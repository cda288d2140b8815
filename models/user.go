package models

import (
	"errors"
	"fmt"

	goval "github.com/go-passwd/validator"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/leebenson/conform"
	"golang.org/x/crypto/bcrypt"
)

// User represents a user of the application. Accounts are issued and
// verified by the identity service; this model carries what the chat
// layer needs to address and display a participant.
type User struct {
	Model
	Fullname       string `json:"fullname" binding:"required,min=2"`
	Username       string `json:"username" binding:"required,min=2"`
	Email          string `json:"email" gorm:"unique;not null" binding:"required,email"`
	HashedPassword string `json:"-"`
	IsBlocked      bool   `json:"is_blocked" gorm:"default:false"`
	ThumbNailURL   string `json:"thumbnail_url,omitempty"`
	Online         bool   `json:"online"`
	DeviceToken    string `json:"-"`
}

// Blacklist holds revoked access tokens.
type Blacklist struct {
	Model
	Token string `json:"token" gorm:"index"`
}

type UserResponse struct {
	ID           uint   `json:"id"`
	Fullname     string `json:"fullname"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	ThumbNailURL string `json:"thumbnail_url,omitempty"`
	Online       bool   `json:"online"`
}

func (u *User) Response() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Fullname:     u.Fullname,
		Username:     u.Username,
		Email:        u.Email,
		ThumbNailURL: u.ThumbNailURL,
		Online:       u.Online,
	}
}

func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, errors.New("password cant be less than 6 characters")),
		goval.MaxLength(15, errors.New("password cant be more than 15 characters")))
	err := passwordValidator.Validate(password)
	return err
}

func validateWhiteSpaces(data interface{}) error {
	return conform.Strings(data)
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans) + "; ")
		errs = append(errs, translatedErr)
	}
	return errs
}

// VerifyPassword verifies the collected password with the user's hashed password
func (u *User) VerifyPassword(password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
	if err != nil {
		return err
	}
	return nil
}
