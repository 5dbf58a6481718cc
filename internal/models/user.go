package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuthProviderPassword = "password"
	AuthProviderGoogle   = "google"
)

var ErrInvalidAuthProvider = errors.New("account must have either a password or a google identity, not both")

// User is an account. Exactly one credential kind is attached:
// a password hash for password accounts or a google id for google accounts.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FullName     *string   `gorm:"size:100" json:"full_name"`
	PasswordHash *string   `gorm:"size:255" json:"-"`
	AuthProvider string    `gorm:"size:20;not null;default:'password'" json:"auth_provider"`
	GoogleID     *string   `gorm:"size:255;uniqueIndex" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UsersAuthProviderCheck is installed as a table constraint by the migration.
const UsersAuthProviderCheck = "(auth_provider = 'password' AND password_hash IS NOT NULL AND google_id IS NULL) OR " +
	"(auth_provider = 'google' AND google_id IS NOT NULL AND password_hash IS NULL)"

// CheckAuthProvider verifies the credential invariant.
func (u *User) CheckAuthProvider() error {
	hasPassword := u.PasswordHash != nil && *u.PasswordHash != ""
	hasGoogle := u.GoogleID != nil && *u.GoogleID != ""

	switch u.AuthProvider {
	case AuthProviderPassword:
		if hasPassword && !hasGoogle {
			return nil
		}
	case AuthProviderGoogle:
		if hasGoogle && !hasPassword {
			return nil
		}
	}
	return ErrInvalidAuthProvider
}

func (u *User) BeforeSave(_ *gorm.DB) error {
	return u.CheckAuthProvider()
}

func (u *User) IsPasswordUser() bool {
	return u.AuthProvider == AuthProviderPassword
}
