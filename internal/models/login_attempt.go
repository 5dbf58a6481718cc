package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	FailureUserNotFound    = "user_not_found"
	FailureAccountLocked   = "account_locked"
	FailureAccountInactive = "account_inactive"
	FailureWrongProvider   = "wrong_provider"
	FailureInvalidPassword = "invalid_password"
)

// LoginAttempt is an append-only audit record of one sign-in attempt.
type LoginAttempt struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Email         string     `gorm:"size:255;not null;index" json:"email"`
	IPAddress     string     `gorm:"size:45;not null;index" json:"ip_address"`
	UserAgent     *string    `gorm:"size:500" json:"user_agent"`
	Success       bool       `gorm:"not null" json:"success"`
	FailureReason *string    `gorm:"size:50" json:"failure_reason"`
	AttemptedAt   time.Time  `gorm:"not null;index" json:"attempted_at"`
}
