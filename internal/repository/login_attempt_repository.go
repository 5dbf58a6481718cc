package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginAttemptRepository is write-once: attempts are created and eventually
// swept, never updated.
type LoginAttemptRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLoginAttemptRepository(db *gorm.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db, now: time.Now}
}

func (r *LoginAttemptRepository) Create(ctx context.Context, attempt *models.LoginAttempt) error {
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = r.now()
	}
	return conn(ctx, r.db).Create(attempt).Error
}

func (r *LoginAttemptRepository) CountRecentFailures(ctx context.Context, userID uuid.UUID, window time.Duration) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.LoginAttempt{}).
		Scopes(ForUser(userID)).
		Where("success = ? AND attempted_at > ?", false, r.now().Add(-window)).
		Count(&count).Error
	return count, err
}

func (r *LoginAttemptRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := r.now().AddDate(0, 0, -days)
	result := conn(ctx, r.db).Where("attempted_at < ?", cutoff).Delete(&models.LoginAttempt{})
	return result.RowsAffected, result.Error
}
