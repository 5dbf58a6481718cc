package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db, now: time.Now}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return conn(ctx, r.db).Omit("User").Create(token).Error
}

func (r *RefreshTokenRepository) GetByDigest(ctx context.Context, digest string) (*models.RefreshToken, error) {
	return first[models.RefreshToken](conn(ctx, r.db).Where("token_hash = ?", digest))
}

func (r *RefreshTokenRepository) GetValidByDigest(ctx context.Context, digest string) (*models.RefreshToken, error) {
	return first[models.RefreshToken](conn(ctx, r.db).
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", digest, r.now()))
}

// Revoke sets revoked_at only while it is still NULL, so exactly one caller
// observes true for a given record.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).Model(&models.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", r.now())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := r.now()
	result := conn(ctx, r.db).Model(&models.RefreshToken{}).
		Scopes(ForUser(userID)).
		Where("revoked_at IS NULL AND expires_at > ?", now).
		Update("revoked_at", now)
	return result.RowsAffected, result.Error
}

func (r *RefreshTokenRepository) ListActiveForUser(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	var tokens []models.RefreshToken
	err := conn(ctx, r.db).
		Scopes(ForUser(userID)).
		Where("revoked_at IS NULL AND expires_at > ?", r.now()).
		Order("created_at DESC").
		Find(&tokens).Error
	return tokens, err
}

// DeleteExpiredOlderThan permanently removes tokens that expired more than
// days ago.
func (r *RefreshTokenRepository) DeleteExpiredOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := r.now().AddDate(0, 0, -days)
	result := conn(ctx, r.db).Where("expires_at < ?", cutoff).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
