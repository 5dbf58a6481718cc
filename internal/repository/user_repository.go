package repository

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return first[models.User](conn(ctx, r.db).Where("id = ?", id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return first[models.User](conn(ctx, r.db).Where("email = ?", email))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return first[models.User](conn(ctx, r.db).Where("google_id = ?", googleID))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(conn(ctx, r.db).Create(user).Error)
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return translate(conn(ctx, r.db).Save(user).Error)
}
