package services

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/google/uuid"
)

// Lookups return (nil, nil) when the record does not exist. Inserts that
// break a unique constraint return an error wrapping models.ErrDuplicateKey.

// Transactor runs fn as one unit of work. Stores called with the context
// passed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

type RefreshTokenStore interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByDigest(ctx context.Context, digest string) (*models.RefreshToken, error)
	GetValidByDigest(ctx context.Context, digest string) (*models.RefreshToken, error)
	// Revoke reports false when the record was already revoked.
	Revoke(ctx context.Context, id uuid.UUID) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListActiveForUser(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error)
	DeleteExpiredOlderThan(ctx context.Context, days int) (int64, error)
}

type LoginAttemptStore interface {
	Create(ctx context.Context, attempt *models.LoginAttempt) error
	CountRecentFailures(ctx context.Context, userID uuid.UUID, window time.Duration) (int64, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

type ProjectProvisioner interface {
	CreateDefaultProject(ctx context.Context, userID uuid.UUID) (*models.Project, error)
	SetAsDefault(ctx context.Context, userID, projectID uuid.UUID) error
}

type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	SetAsDefault(ctx context.Context, userID, projectID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.Project, error)
}
