package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/security"
	"github.com/google/uuid"
)

// GoogleIdentity is the identity confirmed by Google after the code exchange.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

type OAuthService struct {
	users  UserStore
	issuer *sessionIssuer
	logger *slog.Logger
}

func NewOAuthService(users UserStore, tokens RefreshTokenStore, codec *security.TokenCodec, refreshTTL time.Duration, logger *slog.Logger) *OAuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OAuthService{
		users: users,
		issuer: &sessionIssuer{
			tokens:     tokens,
			codec:      codec,
			refreshTTL: refreshTTL,
			now:        time.Now,
		},
		logger: logger,
	}
}

// GetOrCreateGoogleUser signs in the account linked to the Google subject,
// creating it on first login. An email already owned by another account is
// a conflict: accounts are never linked automatically.
func (s *OAuthService) GetOrCreateGoogleUser(ctx context.Context, identity GoogleIdentity, client ClientInfo) (*AuthResult, bool, error) {
	user, err := s.users.GetByGoogleID(ctx, identity.Subject)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up google id: %w", err)
	}
	if user != nil {
		return s.startSession(ctx, user, client, false)
	}

	existing, err := s.users.GetByEmail(ctx, identity.Email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		s.logger.Warn("google sign in blocked by existing account",
			"user_id", existing.ID.String(),
			"auth_provider", existing.AuthProvider,
		)
		return nil, false, emailConflict()
	}

	subject := identity.Subject
	user = &models.User{
		ID:           uuid.New(),
		Email:        identity.Email,
		FullName:     optional(truncate(identity.Name, maxFullNameLength)),
		AuthProvider: models.AuthProviderGoogle,
		GoogleID:     &subject,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, models.ErrDuplicateKey) {
			return nil, false, fmt.Errorf("failed to create google user: %w", err)
		}
		return s.afterLostCreate(ctx, identity.Subject, client)
	}

	s.logger.Info("google user created", "user_id", user.ID.String())
	return s.startSession(ctx, user, client, true)
}

// afterLostCreate handles a concurrent first login: the account created by
// the other request is used when it carries the same subject, otherwise the
// email belongs to someone else.
func (s *OAuthService) afterLostCreate(ctx context.Context, subject string, client ClientInfo) (*AuthResult, bool, error) {
	user, err := s.users.GetByGoogleID(ctx, subject)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up google id: %w", err)
	}
	if user == nil {
		return nil, false, emailConflict()
	}
	return s.startSession(ctx, user, client, false)
}

func (s *OAuthService) startSession(ctx context.Context, user *models.User, client ClientInfo, isNew bool) (*AuthResult, bool, error) {
	pair, err := s.issuer.issue(ctx, user, client)
	if err != nil {
		return nil, false, err
	}
	return &AuthResult{User: user, TokenPair: *pair}, isNew, nil
}

func emailConflict() error {
	return &ConflictError{
		Message: MsgEmailOtherProvider,
		Code:    CodeEmailExistsDifferentProvider,
	}
}
