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

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutWindow    = 15 * time.Minute
)

type AuthPolicy struct {
	RefreshTTL       time.Duration
	LockoutThreshold int
	LockoutWindow    time.Duration
}

func DefaultAuthPolicy() AuthPolicy {
	return AuthPolicy{
		RefreshTTL:       7 * 24 * time.Hour,
		LockoutThreshold: DefaultLockoutThreshold,
		LockoutWindow:    DefaultLockoutWindow,
	}
}

type SignUpInput struct {
	Email    string
	Password string
	FullName string
}

type AuthService struct {
	users    UserStore
	tokens   RefreshTokenStore
	attempts LoginAttemptStore
	projects ProjectProvisioner
	tx       Transactor
	hasher   *security.Hasher
	issuer   *sessionIssuer
	policy   AuthPolicy
	logger   *slog.Logger
}

func NewAuthService(
	users UserStore,
	tokens RefreshTokenStore,
	attempts LoginAttemptStore,
	projects ProjectProvisioner,
	tx Transactor,
	codec *security.TokenCodec,
	hasher *security.Hasher,
	policy AuthPolicy,
	logger *slog.Logger,
) *AuthService {
	if policy.LockoutThreshold <= 0 {
		policy.LockoutThreshold = DefaultLockoutThreshold
	}
	if policy.LockoutWindow <= 0 {
		policy.LockoutWindow = DefaultLockoutWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		attempts: attempts,
		projects: projects,
		tx:       tx,
		hasher:   hasher,
		issuer: &sessionIssuer{
			tokens:     tokens,
			codec:      codec,
			refreshTTL: policy.RefreshTTL,
			now:        time.Now,
		},
		policy: policy,
		logger: logger,
	}
}

// SignUp creates a password account with its default project and starts a
// session. The account and its project are written in one transaction.
// Password confirmation is checked by the caller.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput, client ClientInfo) (*AuthResult, error) {
	if ok, reason := security.ValidatePasswordStrength(in.Password); !ok {
		return nil, &ValidationError{Message: reason}
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		return nil, &ConflictError{Message: MsgEmailTaken}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        in.Email,
		FullName:     optional(truncate(in.FullName, maxFullNameLength)),
		PasswordHash: &hash,
		AuthProvider: models.AuthProviderPassword,
		IsActive:     true,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			// Another sign-up took the email after the lookup above.
			if errors.Is(err, models.ErrDuplicateKey) {
				return &ConflictError{Message: MsgEmailTaken}
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		project, err := s.projects.CreateDefaultProject(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to create default project: %w", err)
		}
		if err := s.projects.SetAsDefault(ctx, user.ID, project.ID); err != nil {
			return fmt.Errorf("failed to set default project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.issuer.issue(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", "user_id", user.ID.String())
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

// SignIn authenticates with email and password. Unknown emails and wrong
// passwords produce the same message; lockout is reported distinctly.
func (s *AuthService) SignIn(ctx context.Context, email, password string, client ClientInfo) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if user == nil {
		s.recordFailure(ctx, nil, email, client, models.FailureUserNotFound)
		return nil, authError(MsgInvalidCredentials)
	}

	failures, err := s.attempts.CountRecentFailures(ctx, user.ID, s.policy.LockoutWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to count login failures: %w", err)
	}
	if failures >= int64(s.policy.LockoutThreshold) {
		s.recordFailure(ctx, &user.ID, email, client, models.FailureAccountLocked)
		s.logger.Warn("sign in rejected, account locked", "user_id", user.ID.String(), "failures", failures)
		return nil, &AccountLockedError{Message: MsgAccountLocked}
	}

	if !user.IsActive {
		s.recordFailure(ctx, &user.ID, email, client, models.FailureAccountInactive)
		return nil, authError(MsgAccountInactive)
	}

	if !user.IsPasswordUser() {
		s.recordFailure(ctx, &user.ID, email, client, models.FailureWrongProvider)
		return nil, authError("Please sign in with " + user.AuthProvider)
	}

	if user.PasswordHash == nil || !s.hasher.Verify(password, *user.PasswordHash) {
		s.recordFailure(ctx, &user.ID, email, client, models.FailureInvalidPassword)
		return nil, authError(MsgInvalidCredentials)
	}

	s.recordAttempt(ctx, &models.LoginAttempt{
		UserID:  &user.ID,
		Email:   email,
		Success: true,
	}, client)

	pair, err := s.issuer.issue(ctx, user, client)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

// Refresh rotates a refresh token. The presented token is revoked with a
// conditional update so that only one concurrent caller can rotate it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*TokenPair, error) {
	digest := security.HashRefreshSecret(refreshToken)

	record, err := s.tokens.GetValidByDigest(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if record == nil {
		return nil, authError(MsgInvalidRefreshToken)
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, authError(MsgUserUnavailable)
	}

	revoked, err := s.tokens.Revoke(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !revoked {
		s.logger.Warn("refresh token already rotated", "user_id", user.ID.String(), "token_id", record.ID.String())
		return nil, authError(MsgInvalidRefreshToken)
	}

	return s.issuer.issue(ctx, user, client)
}

// SignOut revokes the refresh token. Unknown or already revoked tokens are
// ignored.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	record, err := s.tokens.GetByDigest(ctx, security.HashRefreshSecret(refreshToken))
	if err != nil {
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if record == nil || record.IsRevoked() {
		return nil
	}

	if _, err := s.tokens.Revoke(ctx, record.ID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// SignOutEverywhere revokes every valid refresh token of the user.
func (s *AuthService) SignOutEverywhere(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	s.logger.Info("revoked all sessions", "user_id", userID.String(), "count", n)
	return n, nil
}

func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	sessions, err := s.tokens.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// CurrentUser loads the active account behind an access token.
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, authError(MsgUserUnavailable)
	}
	return user, nil
}

func (s *AuthService) recordFailure(ctx context.Context, userID *uuid.UUID, email string, client ClientInfo, reason string) {
	s.recordAttempt(ctx, &models.LoginAttempt{
		UserID:        userID,
		Email:         email,
		Success:       false,
		FailureReason: &reason,
	}, client)
}

// recordAttempt is best effort: a failed audit write is logged and never
// changes the outcome of the sign-in.
func (s *AuthService) recordAttempt(ctx context.Context, attempt *models.LoginAttempt, client ClientInfo) {
	attempt.ID = uuid.New()
	attempt.IPAddress = client.IP
	if attempt.IPAddress == "" {
		attempt.IPAddress = "unknown"
	}
	attempt.UserAgent = optional(truncate(client.UserAgent, maxUserAgentLength))
	attempt.AttemptedAt = s.issuer.now()

	if err := s.attempts.Create(ctx, attempt); err != nil {
		reason := ""
		if attempt.FailureReason != nil {
			reason = *attempt.FailureReason
		}
		attrs := []any{"success", attempt.Success, "reason", reason, "error", err}
		if attempt.UserID != nil {
			attrs = append(attrs, "user_id", attempt.UserID.String())
		}
		s.logger.Warn("failed to record login attempt", attrs...)
	}
}
