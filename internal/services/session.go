package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/security"
	"github.com/google/uuid"
)

const (
	maxUserAgentLength = 500
	maxFullNameLength  = 100
)

// ClientInfo identifies the requesting client for audit and session records.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by every flow that starts a session. RefreshToken is
// the plaintext secret and is only ever handed out here.
type AuthResult struct {
	User *models.User
	TokenPair
}

// sessionIssuer mints an access/refresh pair and persists the refresh digest.
type sessionIssuer struct {
	tokens     RefreshTokenStore
	codec      *security.TokenCodec
	refreshTTL time.Duration
	now        func() time.Time
}

func (s *sessionIssuer) issue(ctx context.Context, user *models.User, client ClientInfo) (*TokenPair, error) {
	accessToken, err := s.codec.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	secret, err := security.NewRefreshSecret()
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: security.HashRefreshSecret(secret),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
		IPAddress: optional(client.IP),
		UserAgent: optional(truncate(client.UserAgent, maxUserAgentLength)),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: secret}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
