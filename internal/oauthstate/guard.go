// Package oauthstate issues and checks the single-use state values that
// protect the OAuth callback against forgery.
package oauthstate

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"
)

const DefaultTTL = 10 * time.Minute

// Store persists pending states with their expiry.
type Store interface {
	Put(ctx context.Context, state string, expiresAt time.Time) error
	// Take removes the state and returns its expiry. ok is false when the
	// state was never issued or was already taken.
	Take(ctx context.Context, state string) (expiresAt time.Time, ok bool, err error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Guard struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewGuard(store Store, ttl time.Duration, logger *slog.Logger) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{store: store, ttl: ttl, now: time.Now, logger: logger}
}

// Generate issues a fresh state valid for the guard's TTL.
func (g *Guard) Generate(ctx context.Context) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	if err := g.store.Put(ctx, state, g.now().Add(g.ttl)); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return state, nil
}

// Validate consumes the state. A state passes at most once and only before
// it expires. Store errors count as a failed validation.
func (g *Guard) Validate(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}

	expiresAt, ok, err := g.store.Take(ctx, state)
	if err != nil {
		g.logger.Error("failed to take oauth state", "error", err)
		return false
	}
	if !ok {
		return false
	}
	return g.now().Before(expiresAt)
}

// Cleanup drops expired states and returns how many were removed.
func (g *Guard) Cleanup(ctx context.Context) (int, error) {
	return g.store.DeleteExpired(ctx, g.now())
}
