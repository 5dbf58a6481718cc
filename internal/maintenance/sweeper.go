// Package maintenance runs the periodic retention sweeps.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

type attemptPurger interface {
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

type tokenPurger interface {
	DeleteExpiredOlderThan(ctx context.Context, days int) (int64, error)
}

type statePurger interface {
	Cleanup(ctx context.Context) (int, error)
}

type Retention struct {
	AttemptDays      int
	RefreshTokenDays int
}

// Sweeper deletes old login attempts, long-expired refresh tokens and
// expired OAuth states.
type Sweeper struct {
	attempts  attemptPurger
	tokens    tokenPurger
	states    statePurger
	retention Retention
	logger    *slog.Logger
}

func NewSweeper(attempts attemptPurger, tokens tokenPurger, states statePurger, retention Retention, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		attempts:  attempts,
		tokens:    tokens,
		states:    states,
		retention: retention,
		logger:    logger,
	}
}

type SweepResult struct {
	Attempts      int64
	RefreshTokens int64
	States        int
}

// RunOnce performs one sweep. A failing step is logged and the remaining
// steps still run.
func (s *Sweeper) RunOnce(ctx context.Context) SweepResult {
	var res SweepResult
	var err error

	if s.attempts != nil && s.retention.AttemptDays > 0 {
		if res.Attempts, err = s.attempts.DeleteOlderThan(ctx, s.retention.AttemptDays); err != nil {
			s.logger.Error("login attempt cleanup failed", "error", err)
		}
	}
	if s.tokens != nil && s.retention.RefreshTokenDays > 0 {
		if res.RefreshTokens, err = s.tokens.DeleteExpiredOlderThan(ctx, s.retention.RefreshTokenDays); err != nil {
			s.logger.Error("refresh token cleanup failed", "error", err)
		}
	}
	if s.states != nil {
		if res.States, err = s.states.Cleanup(ctx); err != nil {
			s.logger.Error("oauth state cleanup failed", "error", err)
		}
	}

	if res.Attempts > 0 || res.RefreshTokens > 0 || res.States > 0 {
		s.logger.Info("retention sweep completed",
			"attempts", res.Attempts,
			"refresh_tokens", res.RefreshTokens,
			"oauth_states", res.States,
		)
	}
	return res
}

// Start runs a sweep every interval until done is closed.
func (s *Sweeper) Start(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunOnce(context.Background())
			case <-done:
				return
			}
		}
	}()
}
