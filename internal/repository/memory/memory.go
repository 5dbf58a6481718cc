// Package memory holds map-backed stores with the same semantics as the
// GORM repositories. They back unit and handler tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/google/uuid"
)

var ErrDuplicate = fmt.Errorf("memory: %w", models.ErrDuplicateKey)

type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]models.User)}
}

func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email }), nil
}

func (s *UserStore) GetByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID }), nil
}

func (s *UserStore) find(match func(models.User) bool) *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return &u
		}
	}
	return nil
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if err := user.CheckAuthProvider(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
		if u.GoogleID != nil && user.GoogleID != nil && *u.GoogleID == *user.GoogleID {
			return ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *user

	id := user.ID
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.users, id)
	})
	return nil
}

func (s *UserStore) Update(_ context.Context, user *models.User) error {
	if err := user.CheckAuthProvider(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

type RefreshTokenStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]models.RefreshToken
	Now    func() time.Time
}

func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{tokens: make(map[uuid.UUID]models.RefreshToken), Now: time.Now}
}

func (s *RefreshTokenStore) Create(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.TokenHash == token.TokenHash {
			return ErrDuplicate
		}
	}
	s.tokens[token.ID] = *token
	return nil
}

func (s *RefreshTokenStore) GetByDigest(_ context.Context, digest string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.TokenHash == digest {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *RefreshTokenStore) GetValidByDigest(ctx context.Context, digest string) (*models.RefreshToken, error) {
	t, _ := s.GetByDigest(ctx, digest)
	if t == nil || !t.IsValid(s.Now()) {
		return nil, nil
	}
	return t, nil
}

func (s *RefreshTokenStore) Revoke(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok || t.RevokedAt != nil {
		return false, nil
	}
	now := s.Now()
	t.RevokedAt = &now
	s.tokens[id] = t
	return true, nil
}

func (s *RefreshTokenStore) RevokeAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	var n int64
	for id, t := range s.tokens {
		if t.UserID == userID && t.IsValid(now) {
			t.RevokedAt = &now
			s.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (s *RefreshTokenStore) ListActiveForUser(_ context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	var out []models.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID && t.IsValid(now) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *RefreshTokenStore) DeleteExpiredOlderThan(_ context.Context, days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.Now().AddDate(0, 0, -days)
	var n int64
	for id, t := range s.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}

// All returns every stored token, revoked or not.
func (s *RefreshTokenStore) All() []models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RefreshToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, t)
	}
	return out
}

type LoginAttemptStore struct {
	mu       sync.Mutex
	attempts []models.LoginAttempt
	Now      func() time.Time
	// CreateErr, when set, is returned by every Create call.
	CreateErr error
}

func NewLoginAttemptStore() *LoginAttemptStore {
	return &LoginAttemptStore{Now: time.Now}
}

func (s *LoginAttemptStore) Create(_ context.Context, attempt *models.LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = s.Now()
	}
	s.attempts = append(s.attempts, *attempt)
	return nil
}

func (s *LoginAttemptStore) CountRecentFailures(_ context.Context, userID uuid.UUID, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	since := s.Now().Add(-window)
	var n int64
	for _, a := range s.attempts {
		if a.UserID != nil && *a.UserID == userID && !a.Success && a.AttemptedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (s *LoginAttemptStore) DeleteOlderThan(_ context.Context, days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.Now().AddDate(0, 0, -days)
	kept := s.attempts[:0]
	var n int64
	for _, a := range s.attempts {
		if a.AttemptedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	s.attempts = kept
	return n, nil
}

func (s *LoginAttemptStore) All() []models.LoginAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LoginAttempt(nil), s.attempts...)
}

type ProjectStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]models.Project
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{projects: make(map[uuid.UUID]models.Project)}
}

func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.UserID == project.UserID && p.Name == project.Name {
			return ErrDuplicate
		}
	}
	now := time.Now()
	project.CreatedAt, project.UpdatedAt = now, now
	s.projects[project.ID] = *project

	id := project.ID
	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.projects, id)
	})
	return nil
}

func (s *ProjectStore) SetAsDefault(ctx context.Context, userID, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.projects[projectID]
	if !ok || target.UserID != userID {
		return errors.New("memory: project not found")
	}
	previous := make(map[uuid.UUID]bool)
	for id, p := range s.projects {
		if p.UserID == userID {
			previous[id] = p.IsDefault
			p.IsDefault = id == projectID
			s.projects[id] = p
		}
	}

	onRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for id, isDefault := range previous {
			if p, ok := s.projects[id]; ok {
				p.IsDefault = isDefault
				s.projects[id] = p
			}
		}
	})
	return nil
}

func (s *ProjectStore) ListForUser(_ context.Context, userID uuid.UUID, includeArchived bool) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Project
	for _, p := range s.projects {
		if p.UserID != userID || (p.IsArchived && !includeArchived) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
