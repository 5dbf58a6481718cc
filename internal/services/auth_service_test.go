package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/repository/memory"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "Str0ng!Pass"
)

type authFixture struct {
	svc      *AuthService
	users    *memory.UserStore
	tokens   *memory.RefreshTokenStore
	attempts *memory.LoginAttemptStore
	projects *memory.ProjectStore
	codec    *security.TokenCodec
	hasher   *security.Hasher
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		users:    memory.NewUserStore(),
		tokens:   memory.NewRefreshTokenStore(),
		attempts: memory.NewLoginAttemptStore(),
		projects: memory.NewProjectStore(),
		codec:    security.NewTokenCodec("test-secret-32-chars-long-123456", 30*time.Minute),
		hasher:   security.NewHasher(bcrypt.MinCost),
	}
	f.svc = NewAuthService(
		f.users, f.tokens, f.attempts,
		NewProjectService(f.projects), memory.NewTransactor(),
		f.codec, f.hasher, DefaultAuthPolicy(), discardLogger(),
	)
	return f
}

func (f *authFixture) signUp(t *testing.T) *AuthResult {
	t.Helper()
	res, err := f.svc.SignUp(context.Background(), SignUpInput{
		Email:    testEmail,
		Password: testPassword,
		FullName: "Alice",
	}, testClient)
	require.NoError(t, err)
	return res
}

var testClient = ClientInfo{IP: "10.0.0.1", UserAgent: "test"}

func TestSignUp_CreatesUserProjectAndSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res := f.signUp(t)

	assert.Equal(t, testEmail, res.User.Email)
	assert.Equal(t, models.AuthProviderPassword, res.User.AuthProvider)
	assert.True(t, res.User.IsActive)
	require.NotNil(t, res.User.PasswordHash)
	assert.NotEqual(t, testPassword, *res.User.PasswordHash)
	assert.Nil(t, res.User.GoogleID)

	claims, ok := f.codec.Decode(res.AccessToken)
	require.True(t, ok)
	sub, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, sub)

	projects, err := f.projects.ListForUser(ctx, res.User.ID, true)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, models.DefaultProjectName, projects[0].Name)
	assert.True(t, projects[0].IsDefault)

	tokens := f.tokens.All()
	require.Len(t, tokens, 1)
	assert.Equal(t, security.HashRefreshSecret(res.RefreshToken), tokens[0].TokenHash)
	assert.NotEqual(t, res.RefreshToken, tokens[0].TokenHash)
	require.NotNil(t, tokens[0].IPAddress)
	assert.Equal(t, "10.0.0.1", *tokens[0].IPAddress)
}

func TestSignUp_Rejections(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signUp(t)

	_, err := f.svc.SignUp(ctx, SignUpInput{Email: "bob@example.com", Password: "weak"}, testClient)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Password must be at least 8 characters long", validation.Message)

	_, err = f.svc.SignUp(ctx, SignUpInput{Email: testEmail, Password: testPassword}, testClient)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, MsgEmailTaken, conflict.Message)
}

// lookupBarrierStore holds every GetByEmail caller until gate is released,
// so concurrent callers all observe the state from before any insert.
type lookupBarrierStore struct {
	*memory.UserStore
	gate sync.WaitGroup
}

func (s *lookupBarrierStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.UserStore.GetByEmail(ctx, email)
	s.gate.Done()
	s.gate.Wait()
	return u, err
}

func TestSignUp_ConcurrentSameEmail(t *testing.T) {
	users := &lookupBarrierStore{UserStore: memory.NewUserStore()}
	users.gate.Add(2)
	svc := NewAuthService(
		users, memory.NewRefreshTokenStore(), memory.NewLoginAttemptStore(),
		NewProjectService(memory.NewProjectStore()), memory.NewTransactor(),
		security.NewTokenCodec("test-secret-32-chars-long-123456", 30*time.Minute),
		security.NewHasher(bcrypt.MinCost), DefaultAuthPolicy(), discardLogger(),
	)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.SignUp(context.Background(), SignUpInput{Email: testEmail, Password: testPassword}, testClient)
		}()
	}
	wg.Wait()

	var conflicts, successes int
	for _, err := range errs {
		var conflict *ConflictError
		switch {
		case err == nil:
			successes++
		case errors.As(err, &conflict):
			assert.Equal(t, MsgEmailTaken, conflict.Message)
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

// flakyProvisioner fails the named step once, then delegates.
type flakyProvisioner struct {
	ProjectProvisioner
	failCreate, failSetDefault bool
}

func (p *flakyProvisioner) CreateDefaultProject(ctx context.Context, userID uuid.UUID) (*models.Project, error) {
	if p.failCreate {
		p.failCreate = false
		return nil, errors.New("db down")
	}
	return p.ProjectProvisioner.CreateDefaultProject(ctx, userID)
}

func (p *flakyProvisioner) SetAsDefault(ctx context.Context, userID, projectID uuid.UUID) error {
	if p.failSetDefault {
		p.failSetDefault = false
		return errors.New("db down")
	}
	return p.ProjectProvisioner.SetAsDefault(ctx, userID, projectID)
}

func TestSignUp_ProvisioningFailureRollsBack(t *testing.T) {
	cases := []struct {
		name        string
		provisioner func(ProjectProvisioner) *flakyProvisioner
	}{
		{"create project fails", func(p ProjectProvisioner) *flakyProvisioner {
			return &flakyProvisioner{ProjectProvisioner: p, failCreate: true}
		}},
		{"set default fails", func(p ProjectProvisioner) *flakyProvisioner {
			return &flakyProvisioner{ProjectProvisioner: p, failSetDefault: true}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture(t)
			ctx := context.Background()
			f.svc.projects = tc.provisioner(NewProjectService(f.projects))
			in := SignUpInput{Email: testEmail, Password: testPassword}

			_, err := f.svc.SignUp(ctx, in, testClient)
			require.ErrorContains(t, err, "db down")

			left, err := f.users.GetByEmail(ctx, testEmail)
			require.NoError(t, err)
			assert.Nil(t, left, "account must not survive a failed sign-up")
			assert.Empty(t, f.tokens.All())

			res, err := f.svc.SignUp(ctx, in, testClient)
			require.NoError(t, err)

			projects, err := f.projects.ListForUser(ctx, res.User.ID, true)
			require.NoError(t, err)
			require.Len(t, projects, 1)
			assert.True(t, projects[0].IsDefault)
		})
	}
}

func TestSignIn_Success(t *testing.T) {
	f := newAuthFixture(t)
	f.signUp(t)

	res, err := f.svc.SignIn(context.Background(), testEmail, testPassword, testClient)
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	attempts := f.attempts.All()
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Success)
	assert.Nil(t, attempts[0].FailureReason)
	assert.Equal(t, "10.0.0.1", attempts[0].IPAddress)
}

func TestSignIn_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signUp(t)

	_, errUnknown := f.svc.SignIn(ctx, "nobody@example.com", testPassword, testClient)
	_, errWrong := f.svc.SignIn(ctx, testEmail, "Wr0ng!Pass", testClient)

	var a, b *AuthenticationError
	require.ErrorAs(t, errUnknown, &a)
	require.ErrorAs(t, errWrong, &b)
	assert.Equal(t, MsgInvalidCredentials, a.Message)
	assert.Equal(t, a.Message, b.Message)

	attempts := f.attempts.All()
	require.Len(t, attempts, 2)
	assert.Nil(t, attempts[0].UserID)
	assert.Equal(t, models.FailureUserNotFound, *attempts[0].FailureReason)
	assert.NotNil(t, attempts[1].UserID)
	assert.Equal(t, models.FailureInvalidPassword, *attempts[1].FailureReason)
}

func TestSignIn_LockoutAfterThreshold(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signUp(t)

	for i := 0; i < DefaultLockoutThreshold; i++ {
		_, err := f.svc.SignIn(ctx, testEmail, "Wr0ng!Pass", testClient)
		var authErr *AuthenticationError
		require.ErrorAs(t, err, &authErr, "attempt %d", i+1)
	}

	_, err := f.svc.SignIn(ctx, testEmail, testPassword, testClient)
	var locked *AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, MsgAccountLocked, locked.Message)

	attempts := f.attempts.All()
	last := attempts[len(attempts)-1]
	assert.Equal(t, models.FailureAccountLocked, *last.FailureReason)
	assert.Len(t, f.tokens.All(), 1, "no session is issued while locked")
}

func TestSignIn_LockoutExpiresWithWindow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signUp(t)

	for i := 0; i < DefaultLockoutThreshold; i++ {
		_, _ = f.svc.SignIn(ctx, testEmail, "Wr0ng!Pass", testClient)
	}

	f.attempts.Now = func() time.Time { return time.Now().Add(DefaultLockoutWindow + time.Minute) }

	_, err := f.svc.SignIn(ctx, testEmail, testPassword, testClient)
	require.NoError(t, err)
}

func TestSignIn_InactiveAndWrongProvider(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res := f.signUp(t)

	user := *res.User
	user.IsActive = false
	require.NoError(t, f.users.Update(ctx, &user))

	_, err := f.svc.SignIn(ctx, testEmail, testPassword, testClient)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, MsgAccountInactive, authErr.Message)

	googleID := "google-sub-1"
	require.NoError(t, f.users.Create(ctx, &models.User{
		Email:        "g@example.com",
		AuthProvider: models.AuthProviderGoogle,
		GoogleID:     &googleID,
		IsActive:     true,
	}))

	_, err = f.svc.SignIn(ctx, "g@example.com", testPassword, testClient)
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Please sign in with google", authErr.Message)
}

func TestSignIn_AuditFailureDoesNotAbort(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signUp(t)
	f.attempts.CreateErr = errors.New("disk full")

	res, err := f.svc.SignIn(ctx, testEmail, testPassword, testClient)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RefreshToken)

	_, err = f.svc.SignIn(ctx, testEmail, "Wr0ng!Pass", testClient)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, MsgInvalidCredentials, authErr.Message)
}

func TestSignIn_AuditFailureLogOmitsEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res := f.signUp(t)

	var buf bytes.Buffer
	f.svc.logger = slog.New(slog.NewJSONHandler(&buf, nil))
	f.attempts.CreateErr = errors.New("disk full")

	_, err := f.svc.SignIn(ctx, testEmail, "Wr0ng!Pass", testClient)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "failed to record login attempt")
	assert.Contains(t, out, res.User.ID.String())
	assert.NotContains(t, out, testEmail)
}

func TestRefresh_RotatesAndRejectsReplay(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res := f.signUp(t)

	pair, err := f.svc.Refresh(ctx, res.RefreshToken, testClient)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, pair.RefreshToken)
	_, ok := f.codec.Decode(pair.AccessToken)
	assert.True(t, ok)

	old, err := f.tokens.GetByDigest(ctx, security.HashRefreshSecret(res.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, old.RevokedAt)

	_, err = f.svc.Refresh(ctx, res.RefreshToken, testClient)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, MsgInvalidRefreshToken, authErr.Message)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken, testClient)
	require.NoError(t, err)
}

func TestRefresh_Rejections(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res := f.signUp(t)

	_, err := f.svc.Refresh(ctx, "not-a-token", testClient)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, MsgInvalidRefreshToken, authErr.Message)

	f.tokens.Now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, err = f.svc.Refresh(ctx, res.RefreshToken, testClient)
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, MsgInvalidRefreshToken, authErr.Message)
	f.tokens.Now = time.Now

	user := *res.User
	user.IsActive = false
	require.NoError(t, f.users.Update(ctx, &user))
	_, err = f.svc.Refresh(ctx, res.RefreshToken, testClient)
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, MsgUserUnavailable, authErr.Message)
}

func TestRefresh_ConcurrentRotationHasOneWinner(t *testing.T) {
	f := newAuthFixture(t)
	res := f.signUp(t)

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Refresh(context.Background(), res.RefreshToken, testClient); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	active, err := f.tokens.ListActiveForUser(context.Background(), res.User.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestSignOut_IsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res := f.signUp(t)

	require.NoError(t, f.svc.SignOut(ctx, res.RefreshToken))
	require.NoError(t, f.svc.SignOut(ctx, res.RefreshToken))
	require.NoError(t, f.svc.SignOut(ctx, "unknown"))

	_, err := f.svc.Refresh(ctx, res.RefreshToken, testClient)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestSignOutEverywhereAndListSessions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res := f.signUp(t)

	_, err := f.svc.SignIn(ctx, testEmail, testPassword, testClient)
	require.NoError(t, err)

	sessions, err := f.svc.ListSessions(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	n, err := f.svc.SignOutEverywhere(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	sessions, err = f.svc.ListSessions(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCurrentUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res := f.signUp(t)

	user, err := f.svc.CurrentUser(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, testEmail, user.Email)

	_, err = f.svc.CurrentUser(ctx, uuid.New())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, MsgUserUnavailable, authErr.Message)
}

func TestTruncate_RuneSafe(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 10))
	assert.Equal(t, "hé", truncate("héllo", 2))
}
