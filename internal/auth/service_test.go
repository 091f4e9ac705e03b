package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/sakthi-t/bookscart/pkg/auth"
	"github.com/sakthi-t/bookscart/pkg/auth/session"
	"github.com/sakthi-t/bookscart/pkg/config"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/enums"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/security"
)

type stubUserRepo struct {
	byEmail   map[string]*models.User
	lastLogin map[uuid.UUID]time.Time
	rehashed  map[uuid.UUID]string
}

func newStubUserRepo(users ...*models.User) *stubUserRepo {
	repo := &stubUserRepo{byEmail: map[string]*models.User{}, lastLogin: map[uuid.UUID]time.Time{}, rehashed: map[uuid.UUID]string{}}
	for _, u := range users {
		repo.byEmail[u.Email] = u
	}
	return repo
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin[id] = at
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	s.rehashed[id] = hash
	return nil
}

// stubSessions keeps refresh tokens keyed by access id.
type stubSessions struct {
	tokens  map[string]string
	counter int
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: map[string]string{}}
}

func (s *stubSessions) Generate(_ context.Context, accessID string) (string, error) {
	s.counter++
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newID := session.NewAccessID()
	token, err := s.Generate(ctx, newID)
	return newID, token, err
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	delete(s.tokens, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "bookscart-test", ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60}
}

func mustUser(t *testing.T, email, password string, role enums.UserRole, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	require.NoError(t, err)
	return &models.User{ID: uuid.New(), Email: email, PasswordHash: hash, Role: role, IsActive: active}
}

func newAuthService(t *testing.T, users *stubUserRepo, sessions *stubSessions) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       users,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig,
	})
	require.NoError(t, err)
	return svc
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	var typed *pkgerrors.Error
	require.True(t, errors.As(err, &typed), "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestLoginIssuesTokensWithRole(t *testing.T) {
	user := mustUser(t, "staff@example.com", "password1", enums.UserRoleStaff, true)
	users := newStubUserRepo(user)
	sessions := newStubSessions()
	svc := newAuthService(t, users, sessions)

	resp, err := svc.Login(t.Context(), LoginRequest{Email: "Staff@Example.com", Password: "password1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Contains(t, users.lastLogin, user.ID)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleStaff, claims.Role)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, resp.RefreshToken, sessions.tokens[claims.SessionID()])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	active := mustUser(t, "reader@example.com", "password1", enums.UserRoleCustomer, true)
	inactive := mustUser(t, "gone@example.com", "password1", enums.UserRoleCustomer, false)
	svc := newAuthService(t, newStubUserRepo(active, inactive), newStubSessions())

	cases := []LoginRequest{
		{Email: "reader@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "password1"},
		{Email: "gone@example.com", Password: "password1"},
		{Email: "   ", Password: "password1"},
	}
	for _, req := range cases {
		_, err := svc.Login(t.Context(), req)
		requireCode(t, err, pkgerrors.CodeUnauthorized)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	user := mustUser(t, "reader@example.com", "password1", enums.UserRoleCustomer, true)
	sessions := newStubSessions()
	svc := newAuthService(t, newStubUserRepo(user), sessions)

	login, err := svc.Login(t.Context(), LoginRequest{Email: user.Email, Password: "password1"})
	require.NoError(t, err)
	oldClaims, err := pkgAuth.ParseAccessToken(testJWTConfig(), login.AccessToken)
	require.NoError(t, err)

	refreshed, err := svc.Refresh(t.Context(), login.AccessToken, login.RefreshToken)
	require.NoError(t, err)
	newClaims, err := pkgAuth.ParseAccessToken(testJWTConfig(), refreshed.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.SessionID(), newClaims.SessionID())
	assert.NotContains(t, sessions.tokens, oldClaims.SessionID())

	_, err = svc.Refresh(t.Context(), login.AccessToken, login.RefreshToken)
	requireCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	user := mustUser(t, "reader@example.com", "password1", enums.UserRoleCustomer, true)
	sessions := newStubSessions()
	svc := newAuthService(t, newStubUserRepo(user), sessions)

	accessID := session.NewAccessID()
	expired, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	require.NoError(t, err)
	refresh, err := sessions.Generate(t.Context(), accessID)
	require.NoError(t, err)

	resp, err := svc.Refresh(t.Context(), expired, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	user := mustUser(t, "reader@example.com", "password1", enums.UserRoleCustomer, true)
	sessions := newStubSessions()
	svc := newAuthService(t, newStubUserRepo(user), sessions)

	login, err := svc.Login(t.Context(), LoginRequest{Email: user.Email, Password: "password1"})
	require.NoError(t, err)
	user.IsActive = false

	_, err = svc.Refresh(t.Context(), login.AccessToken, login.RefreshToken)
	requireCode(t, err, pkgerrors.CodeUnauthorized)
	assert.Empty(t, sessions.tokens)
}

func TestLogoutRevokesSession(t *testing.T) {
	user := mustUser(t, "reader@example.com", "password1", enums.UserRoleCustomer, true)
	sessions := newStubSessions()
	svc := newAuthService(t, newStubUserRepo(user), sessions)

	login, err := svc.Login(t.Context(), LoginRequest{Email: user.Email, Password: "password1"})
	require.NoError(t, err)
	require.Len(t, sessions.tokens, 1)

	require.NoError(t, svc.Logout(t.Context(), login.AccessToken))
	assert.Empty(t, sessions.tokens)

	requireCode(t, svc.Logout(t.Context(), "garbage"), pkgerrors.CodeUnauthorized)
}

func TestLoginUpgradesWeakPasswordHash(t *testing.T) {
	weak := testPasswordConfig
	hash, err := security.HashPassword("password1", weak)
	require.NoError(t, err)
	user := &models.User{ID: uuid.New(), Email: "old@example.com", PasswordHash: hash, Role: enums.UserRoleCustomer, IsActive: true}
	users := newStubUserRepo(user)

	stronger := testPasswordConfig
	stronger.ArgonTime = 2
	svc, err := NewService(ServiceParams{
		UserRepo:       users,
		SessionManager: newStubSessions(),
		JWTConfig:      testJWTConfig(),
		PasswordConfig: stronger,
	})
	require.NoError(t, err)

	_, err = svc.Login(t.Context(), LoginRequest{Email: "old@example.com", Password: "password1"})
	require.NoError(t, err)

	upgraded := users.rehashed[user.ID]
	require.NotEmpty(t, upgraded)
	assert.False(t, security.NeedsRehash(upgraded, stronger))
	ok, err := security.VerifyPassword("password1", upgraded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginKeepsCurrentHash(t *testing.T) {
	user := mustUser(t, "fresh@example.com", "password1", enums.UserRoleCustomer, true)
	users := newStubUserRepo(user)
	svc := newAuthService(t, users, newStubSessions())

	_, err := svc.Login(t.Context(), LoginRequest{Email: "fresh@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Empty(t, users.rehashed)
}
