package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/internal/tasks"
	"github.com/sakthi-t/bookscart/pkg/config"
	"github.com/sakthi-t/bookscart/pkg/db/dbtest"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/enums"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/types"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type inlineRunner struct {
	names []string
	errs  []error
}

func (r *inlineRunner) Go(ctx context.Context, name string, fn tasks.Func) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, fn(ctx))
}

type stubEnricher struct {
	userID  uuid.UUID
	profile types.SocialProfile
	err     error
}

func (s *stubEnricher) ApplySocialProfile(_ context.Context, userID uuid.UUID, profile types.SocialProfile) error {
	s.userID = userID
	s.profile = profile
	return s.err
}

func newRegisterService(t *testing.T) (RegisterService, *gorm.DB, *inlineRunner, *stubEnricher) {
	t.Helper()
	client := dbtest.Client(t)
	runner := &inlineRunner{}
	enricher := &stubEnricher{}
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		PasswordConfig: testPasswordConfig,
		Tasks:          runner,
		Enricher:       enricher,
	})
	require.NoError(t, err)
	return svc, client.DB(), runner, enricher
}

func TestRegisterCreatesUserAccountAndCart(t *testing.T) {
	svc, conn, runner, _ := newRegisterService(t)

	user, err := svc.Register(t.Context(), RegisterRequest{
		Email:     " Reader@Example.com ",
		Password:  "correct horse",
		FirstName: "Anne",
		LastName:  "Shirley",
	})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Equal(t, enums.UserRoleCustomer, user.Role)
	assert.True(t, user.IsActive)

	var account models.Account
	require.NoError(t, conn.Where("user_id = ?", user.ID).First(&account).Error)
	assert.Equal(t, "Anne Shirley", account.DisplayName)
	assert.Equal(t, enums.AuthProviderEmail, account.Provider)

	var carts int64
	require.NoError(t, conn.Model(&models.Cart{}).Where("user_id = ?", user.ID).Count(&carts).Error)
	assert.EqualValues(t, 1, carts)

	assert.Empty(t, runner.names, "no enrichment without a social profile")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, conn, _, _ := newRegisterService(t)

	_, err := svc.Register(t.Context(), RegisterRequest{Email: "dup@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(t.Context(), RegisterRequest{Email: "DUP@example.com", Password: "password2"})
	require.Error(t, err)
	var typed *pkgerrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _, _, _ := newRegisterService(t)

	cases := []RegisterRequest{
		{Email: "", Password: "password1"},
		{Email: "not-an-email", Password: "password1"},
		{Email: "short@example.com", Password: "short"},
		{Email: "social@example.com", Password: "password1", Social: &types.SocialProfile{Provider: enums.AuthProvider("myspace"), Name: "x"}},
	}
	for _, req := range cases {
		_, err := svc.Register(t.Context(), req)
		require.Error(t, err, "email=%q", req.Email)
		var typed *pkgerrors.Error
		require.True(t, errors.As(err, &typed))
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestRegisterSchedulesSocialEnrichmentAfterCommit(t *testing.T) {
	svc, conn, runner, enricher := newRegisterService(t)

	profile := &types.SocialProfile{Provider: enums.AuthProviderGitHub, Name: "Octo Reader", PictureURL: "https://example.com/a.png"}
	user, err := svc.Register(t.Context(), RegisterRequest{
		Email:    "octo@example.com",
		Password: "password1",
		Social:   profile,
	})
	require.NoError(t, err)

	require.Equal(t, []string{TaskEnrichSocialProfile}, runner.names)
	assert.Equal(t, user.ID, enricher.userID)
	assert.Equal(t, "Octo Reader", enricher.profile.Name)

	var account models.Account
	require.NoError(t, conn.Where("user_id = ?", user.ID).First(&account).Error)
	assert.Equal(t, enums.AuthProviderGitHub, account.Provider)
}

func TestRegisterSucceedsWhenEnrichmentFails(t *testing.T) {
	svc, _, runner, enricher := newRegisterService(t)
	enricher.err = errors.New("profile service down")

	user, err := svc.Register(t.Context(), RegisterRequest{
		Email:    "google@example.com",
		Password: "password1",
		Social:   &types.SocialProfile{Provider: enums.AuthProviderGoogle, Name: "G User"},
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Len(t, runner.errs, 1)
	assert.Error(t, runner.errs[0])
}

func TestNewRegisterServiceRequiresDependencies(t *testing.T) {
	_, err := NewRegisterService(RegisterServiceParams{})
	require.Error(t, err)
}
