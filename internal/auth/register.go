package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/internal/accounts"
	"github.com/sakthi-t/bookscart/internal/cart"
	"github.com/sakthi-t/bookscart/internal/tasks"
	"github.com/sakthi-t/bookscart/internal/users"
	"github.com/sakthi-t/bookscart/pkg/config"
	"github.com/sakthi-t/bookscart/pkg/db"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/enums"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/logger"
	"github.com/sakthi-t/bookscart/pkg/security"
	"github.com/sakthi-t/bookscart/pkg/types"
)

// TaskEnrichSocialProfile names the post-signup task that copies social profile data onto the account.
const TaskEnrichSocialProfile = "accounts.enrich_social_profile"

const minPasswordLen = 8

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type taskRunner interface {
	Go(ctx context.Context, name string, fn tasks.Func)
}

type socialEnricher interface {
	ApplySocialProfile(ctx context.Context, userID uuid.UUID, profile types.SocialProfile) error
}

// RegisterService handles the signup transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             txRunner
	PasswordConfig config.PasswordConfig
	Tasks          taskRunner
	Enricher       socialEnricher
	Logger         *logger.Logger
}

type registerService struct {
	db          txRunner
	passwordCfg config.PasswordConfig
	tasks       taskRunner
	enricher    socialEnricher
	logg        *logger.Logger
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Tasks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "task runner required")
	}
	if params.Enricher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "social profile enricher required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
		tasks:       params.Tasks,
		enricher:    params.Enricher,
		logg:        params.Logger,
	}, nil
}

// Register creates the user, their account and their cart in one transaction,
// then schedules social profile enrichment when a profile was supplied.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if len(req.Password) < minPasswordLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	social := req.Social
	if social.IsZero() {
		social = nil
	}
	provider := enums.AuthProviderEmail
	if social != nil {
		if !social.Provider.IsValid() || social.Provider == enums.AuthProviderEmail {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid social provider")
		}
		provider = social.Provider
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	var created *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		accountRepo := accounts.NewRepository(tx)
		cartRepo := cart.NewRepository(tx)

		taken, err := userRepo.EmailExists(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}

		user, err := userRepo.Create(ctx, users.NewUser{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    firstName,
			LastName:     lastName,
			Role:         enums.UserRoleCustomer,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if _, err := accountRepo.Create(ctx, &models.Account{
			UserID:      user.ID,
			DisplayName: accounts.DefaultDisplayName(firstName, lastName, email),
			Provider:    provider,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
		}

		if _, err := cartRepo.Create(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	if social != nil {
		s.scheduleEnrichment(ctx, created.ID, *social)
	}
	return users.FromModel(created), nil
}

func (s *registerService) scheduleEnrichment(ctx context.Context, userID uuid.UUID, profile types.SocialProfile) {
	if s.logg != nil {
		ctx = s.logg.WithUserID(ctx, userID.String())
	}
	s.tasks.Go(ctx, TaskEnrichSocialProfile, func(taskCtx context.Context) error {
		return s.enricher.ApplySocialProfile(taskCtx, userID, profile)
	})
}
