package accounts

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/internal/orders"
	"github.com/sakthi-t/bookscart/internal/users"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/types"
)

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type recentOrders interface {
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]orders.OrderDTO, error)
}

// Service exposes the profile view and edits.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*AccountDTO, error)
	ApplySocialProfile(ctx context.Context, userID uuid.UUID, profile types.SocialProfile) error
}

// ServiceParams groups dependencies for the accounts service.
type ServiceParams struct {
	Repo   Repository
	Users  userLoader
	Orders recentOrders
}

type service struct {
	repo   Repository
	users  userLoader
	orders recentOrders
}

// NewService builds the accounts service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "accounts repository is required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repository is required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders service is required")
	}
	return &service{repo: params.Repo, users: params.Users, orders: params.Orders}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapLookupError(err, "user not found", "load user")
	}
	account, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, mapLookupError(err, "account not found", "load account")
	}
	recent, err := s.orders.Recent(ctx, userID, ProfileRecentOrders)
	if err != nil {
		return nil, err
	}
	return &ProfileDTO{
		User:         users.FromModel(user),
		Account:      FromModel(account),
		RecentOrders: recent,
	}, nil
}

// UpdateProfile writes only the non-blank fields of input.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*AccountDTO, error) {
	updates := map[string]any{}
	if input.DisplayName != nil {
		if name := strings.TrimSpace(*input.DisplayName); name != "" {
			if utf8.RuneCountInString(name) > maxDisplayNameLen {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name must be at most 150 characters")
			}
			updates["display_name"] = name
		}
	}
	if input.Phone != nil {
		if phone := strings.TrimSpace(*input.Phone); phone != "" {
			if utf8.RuneCountInString(phone) > maxPhoneLen {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be at most 32 characters")
			}
			updates["phone"] = phone
		}
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, userID, updates); err != nil {
			return nil, mapLookupError(err, "account not found", "update account")
		}
	}
	account, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, mapLookupError(err, "account not found", "load account")
	}
	dto := FromModel(account)
	return &dto, nil
}

// ApplySocialProfile copies provider, name and picture from a social login
// onto the account. Blank profile fields leave the stored values alone.
func (s *service) ApplySocialProfile(ctx context.Context, userID uuid.UUID, profile types.SocialProfile) error {
	if profile.IsZero() {
		return nil
	}
	updates := map[string]any{}
	if profile.Provider != "" {
		if !profile.Provider.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown auth provider")
		}
		updates["provider"] = profile.Provider
	}
	if name := strings.TrimSpace(profile.Name); name != "" {
		updates["display_name"] = truncate(name, maxDisplayNameLen)
	}
	if picture := strings.TrimSpace(profile.PictureURL); picture != "" {
		updates["avatar_url"] = picture
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return mapLookupError(err, "account not found", "apply social profile")
	}
	return nil
}

func mapLookupError(err error, notFound, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
