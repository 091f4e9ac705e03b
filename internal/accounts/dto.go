package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakthi-t/bookscart/internal/orders"
	"github.com/sakthi-t/bookscart/internal/users"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/enums"
)

const (
	maxDisplayNameLen = 150
	maxPhoneLen       = 32
	// ProfileRecentOrders is how many orders the profile page lists.
	ProfileRecentOrders = 10
)

// AccountDTO exposes the editable profile record.
type AccountDTO struct {
	ID          uuid.UUID          `json:"id"`
	DisplayName string             `json:"display_name"`
	AvatarURL   *string            `json:"avatar_url,omitempty"`
	Phone       *string            `json:"phone,omitempty"`
	Provider    enums.AuthProvider `json:"provider"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ProfileDTO is the profile page: user, account and recent orders.
type ProfileDTO struct {
	User         *users.UserDTO    `json:"user"`
	Account      AccountDTO        `json:"account"`
	RecentOrders []orders.OrderDTO `json:"recent_orders"`
}

// UpdateProfileInput carries optional profile edits; blank values are ignored.
type UpdateProfileInput struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=150"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// FromModel maps the account model into its DTO.
func FromModel(m *models.Account) AccountDTO {
	return AccountDTO{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		Phone:       m.Phone,
		Provider:    m.Provider,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// DefaultDisplayName is the user's full name, or the local part of their
// email when no name was given.
func DefaultDisplayName(firstName, lastName, email string) string {
	name := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return truncate(name, maxDisplayNameLen)
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
