package types

import (
	"strings"

	"github.com/sakthi-t/bookscart/pkg/enums"
)

// SocialProfile is the identity data a social provider hands over at signup.
type SocialProfile struct {
	Provider   enums.AuthProvider `json:"provider" validate:"required,oneof=google github"`
	Name       string             `json:"name,omitempty" validate:"omitempty,max=150"`
	PictureURL string             `json:"picture_url,omitempty" validate:"omitempty,url"`
}

// IsZero reports whether no profile was supplied.
func (p *SocialProfile) IsZero() bool {
	return p == nil || (p.Provider == "" && strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.PictureURL) == "")
}
