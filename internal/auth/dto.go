package auth

import (
	"github.com/sakthi-t/bookscart/internal/users"
	"github.com/sakthi-t/bookscart/pkg/types"
)

// RegisterRequest is the signup payload. Social carries optional profile data
// handed over by a social login front end.
type RegisterRequest struct {
	Email     string               `json:"email" validate:"required,email"`
	Password  string               `json:"password" validate:"required,min=8"`
	FirstName string               `json:"first_name" validate:"max=150"`
	LastName  string               `json:"last_name" validate:"max=150"`
	Social    *types.SocialProfile `json:"social,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is an access token plus the single-use refresh token bound to it.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is returned by login and signup.
type LoginResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}

// RefreshRequest carries the refresh token paired with the presented access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
