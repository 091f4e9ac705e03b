package controllers

import (
	"net/http"

	"github.com/sakthi-t/bookscart/api/middleware"
	"github.com/sakthi-t/bookscart/api/responses"
	"github.com/sakthi-t/bookscart/api/validators"
	"github.com/sakthi-t/bookscart/internal/auth"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/logger"
)

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds auth.LoginRequest
		if !decodeInto(w, r, logg, svc != nil, &creds) {
			return
		}
		session, err := svc.Login(r.Context(), creds)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// AuthRegister creates the account and answers 201 with the same payload a
// login would, so the client is signed in straight away.
func AuthRegister(registerSvc auth.RegisterService, authSvc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signup auth.RegisterRequest
		if !decodeInto(w, r, logg, registerSvc != nil && authSvc != nil, &signup) {
			return
		}
		ctx := r.Context()
		if _, err := registerSvc.Register(ctx, signup); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		session, err := authSvc.Login(ctx, auth.LoginRequest{Email: signup.Email, Password: signup.Password})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// AuthRefresh needs the access token the refresh token was issued with; an
// expired one is accepted.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RefreshRequest
		if !decodeInto(w, r, logg, svc != nil, &body) {
			return
		}
		access, ok := requireBearer(w, r, logg)
		if !ok {
			return
		}
		pair, err := svc.Refresh(r.Context(), access, body.RefreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pair)
	}
}

func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("auth service"))
			return
		}
		access, ok := requireBearer(w, r, logg)
		if !ok {
			return
		}
		if err := svc.Logout(r.Context(), access); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// decodeInto writes the error response itself and reports whether the handler may continue.
func decodeInto(w http.ResponseWriter, r *http.Request, logg *logger.Logger, wired bool, dst any) bool {
	err := serviceUnavailable("auth service")
	if wired {
		err = validators.DecodeJSONBody(w, r, dst)
	}
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return false
	}
	return true
}

func requireBearer(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	token := middleware.BearerToken(r)
	if token == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return "", false
	}
	return token, true
}
