package middleware

import (
	"net/http"

	"github.com/sakthi-t/bookscart/api/responses"
	"github.com/sakthi-t/bookscart/pkg/enums"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/logger"
)

// RequireStaff admits staff and admins.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return requireRole(logg, func(role enums.UserRole) bool { return role.IsStaff() })
}

// RequireAdmin admits admins only.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return requireRole(logg, func(role enums.UserRole) bool { return role == enums.UserRoleAdmin })
}

func requireRole(logg *logger.Logger, allowed func(enums.UserRole) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed(enums.UserRole(RoleFromContext(r.Context()))) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
