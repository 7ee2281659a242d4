package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/devtracker/accounts-api/internal/core/domain"
)

// RBAC only lets through actors holding one of allowedRoles. It must run
// after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := Actor(c)
			if actor == nil {
				return domain.ErrNotAuthenticated
			}
			if _, ok := allowed[actor.Role]; !ok {
				return domain.ErrNotAdmin
			}
			return next(c)
		}
	}
}
