package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/devtracker/accounts-api/internal/api/middleware"
	"github.com/devtracker/accounts-api/internal/core/domain"
)

// ctxActor returns the account the Auth middleware resolved for this request.
// A missing actor means the route was registered without Auth.
func ctxActor(c echo.Context) (*domain.User, error) {
	actor := middleware.Actor(c)
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return actor, nil
}
