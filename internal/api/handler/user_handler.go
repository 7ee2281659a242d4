package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/devtracker/accounts-api/internal/api/metrics"
	"github.com/devtracker/accounts-api/internal/core/domain"
	"github.com/devtracker/accounts-api/internal/core/ports"
)

// UserHandler serves the profile and lifecycle routes. Every route runs
// behind the Auth middleware; authorization is decided by the service.
type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type listUsersQuery struct {
	Skip  int    `query:"skip"  validate:"min=0"`
	Limit int    `query:"limit" validate:"min=0"`
	Name  string `query:"name"`
	Email string `query:"email"`
}

type updateUserRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type patchUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type emailField struct {
	Email string `json:"email" validate:"email"`
}

// Get returns one account.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// List returns a page of accounts. Admins only.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        skip   query     int     false  "Rows to skip"
// @Param        limit  query     int     false  "Page size (max 100)"
// @Param        name   query     string  false  "Name contains"
// @Param        email  query     string  false  "Email contains"
// @Success      200    {array}   userResponse
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /users/ [get]
func (h *UserHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var q listUsersQuery
	if err := c.Bind(&q); err != nil {
		return err
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	users, err := h.userService.List(c.Request().Context(), actor, ports.UserFilter{
		Skip:  q.Skip,
		Limit: q.Limit,
		Name:  q.Name,
		Email: q.Email,
	})
	if err != nil {
		return err
	}

	c.Response().Header().Set("X-Result-Count", strconv.Itoa(len(users)))
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Update replaces name, email and password of the caller's own account.
//
// @Summary      Replace own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Full profile"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /user/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userService.Update(c.Request().Context(), actor, c.Param("id"), ports.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Patch changes only the fields present in the body.
//
// @Summary      Patch own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "User ID"
// @Param        body  body      patchUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /users/{id} [patch]
func (h *UserHandler) Patch(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req patchUserRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		if err := c.Validate(&emailField{Email: strings.TrimSpace(*req.Email)}); err != nil {
			return err
		}
	}

	user, err := h.userService.Patch(c.Request().Context(), actor, c.Param("id"), ports.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete removes an account.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  lifecycleResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /user/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	return h.lifecycle(c, domain.OpDelete, h.userService.Delete, false)
}

// Activate marks an account active.
//
// @Summary      Activate a user
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  lifecycleResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/activate [patch]
func (h *UserHandler) Activate(c echo.Context) error {
	return h.lifecycle(c, domain.OpActivate, h.userService.Activate, true)
}

// Deactivate marks an account inactive.
//
// @Summary      Deactivate a user
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  lifecycleResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/deactivate [patch]
func (h *UserHandler) Deactivate(c echo.Context) error {
	return h.lifecycle(c, domain.OpDeactivate, h.userService.Deactivate, true)
}

// Promote grants the admin role. Admins only.
//
// @Summary      Promote a user to admin
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  lifecycleResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/promote [patch]
func (h *UserHandler) Promote(c echo.Context) error {
	return h.lifecycle(c, domain.OpPromote, h.userService.Promote, true)
}

type lifecycleFunc func(ctx context.Context, actor *domain.User, id string) (*ports.LifecycleResult, error)

func (h *UserHandler) lifecycle(c echo.Context, op domain.Operation, call lifecycleFunc, includeUser bool) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	res, err := call(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}

	metrics.LifecycleTransitionsTotal.WithLabelValues(string(op), strconv.FormatBool(res.Changed)).Inc()
	return c.JSON(http.StatusOK, toLifecycleResponse(res, includeUser))
}
