package handler

import (
	"time"

	"github.com/devtracker/accounts-api/internal/core/domain"
	"github.com/devtracker/accounts-api/internal/core/ports"
)

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type lifecycleResponse struct {
	Message string        `json:"message"`
	Changed bool          `json:"changed"`
	User    *userResponse `json:"user,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []*domain.User) []*userResponse {
	out := make([]*userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// toLifecycleResponse omits the account for deletions.
func toLifecycleResponse(res *ports.LifecycleResult, includeUser bool) lifecycleResponse {
	out := lifecycleResponse{Message: res.Message, Changed: res.Changed}
	if includeUser {
		out.User = toUserResponse(res.User)
	}
	return out
}
