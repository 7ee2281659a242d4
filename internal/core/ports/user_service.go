package ports

import (
	"context"

	"github.com/devtracker/accounts-api/internal/core/domain"
)

// UserUpdate is a full profile replacement; every field is required.
type UserUpdate struct {
	Name     string
	Email    string
	Password string
}

// UserPatch holds the fields to change; nil fields are left untouched.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
}

// LifecycleResult reports the account after a lifecycle call and whether the
// call changed anything.
type LifecycleResult struct {
	User    *domain.User
	Message string
	Changed bool
}

// UserService runs every operation through domain.Authorize before touching
// storage. actor is the authenticated caller.
type UserService interface {
	Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error)
	List(ctx context.Context, actor *domain.User, filter UserFilter) ([]*domain.User, error)
	Update(ctx context.Context, actor *domain.User, id string, in UserUpdate) (*domain.User, error)
	Patch(ctx context.Context, actor *domain.User, id string, in UserPatch) (*domain.User, error)
	Delete(ctx context.Context, actor *domain.User, id string) (*LifecycleResult, error)
	Activate(ctx context.Context, actor *domain.User, id string) (*LifecycleResult, error)
	Deactivate(ctx context.Context, actor *domain.User, id string) (*LifecycleResult, error)
	Promote(ctx context.Context, actor *domain.User, id string) (*LifecycleResult, error)
}
