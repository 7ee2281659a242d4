package ports

import (
	"context"

	"github.com/devtracker/accounts-api/internal/core/domain"
)

// UserFilter carries the query parameters for listing users.
type UserFilter struct {
	Skip  int
	Limit int    // capped at MaxListLimit by the service
	Name  string // optional: case-insensitive substring match
	Email string // optional: case-insensitive substring match
}

// UserRepository defines persistence operations for user accounts.
// Soft-deleted accounts are invisible to every method.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail expects an already normalized address.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)
	// Update overwrites the mutable fields of the stored document.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
