package ports

import (
	"context"

	"github.com/devtracker/accounts-api/internal/core/domain"
)

// LoginResult is the bearer token handed out by a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Authenticate resolves a bearer token to the account it was issued for.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// PasswordHasher is the credential store: one-way hashing and verification.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenService issues and validates signed access tokens. The subject is the
// account email.
type TokenService interface {
	Issue(subject string) (string, error)
	Validate(token string) (string, error)
}
