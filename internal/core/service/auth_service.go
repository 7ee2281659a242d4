package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/devtracker/accounts-api/internal/core/domain"
	"github.com/devtracker/accounts-api/internal/core/ports"
)

const tokenTypeBearer = "bearer"

// AuthService implements registration, login and bearer authentication.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenService
	logger zerolog.Logger
	now    func() time.Time
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenService, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, logger: logger, now: time.Now}
}

// Register creates a regular account. Name and email are trimmed before the
// empty check; the password is taken as given.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	created, err := s.create(ctx, name, email, password, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", created.ID).Str("email", maskEmail(created.Email)).Msg("user registered")
	return created, nil
}

func (s *AuthService) create(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, domain.ErrEmptyField
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Login verifies credentials and issues an access token. Inactive accounts may
// log in so they can reactivate themselves.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Warn().Str("email", maskEmail(email)).Msg("login failed: unknown email")
		return nil, domain.ErrUnknownEmail
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Warn().Str("user_id", user.ID).Msg("login failed: wrong password")
		return nil, domain.ErrWrongPassword
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("login succeeded")
	return &ports.LoginResult{AccessToken: token, TokenType: tokenTypeBearer}, nil
}

// Authenticate validates the token and loads its subject. Each request sees
// the account as currently stored, so a promotion takes effect immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	subject, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(subject))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnknownSubject
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates an admin account unless the email is already taken.
// It reports whether an account was created. An existing account is never
// promoted here: whoever registered the address first does not gain admin
// rights from the seed.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	user, err := s.create(ctx, name, email, password, domain.RoleAdmin)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		if existing, ferr := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email)); ferr == nil && !existing.IsAdmin() {
			s.logger.Warn().Str("user_id", existing.ID).Msg("seed email belongs to a non-admin account, skipping seed")
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("default admin created")
	return true, nil
}

// maskEmail keeps the first character of the local part.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
