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

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// UserService implements profile CRUD and the account lifecycle. Every call
// resolves the target, asks domain.Authorize, and only then mutates.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, logger: logger, now: time.Now}
}

// resolve loads the target and checks op against it. A missing target is
// reported before any authorization decision.
func (s *UserService) resolve(ctx context.Context, actor *domain.User, op domain.Operation, id string) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := domain.Authorize(actor, op, target)
	if !d.Allow {
		s.logger.Warn().
			Str("actor_id", actor.ID).
			Str("target_id", target.ID).
			Str("op", string(op)).
			Str("reason", string(d.Reason)).
			Msg("operation denied")
		return nil, d.Err()
	}
	return target, nil
}

func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	target, err := s.resolve(ctx, actor, domain.OpRead, id)
	if err != nil {
		return nil, err
	}
	return target, nil
}

func (s *UserService) List(ctx context.Context, actor *domain.User, filter ports.UserFilter) ([]*domain.User, error) {
	if d := domain.Authorize(actor, domain.OpList, nil); !d.Allow {
		return nil, d.Err()
	}

	if filter.Skip < 0 {
		filter.Skip = 0
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	filter.Name = strings.TrimSpace(filter.Name)
	filter.Email = strings.TrimSpace(filter.Email)

	return s.repo.List(ctx, filter)
}

func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, in ports.UserUpdate) (*domain.User, error) {
	target, err := s.resolve(ctx, actor, domain.OpUpdate, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, domain.ErrEmptyField
	}

	if err := s.applyProfile(ctx, target, &name, &email, &in.Password); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *UserService) Patch(ctx context.Context, actor *domain.User, id string, in ports.UserPatch) (*domain.User, error) {
	target, err := s.resolve(ctx, actor, domain.OpUpdate, id)
	if err != nil {
		return nil, err
	}

	var name, email *string
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return nil, domain.ErrEmptyField
		}
		name = &v
	}
	if in.Email != nil {
		v := domain.NormalizeEmail(*in.Email)
		if v == "" {
			return nil, domain.ErrEmptyField
		}
		email = &v
	}
	if in.Password != nil && *in.Password == "" {
		return nil, domain.ErrEmptyField
	}

	if err := s.applyProfile(ctx, target, name, email, in.Password); err != nil {
		return nil, err
	}
	return target, nil
}

// applyProfile writes the non-nil fields onto target and persists it.
func (s *UserService) applyProfile(ctx context.Context, target *domain.User, name, email, password *string) error {
	if email != nil && *email != target.Email {
		existing, err := s.repo.FindByEmail(ctx, *email)
		switch {
		case err == nil && existing.ID != target.ID:
			return domain.ErrDuplicateEmail
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return err
		}
		target.Email = *email
	}
	if name != nil {
		target.Name = *name
	}
	if password != nil {
		hash, err := s.hasher.Hash(*password)
		if err != nil {
			return err
		}
		target.PasswordHash = hash
	}
	target.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, target); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", target.ID).Msg(domain.MsgProfileUpdated)
	return nil
}

func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) (*ports.LifecycleResult, error) {
	target, err := s.resolve(ctx, actor, domain.OpDelete, id)
	if err != nil {
		return nil, err
	}

	tr := target.MarkDeleted(s.now().UTC())
	if err := s.repo.Delete(ctx, target.ID); err != nil {
		return nil, err
	}
	s.logger.Info().Str("actor_id", actor.ID).Str("user_id", target.ID).Msg(tr.Message)
	return &ports.LifecycleResult{User: target, Message: tr.Message, Changed: tr.Changed}, nil
}

func (s *UserService) Activate(ctx context.Context, actor *domain.User, id string) (*ports.LifecycleResult, error) {
	return s.transition(ctx, actor, id, domain.OpActivate, (*domain.User).Activate)
}

func (s *UserService) Deactivate(ctx context.Context, actor *domain.User, id string) (*ports.LifecycleResult, error) {
	return s.transition(ctx, actor, id, domain.OpDeactivate, (*domain.User).Deactivate)
}

func (s *UserService) Promote(ctx context.Context, actor *domain.User, id string) (*ports.LifecycleResult, error) {
	return s.transition(ctx, actor, id, domain.OpPromote, (*domain.User).Promote)
}

// transition applies a lifecycle step and persists only when it changed the
// account.
func (s *UserService) transition(
	ctx context.Context,
	actor *domain.User,
	id string,
	op domain.Operation,
	step func(*domain.User, time.Time) domain.Transition,
) (*ports.LifecycleResult, error) {
	target, err := s.resolve(ctx, actor, op, id)
	if err != nil {
		return nil, err
	}

	tr := step(target, s.now().UTC())
	if tr.Changed {
		if err := s.repo.Update(ctx, target); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("actor_id", actor.ID).
		Str("user_id", target.ID).
		Str("op", string(op)).
		Bool("changed", tr.Changed).
		Msg(tr.Message)
	return &ports.LifecycleResult{User: target, Message: tr.Message, Changed: tr.Changed}, nil
}
