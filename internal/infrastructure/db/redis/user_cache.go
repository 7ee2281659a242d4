package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/devtracker/accounts-api/internal/core/domain"
	"github.com/devtracker/accounts-api/internal/core/ports"
)

const defaultCacheTTL = 5 * time.Minute

// CachedUserRepository decorates a UserRepository with a read-through cache
// for FindByEmail, the lookup every authenticated request performs.
//
//	user:email:<email>  cached account
//	user:gen:<email>    bumped on every write touching <email>
//
// A miss only fills the cache when the generation read before the database
// lookup is still current, so a write that lands in between cannot be
// overwritten by the older snapshot.
//
// Cache failures never fail a request: they are logged and the call falls
// through to the wrapped repository.
type CachedUserRepository struct {
	next   ports.UserRepository
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedUserRepository(next ports.UserRepository, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedUserRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedUserRepository{next: next, client: client, ttl: ttl, logger: logger}
}

// cachedUser mirrors domain.User including the password hash, which the
// domain type hides from JSON.
type cachedUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *CachedUserRepository) key(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}

func (c *CachedUserRepository) genKey(email string) string {
	return fmt.Sprintf("user:gen:%s", email)
}

func (c *CachedUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	raw, err := c.client.Get(ctx, c.key(email)).Bytes()
	switch {
	case err == nil:
		var cu cachedUser
		if jerr := json.Unmarshal(raw, &cu); jerr == nil {
			return &domain.User{
				ID:           cu.ID,
				Name:         cu.Name,
				Email:        cu.Email,
				PasswordHash: cu.PasswordHash,
				Role:         domain.Role(cu.Role),
				IsActive:     cu.IsActive,
				CreatedAt:    cu.CreatedAt,
				UpdatedAt:    cu.UpdatedAt,
			}, nil
		}
		c.logger.Warn().Str("key", c.key(email)).Msg("discarding unreadable cache entry")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Msg("user cache read failed")
	}

	gen, genErr := c.generation(ctx, c.client, email)

	user, err := c.next.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		c.store(ctx, email, user, gen)
	}
	return user, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// generation returns the current write counter for email; a missing key is 0.
func (c *CachedUserRepository) generation(ctx context.Context, cmd getter, email string) (int64, error) {
	gen, err := cmd.Get(ctx, c.genKey(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("user cache generation read failed")
	}
	return gen, err
}

// store caches u under email only if no write bumped the generation since
// seen was read.
func (c *CachedUserRepository) store(ctx context.Context, email string, u *domain.User, seen int64) {
	b, err := json.Marshal(cachedUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	})
	if err != nil {
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, email)
		if err != nil {
			return err
		}
		if current != seen {
			return errStaleSnapshot
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(email), b, c.ttl)
			return nil
		})
		return err
	}, c.genKey(email))

	switch {
	case err == nil:
	case errors.Is(err, errStaleSnapshot), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug().Str("key", c.key(email)).Msg("skipped caching snapshot superseded by a write")
	default:
		c.logger.Warn().Err(err).Msg("user cache write failed")
	}
}

var errStaleSnapshot = errors.New("user cache: snapshot superseded")

// evict drops the cached entries and bumps their generations in one
// transaction. Generations outlive entries so an in-flight miss still sees
// the bump.
func (c *CachedUserRepository) evict(ctx context.Context, emails ...string) {
	unique := make([]string, 0, len(emails))
	for _, e := range emails {
		if e != "" && !slices.Contains(unique, e) {
			unique = append(unique, e)
		}
	}
	if len(unique) == 0 {
		return
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range unique {
			pipe.Del(ctx, c.key(e))
			pipe.Incr(ctx, c.genKey(e))
			pipe.Expire(ctx, c.genKey(e), 2*c.ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("user cache eviction failed")
	}
}

func (c *CachedUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return c.next.Create(ctx, user)
}

func (c *CachedUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return c.next.FindByID(ctx, id)
}

func (c *CachedUserRepository) List(ctx context.Context, filter ports.UserFilter) ([]*domain.User, error) {
	return c.next.List(ctx, filter)
}

// Update evicts both the previous and the new address so a changed email
// never resolves to a stale entry.
func (c *CachedUserRepository) Update(ctx context.Context, user *domain.User) error {
	var previous string
	if old, err := c.next.FindByID(ctx, user.ID); err == nil {
		previous = old.Email
	}
	if err := c.next.Update(ctx, user); err != nil {
		return err
	}
	c.evict(ctx, previous, user.Email)
	return nil
}

func (c *CachedUserRepository) Delete(ctx context.Context, id string) error {
	var email string
	if old, err := c.next.FindByID(ctx, id); err == nil {
		email = old.Email
	}
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, email)
	return nil
}
