package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devtracker/accounts-api/internal/core/domain"
	"github.com/devtracker/accounts-api/internal/core/ports"
)

// countingRepo is an in-memory UserRepository that records email lookups.
type countingRepo struct {
	users        map[string]*domain.User // by ID
	emailLookups int
}

func newCountingRepo(users ...*domain.User) *countingRepo {
	r := &countingRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		c := *u
		r.users[u.ID] = &c
	}
	return r
}

func (r *countingRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	c := *u
	r.users[u.ID] = &c
	return u, nil
}

func (r *countingRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *countingRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.emailLookups++
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *countingRepo) List(context.Context, ports.UserFilter) ([]*domain.User, error) {
	return nil, nil
}

func (r *countingRepo) Update(_ context.Context, u *domain.User) error {
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *countingRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

// racingRepo runs afterRead once, right after the wrapped lookup returns,
// so a write can land between the database read and the cache fill.
type racingRepo struct {
	*countingRepo
	afterRead func()
}

func (r *racingRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := r.countingRepo.FindByEmail(ctx, email)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return u, err
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func alice() *domain.User {
	return &domain.User{
		ID:           "a",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCachedUserRepository_ReadThrough(t *testing.T) {
	mr, client := newTestRedis(t)
	inner := newCountingRepo(alice())
	repo := NewCachedUserRepository(inner, client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	u, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a", u.ID)
	assert.True(t, mr.Exists("user:email:alice@example.com"))

	u, err = repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.emailLookups, "second lookup should be served from cache")
	assert.Equal(t, "hash", u.PasswordHash, "hash must survive the cache round trip")
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.True(t, u.CreatedAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCachedUserRepository_TTL(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewCachedUserRepository(newCountingRepo(alice()), client, 30*time.Second, zerolog.Nop())

	_, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL("user:email:alice@example.com"))

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists("user:email:alice@example.com"))
}

func TestCachedUserRepository_MissIsNotCached(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewCachedUserRepository(newCountingRepo(), client, time.Minute, zerolog.Nop())

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.False(t, mr.Exists("user:email:ghost@example.com"))
}

func TestCachedUserRepository_UpdateEvictsOldAndNewEmail(t *testing.T) {
	mr, client := newTestRedis(t)
	inner := newCountingRepo(alice())
	repo := NewCachedUserRepository(inner, client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, _ = repo.FindByEmail(ctx, "alice@example.com")
	require.True(t, mr.Exists("user:email:alice@example.com"))
	require.NoError(t, mr.Set("user:email:alicia@example.com", "stale"))

	changed := alice()
	changed.Email = "alicia@example.com"
	require.NoError(t, repo.Update(ctx, changed))

	assert.False(t, mr.Exists("user:email:alice@example.com"))
	assert.False(t, mr.Exists("user:email:alicia@example.com"))

	_, err := repo.FindByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCachedUserRepository_PromotionVisibleAfterUpdate(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewCachedUserRepository(newCountingRepo(alice()), client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, _ = repo.FindByEmail(ctx, "alice@example.com")

	promoted := alice()
	promoted.Role = domain.RoleAdmin
	require.NoError(t, repo.Update(ctx, promoted))

	u, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestCachedUserRepository_DeleteEvicts(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewCachedUserRepository(newCountingRepo(alice()), client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, _ = repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, repo.Delete(ctx, "a"))

	assert.False(t, mr.Exists("user:email:alice@example.com"))
	_, err := repo.FindByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCachedUserRepository_FallsThroughWhenRedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	inner := newCountingRepo(alice())
	repo := NewCachedUserRepository(inner, client, time.Minute, zerolog.Nop())
	mr.Close()

	u, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a", u.ID)
	assert.Equal(t, 1, inner.emailLookups)
}

func TestCachedUserRepository_CorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	inner := newCountingRepo(alice())
	repo := NewCachedUserRepository(inner, client, time.Minute, zerolog.Nop())
	require.NoError(t, mr.Set("user:email:alice@example.com", "{not json"))

	u, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a", u.ID)
	assert.Equal(t, 1, inner.emailLookups)
}

func TestCachedUserRepository_WriteDuringMiss(t *testing.T) {
	tests := []struct {
		name  string
		write func(t *testing.T, repo *CachedUserRepository)
		check func(t *testing.T, u *domain.User, err error)
	}{
		{
			name: "delete",
			write: func(t *testing.T, repo *CachedUserRepository) {
				require.NoError(t, repo.Delete(context.Background(), "a"))
			},
			check: func(t *testing.T, u *domain.User, err error) {
				assert.ErrorIs(t, err, domain.ErrUserNotFound)
			},
		},
		{
			name: "password change",
			write: func(t *testing.T, repo *CachedUserRepository) {
				changed := alice()
				changed.PasswordHash = "new-hash"
				require.NoError(t, repo.Update(context.Background(), changed))
			},
			check: func(t *testing.T, u *domain.User, err error) {
				require.NoError(t, err)
				assert.Equal(t, "new-hash", u.PasswordHash)
			},
		},
		{
			name: "deactivation",
			write: func(t *testing.T, repo *CachedUserRepository) {
				changed := alice()
				changed.IsActive = false
				require.NoError(t, repo.Update(context.Background(), changed))
			},
			check: func(t *testing.T, u *domain.User, err error) {
				require.NoError(t, err)
				assert.False(t, u.IsActive)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, client := newTestRedis(t)
			inner := &racingRepo{countingRepo: newCountingRepo(alice())}
			repo := NewCachedUserRepository(inner, client, time.Minute, zerolog.Nop())
			inner.afterRead = func() { tt.write(t, repo) }

			stale, err := repo.FindByEmail(context.Background(), "alice@example.com")
			require.NoError(t, err)
			assert.Equal(t, "hash", stale.PasswordHash, "the in-flight read still returns its own snapshot")
			assert.False(t, mr.Exists("user:email:alice@example.com"), "superseded snapshot must not be cached")

			u, err := repo.FindByEmail(context.Background(), "alice@example.com")
			tt.check(t, u, err)
		})
	}
}

func TestCachedUserRepository_EvictBumpsGeneration(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewCachedUserRepository(newCountingRepo(alice()), client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, alice()))
	gen, err := mr.Get("user:gen:alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	assert.Equal(t, 2*time.Minute, mr.TTL("user:gen:alice@example.com"))

	_, err = repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, mr.Exists("user:email:alice@example.com"), "a miss with no concurrent write fills the cache")
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
