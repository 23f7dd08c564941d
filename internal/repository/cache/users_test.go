package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/madison-marketplace/internal/apperror"
	"github.com/sakif/madison-marketplace/internal/model"
)

// fakeUsers is an in-memory UserRepository that counts lookups.
type fakeUsers struct {
	users map[string]model.User
	gets  int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if _, ok := f.users[u.Email]; ok {
		return apperror.Conflict("user", u.Email)
	}
	f.users[u.Email] = *u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.gets++
	u, ok := f.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	return &u, nil
}

func setup(t *testing.T) (*Users, *fakeUsers, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := newFakeUsers()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUsers(store, rdb, time.Minute, logger), store, mr
}

func TestCreate_PrimesCache(t *testing.T) {
	c, store, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, c.Create(ctx, &model.User{Email: "bucky@wisc.edu", PasswordHash: "h"}))
	assert.True(t, mr.Exists("user:bucky@wisc.edu"))

	got, err := c.GetByEmail(ctx, "bucky@wisc.edu")
	require.NoError(t, err)
	assert.Equal(t, "h", got.PasswordHash)
	assert.Equal(t, 0, store.gets, "hit should not reach the store")
}

func TestCreate_ConflictNotCached(t *testing.T) {
	c, store, mr := setup(t)
	store.users["taken@wisc.edu"] = model.User{Email: "taken@wisc.edu", PasswordHash: "orig"}

	err := c.Create(context.Background(), &model.User{Email: "taken@wisc.edu", PasswordHash: "new"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.False(t, mr.Exists("user:taken@wisc.edu"))
}

func TestGetByEmail_MissFillsCache(t *testing.T) {
	c, store, mr := setup(t)
	ctx := context.Background()
	store.users["bucky@wisc.edu"] = model.User{Email: "bucky@wisc.edu", PasswordHash: "h"}

	_, err := c.GetByEmail(ctx, "bucky@wisc.edu")
	require.NoError(t, err)
	_, err = c.GetByEmail(ctx, "bucky@wisc.edu")
	require.NoError(t, err)

	assert.Equal(t, 1, store.gets)
	assert.Equal(t, time.Minute, mr.TTL("user:bucky@wisc.edu"))
}

func TestGetByEmail_NotFoundNotCached(t *testing.T) {
	c, _, mr := setup(t)

	_, err := c.GetByEmail(context.Background(), "ghost@wisc.edu")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.False(t, mr.Exists("user:ghost@wisc.edu"))
}

func TestGetByEmail_RedisDownFallsThrough(t *testing.T) {
	c, store, mr := setup(t)
	store.users["bucky@wisc.edu"] = model.User{Email: "bucky@wisc.edu", PasswordHash: "h"}
	mr.Close()

	got, err := c.GetByEmail(context.Background(), "bucky@wisc.edu")
	require.NoError(t, err)
	assert.Equal(t, "bucky@wisc.edu", got.Email)
}

func TestGetByEmail_MalformedEntryIgnored(t *testing.T) {
	c, store, mr := setup(t)
	store.users["bucky@wisc.edu"] = model.User{Email: "bucky@wisc.edu", PasswordHash: "h"}
	require.NoError(t, mr.Set("user:bucky@wisc.edu", "{not json"))

	got, err := c.GetByEmail(context.Background(), "bucky@wisc.edu")
	require.NoError(t, err)
	assert.Equal(t, "h", got.PasswordHash)
	assert.Equal(t, 1, store.gets)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), addr, "", 0)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, redis.Nil))
}
