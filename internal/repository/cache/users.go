// Package cache provides a Redis read-through cache in front of a
// repository.UserRepository.
//
// The cache is advisory. The wrapped repository stays the source of truth and
// a Redis failure only costs a round trip: it is logged and the call falls
// through to the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/madison-marketplace/internal/model"
	"github.com/sakif/madison-marketplace/internal/repository"
)

// DefaultTTL bounds how long a user record is served from Redis.
const DefaultTTL = 10 * time.Minute

var _ repository.UserRepository = (*Users)(nil)

// Users decorates a UserRepository with Redis.
type Users struct {
	next   repository.UserRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// entry is the cached form of a user. model.User hides the hash from JSON,
// so the cache carries its own shape.
type entry struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUsers wraps next. A non-positive ttl uses DefaultTTL.
func NewUsers(next repository.UserRepository, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Users {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Users{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func userKey(email string) string {
	return "user:" + email
}

// Create writes through to the store and primes the cache on success.
func (c *Users) Create(ctx context.Context, user *model.User) error {
	if err := c.next.Create(ctx, user); err != nil {
		return err
	}
	c.set(ctx, user)
	return nil
}

// GetByEmail serves from Redis when it can and fills it on a miss.
// Not-found results are never cached.
func (c *Users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	raw, err := c.rdb.Get(ctx, userKey(email)).Bytes()
	switch {
	case err == nil:
		var e entry
		if jerr := json.Unmarshal(raw, &e); jerr == nil {
			return &model.User{Email: e.Email, PasswordHash: e.PasswordHash, CreatedAt: e.CreatedAt}, nil
		}
		c.logger.Warn("discarding malformed cache entry", "email", email)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("user cache read failed", "email", email, "error", err)
	}

	user, err := c.next.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	c.set(ctx, user)
	return user, nil
}

func (c *Users) set(ctx context.Context, user *model.User) {
	data, err := json.Marshal(entry{Email: user.Email, PasswordHash: user.PasswordHash, CreatedAt: user.CreatedAt})
	if err != nil {
		c.logger.Warn("encoding cache entry", "email", user.Email, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, userKey(user.Email), data, c.ttl).Err(); err != nil {
		c.logger.Warn("user cache write failed", "email", user.Email, "error", err)
	}
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
