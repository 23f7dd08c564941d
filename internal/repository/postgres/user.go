package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/madison-marketplace/internal/apperror"
	"github.com/sakif/madison-marketplace/internal/model"
	"github.com/sakif/madison-marketplace/internal/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user; an existing email yields a conflict and no write.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query :=
		`INSERT INTO users (email, password_hash, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: inserting user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.Conflict("user", user.Email)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query :=
		`SELECT email, password_hash, created_at FROM users
		 WHERE email = $1`

	u := &model.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("postgres: getting user: %w", err)
	}
	return u, nil
}
