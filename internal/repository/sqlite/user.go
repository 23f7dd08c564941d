package sqlite

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

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores credential records in the users table.
type UserDB struct {
	conn *sql.DB
}

// Create inserts a new user.
//
// ON CONFLICT DO NOTHING makes the existence check and the insert one
// statement: two concurrent registrations for the same email cannot both
// succeed. Zero affected rows means the email was already taken.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.Conflict("user", user.Email)
	}
	return nil
}

// GetByEmail retrieves a user by their normalized email.
// Returns apperror.ErrNotFound if no user exists with that email.
func (db *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT email, password_hash, created_at FROM users WHERE email = ?`,
		email,
	).Scan(&u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", email, err)
	}

	return &u, nil
}
