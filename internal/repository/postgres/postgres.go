// Package postgres implements the repository interfaces on PostgreSQL through
// the pgx database/sql driver. Select it with DB_DRIVER=postgres.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DBTX is the subset of database/sql the repositories use.
// Both *sql.DB and *sql.Tx satisfy it, and so does a sqlmock connection.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// DB owns the connection pool and vends the repositories.
type DB struct {
	conn *sql.DB
}

// Open connects to dsn, verifies the connection and applies migrations.
func Open(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}
	if err := RunMigrations(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return &DB{conn: conn}, nil
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func RunMigrations(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseUpContext(ctx, conn, "migrations")
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns a UserRepository bound to the pool.
func (db *DB) Users() *UserRepository {
	return NewUserRepository(db.conn)
}

// Listings returns a ListingRepository bound to the pool.
func (db *DB) Listings() *ListingRepository {
	return NewListingRepository(db.conn)
}
